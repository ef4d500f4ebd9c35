// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ValidationError rejects bad input at the API boundary before anything
// is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrStepNotFound struct {
	StepID int
}

func (e *ErrStepNotFound) Error() string {
	return fmt.Sprintf("step with ID %d not found", e.StepID)
}

func NewStepNotFound(id int) error {
	return &ErrStepNotFound{StepID: id}
}

type ErrContactNotFound struct {
	ContactID int
}

func (e *ErrContactNotFound) Error() string {
	return fmt.Sprintf("contact with ID %d not found", e.ContactID)
}

func NewContactNotFound(id int) error {
	return &ErrContactNotFound{ContactID: id}
}

func IsNotFound(err error) bool {
	var c *ErrCampaignNotFound
	var s *ErrStepNotFound
	var ct *ErrContactNotFound
	return errors.As(err, &c) || errors.As(err, &s) || errors.As(err, &ct)
}

// DispatchError wraps a failed send. Transient failures (provider/network)
// get retried with backoff; terminal ones (bad number, opt-out) do not.
type DispatchError struct {
	Transient bool
	Err       error
}

func (e *DispatchError) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("dispatch failed (%s): %v", kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func NewTransientDispatch(err error) error {
	return &DispatchError{Transient: true, Err: err}
}

func NewTerminalDispatch(err error) error {
	return &DispatchError{Transient: false, Err: err}
}

// IsTransientDispatch reports whether err should be retried. Errors that
// are not DispatchError at all (timeouts, unexpected provider failures)
// count as transient.
func IsTransientDispatch(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Transient
	}
	return true
}
