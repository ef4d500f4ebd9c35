// Package sms defines the outbound send primitive. The real provider
// lives outside this service; everything here sees only this interface.
package sms

import (
	"context"
	"fmt"
	"math/rand"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
)

type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// MockSender simulates a provider: configurable transient failure rate,
// terminal failure on an empty phone number.
type MockSender struct {
	// FailRate is the probability of a transient failure, 0..1.
	FailRate float64
}

func (m *MockSender) Send(ctx context.Context, phone, text string) error {
	if err := ctx.Err(); err != nil {
		return appErrors.NewTransientDispatch(err)
	}
	if phone == "" {
		return appErrors.NewTerminalDispatch(fmt.Errorf("invalid phone number"))
	}
	if rand.Float64() < m.FailRate {
		return appErrors.NewTransientDispatch(fmt.Errorf("mock sending failed"))
	}
	return nil
}

var _ Sender = (*MockSender)(nil)
