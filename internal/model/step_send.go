// internal/model/step_send.go
package model

import "time"

const (
	SendStatusClaimed = "claimed"
	SendStatusSent    = "sent"
	SendStatusFailed  = "failed"
)

// StepSend is the at-most-once ledger. A row is claimed before dispatch;
// the UNIQUE(campaign_id, contact_id, step_id) constraint makes racing
// workers lose the insert instead of double-sending. FireAt preserves the
// fire-time the claim was scheduled for: the enrollment clock is cleared
// while the send is in flight, and a released claim must put it back.
type StepSend struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	ContactID  int        `db:"contact_id" json:"contact_id"`
	StepID     int        `db:"step_id" json:"step_id"`
	Status     string     `db:"status" json:"status"`
	Attempts   int        `db:"attempts" json:"attempts"`
	LastError  string     `db:"last_error,omitempty" json:"last_error,omitempty"`
	FireAt     time.Time  `db:"fire_at" json:"fire_at"`
	ClaimedAt  time.Time  `db:"claimed_at" json:"claimed_at"`
	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}
