// internal/model/enrollment.go
package model

import "time"

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentCancelled = "cancelled"
	EnrollmentFailed    = "failed"
)

// Enrollment tracks one contact's progression through one campaign.
// NextFireAt is the absolute fire-time of the next unsent step; it is
// cleared while a send is in flight and set again from the actual send
// time, so pausing and resuming the campaign never re-bases the clock.
type Enrollment struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	ContactID  int        `db:"contact_id" json:"contact_id"`
	Status     string     `db:"status" json:"status"`
	NextFireAt *time.Time `db:"next_fire_at" json:"next_fire_at,omitempty"`
	EnrolledAt time.Time  `db:"enrolled_at" json:"enrolled_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
