// internal/model/campaign.go
package model

import "time"

// Display statuses derived from is_active + step count. Never stored.
const (
	CampaignStatusDraft  = "draft"
	CampaignStatusPaused = "paused"
	CampaignStatusActive = "active"
)

type Campaign struct {
	ID          int        `db:"id" json:"id"`
	UserID      int        `db:"user_id" json:"user_id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description,omitempty"`
	SMSAgentID  *int       `db:"sms_agent_id" json:"sms_agent_id,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DerivedStatus applies the dashboard rule: active wins, otherwise a
// campaign with steps shows as paused and one without shows as draft.
func (c *Campaign) DerivedStatus(stepCount int) string {
	if c.IsActive {
		return CampaignStatusActive
	}
	if stepCount > 0 {
		return CampaignStatusPaused
	}
	return CampaignStatusDraft
}
