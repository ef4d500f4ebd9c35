// internal/model/step.go
package model

import "time"

// CampaignStep is one message in a campaign's drip sequence. step_order
// defines send order within the campaign; values are unique per campaign
// but gaps are legal (deleting a middle step does not renumber the rest).
type CampaignStep struct {
	ID              int       `db:"id" json:"id"`
	CampaignID      int       `db:"campaign_id" json:"campaign_id"`
	StepOrder       int       `db:"step_order" json:"step_order"`
	DelayMinutes    int       `db:"delay_minutes" json:"delay_minutes"`
	MessageTemplate string    `db:"message_template" json:"message_template"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
