package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
	"github.com/leadloop/drip-backend/internal/model"
)

// CampaignSummary is a campaign annotated with its step count for list views.
type CampaignSummary struct {
	model.Campaign
	StepCount int `json:"step_count"`
}

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	Update(c *model.Campaign) error
	Delete(id int) error
	Clone(id int, name string) (*model.Campaign, error)
	ListByUser(userID int) ([]*CampaignSummary, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO campaigns (user_id, name, description, sms_agent_id, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.UserID, c.Name, c.Description, c.SMSAgentID, c.IsActive, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, user_id, name, description, sms_agent_id, is_active, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.SMSAgentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, description=$2, sms_agent_id=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
    `
	res, err := r.DB.Exec(query, c.Name, c.Description, c.SMSAgentID, c.IsActive, c.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return nil
}

// Delete removes the campaign and everything it owns in one transaction:
// no orphaned steps, enrollments or send records survive.
func (r *CampaignRepository) Delete(id int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM step_sends WHERE campaign_id=$1`,
		`DELETE FROM enrollments WHERE campaign_id=$1`,
		`DELETE FROM campaign_steps WHERE campaign_id=$1`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}

	res, err := tx.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}

	return tx.Commit()
}

// Clone copies the campaign under the given name with is_active forced
// false, then deep-copies every step verbatim. All-or-nothing.
func (r *CampaignRepository) Clone(id int, name string) (*model.Campaign, error) {
	src, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	clone := &model.Campaign{
		UserID:      src.UserID,
		Name:        name,
		Description: src.Description,
		SMSAgentID:  src.SMSAgentID,
		IsActive:    false,
		CreatedAt:   time.Now(),
	}
	err = tx.QueryRow(`
        INSERT INTO campaigns (user_id, name, description, sms_agent_id, is_active, created_at)
        VALUES ($1, $2, $3, $4, FALSE, $5)
        RETURNING id
    `, clone.UserID, clone.Name, clone.Description, clone.SMSAgentID, clone.CreatedAt).Scan(&clone.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
        INSERT INTO campaign_steps (campaign_id, step_order, delay_minutes, message_template, created_at)
        SELECT $1, step_order, delay_minutes, message_template, NOW()
        FROM campaign_steps WHERE campaign_id=$2
    `, clone.ID, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return clone, nil
}

// ListByUser returns the user's campaigns newest first, each with its
// step count for the dashboard list.
func (r *CampaignRepository) ListByUser(userID int) ([]*CampaignSummary, error) {
	query := `
        SELECT c.id, c.user_id, c.name, c.description, c.sms_agent_id, c.is_active, c.created_at, c.updated_at,
               COUNT(s.id) AS step_count
        FROM campaigns c
        LEFT JOIN campaign_steps s ON s.campaign_id = c.id
        WHERE c.user_id=$1
        GROUP BY c.id
        ORDER BY c.created_at DESC, c.id DESC
    `
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*CampaignSummary{}
	for rows.Next() {
		c := &CampaignSummary{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.SMSAgentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.StepCount); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
