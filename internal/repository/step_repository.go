package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
	"github.com/leadloop/drip-backend/internal/model"
)

type StepRepositoryInterface interface {
	Add(s *model.CampaignStep) error
	GetByID(id int) (*model.CampaignStep, error)
	Update(s *model.CampaignStep) error
	Delete(id int) error
	ListByCampaign(campaignID int) ([]*model.CampaignStep, error)
	CountByCampaign(campaignID int) (int, error)
	CreateBatch(steps []*model.CampaignStep) error
}

type StepRepository struct {
	DB *sql.DB
}

// Add inserts a step. When StepOrder is zero it is assigned count+1 in
// the same statement, so concurrent appends cannot pick the same slot for
// different counts (the unique index rejects the loser either way).
func (r *StepRepository) Add(s *model.CampaignStep) error {
	s.CreatedAt = time.Now()
	if s.StepOrder > 0 {
		query := `
            INSERT INTO campaign_steps (campaign_id, step_order, delay_minutes, message_template, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id
        `
		return r.DB.QueryRow(query, s.CampaignID, s.StepOrder, s.DelayMinutes, s.MessageTemplate, s.CreatedAt).Scan(&s.ID)
	}
	query := `
        INSERT INTO campaign_steps (campaign_id, step_order, delay_minutes, message_template, created_at)
        VALUES ($1, (SELECT COUNT(*) FROM campaign_steps WHERE campaign_id=$1) + 1, $2, $3, $4)
        RETURNING id, step_order
    `
	return r.DB.QueryRow(query, s.CampaignID, s.DelayMinutes, s.MessageTemplate, s.CreatedAt).Scan(&s.ID, &s.StepOrder)
}

func (r *StepRepository) GetByID(id int) (*model.CampaignStep, error) {
	query := `
        SELECT id, campaign_id, step_order, delay_minutes, message_template, created_at
        FROM campaign_steps WHERE id=$1
    `
	var s model.CampaignStep
	err := r.DB.QueryRow(query, id).Scan(&s.ID, &s.CampaignID, &s.StepOrder, &s.DelayMinutes, &s.MessageTemplate, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewStepNotFound(id)
		}
		return nil, err
	}
	return &s, nil
}

// Update changes delay and template only. step_order is immutable here:
// the authoring UI has no reorder operation.
func (r *StepRepository) Update(s *model.CampaignStep) error {
	query := `UPDATE campaign_steps SET delay_minutes=$1, message_template=$2 WHERE id=$3`
	res, err := r.DB.Exec(query, s.DelayMinutes, s.MessageTemplate, s.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewStepNotFound(s.ID)
	}
	return nil
}

// Delete removes exactly one step and never renumbers its siblings.
func (r *StepRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM campaign_steps WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewStepNotFound(id)
	}
	return nil
}

// ListByCampaign sorts ascending by step_order; ties break by creation
// time then id so ordering stays deterministic.
func (r *StepRepository) ListByCampaign(campaignID int) ([]*model.CampaignStep, error) {
	query := `
        SELECT id, campaign_id, step_order, delay_minutes, message_template, created_at
        FROM campaign_steps
        WHERE campaign_id=$1
        ORDER BY step_order ASC, created_at ASC, id ASC
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []*model.CampaignStep{}
	for rows.Next() {
		s := &model.CampaignStep{}
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.StepOrder, &s.DelayMinutes, &s.MessageTemplate, &s.CreatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (r *StepRepository) CountByCampaign(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaign_steps WHERE campaign_id=$1`, campaignID).Scan(&count)
	return count, err
}

// CreateBatch inserts all steps in one transaction. Used by preset
// materialization: either every preset step lands or none do.
func (r *StepRepository) CreateBatch(steps []*model.CampaignStep) error {
	if len(steps) == 0 {
		return nil
	}
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO campaign_steps (campaign_id, step_order, delay_minutes, message_template, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	now := time.Now()
	for _, s := range steps {
		s.CreatedAt = now
		if err := tx.QueryRow(query, s.CampaignID, s.StepOrder, s.DelayMinutes, s.MessageTemplate, s.CreatedAt).Scan(&s.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

var _ StepRepositoryInterface = (*StepRepository)(nil)
