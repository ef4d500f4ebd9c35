package repository

import (
	"database/sql"
	"time"

	"github.com/leadloop/drip-backend/internal/model"
)

type StepSendRepositoryInterface interface {
	Claim(campaignID, contactID, stepID int, fireAt time.Time) (*model.StepSend, bool, error)
	GetByID(id int) (*model.StepSend, error)
	ListByEnrollment(campaignID, contactID int) ([]*model.StepSend, error)
	UpdateAttempt(id, attempts int, lastError string) error
	MarkSent(id int, sentAt time.Time) error
	MarkFailed(id, attempts int, lastError string) error
	Release(id int) error
	StatsByCampaign(campaignID int) (map[string]int, error)
}

type StepSendRepository struct {
	DB *sql.DB
}

// Claim records "send attempted" for the tuple. The unique constraint on
// (campaign_id, contact_id, step_id) means exactly one of two racing
// workers gets a row back; the other sees ok=false and must not dispatch.
func (r *StepSendRepository) Claim(campaignID, contactID, stepID int, fireAt time.Time) (*model.StepSend, bool, error) {
	query := `
        INSERT INTO step_sends (campaign_id, contact_id, step_id, status, attempts, fire_at, claimed_at)
        VALUES ($1, $2, $3, 'claimed', 0, $4, NOW())
        ON CONFLICT (campaign_id, contact_id, step_id) DO NOTHING
        RETURNING id, claimed_at
    `
	send := &model.StepSend{
		CampaignID: campaignID,
		ContactID:  contactID,
		StepID:     stepID,
		Status:     model.SendStatusClaimed,
		FireAt:     fireAt,
	}
	err := r.DB.QueryRow(query, campaignID, contactID, stepID, fireAt).Scan(&send.ID, &send.ClaimedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return send, true, nil
}

func (r *StepSendRepository) GetByID(id int) (*model.StepSend, error) {
	query := `
        SELECT id, campaign_id, contact_id, step_id, status, attempts, last_error, fire_at, claimed_at, sent_at
        FROM step_sends
        WHERE id=$1
    `
	var s model.StepSend
	err := r.DB.QueryRow(query, id).Scan(
		&s.ID, &s.CampaignID, &s.ContactID, &s.StepID,
		&s.Status, &s.Attempts, &s.LastError, &s.FireAt, &s.ClaimedAt, &s.SentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StepSendRepository) ListByEnrollment(campaignID, contactID int) ([]*model.StepSend, error) {
	query := `
        SELECT id, campaign_id, contact_id, step_id, status, attempts, last_error, fire_at, claimed_at, sent_at
        FROM step_sends
        WHERE campaign_id=$1 AND contact_id=$2
    `
	rows, err := r.DB.Query(query, campaignID, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sends := []*model.StepSend{}
	for rows.Next() {
		s := &model.StepSend{}
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.ContactID, &s.StepID, &s.Status, &s.Attempts, &s.LastError, &s.FireAt, &s.ClaimedAt, &s.SentAt); err != nil {
			return nil, err
		}
		sends = append(sends, s)
	}
	return sends, rows.Err()
}

func (r *StepSendRepository) UpdateAttempt(id, attempts int, lastError string) error {
	query := `UPDATE step_sends SET attempts=$1, last_error=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, attempts, lastError, id)
	return err
}

func (r *StepSendRepository) MarkSent(id int, sentAt time.Time) error {
	query := `UPDATE step_sends SET status='sent', sent_at=$1, last_error='' WHERE id=$2`
	_, err := r.DB.Exec(query, sentAt, id)
	return err
}

func (r *StepSendRepository) MarkFailed(id, attempts int, lastError string) error {
	query := `UPDATE step_sends SET status='failed', attempts=$1, last_error=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, attempts, lastError, id)
	return err
}

// Release deletes an unsent claim. Used when the pre-dispatch re-check
// finds the campaign paused or the contact unenrolled: the row must not
// block the step from firing after reactivation.
func (r *StepSendRepository) Release(id int) error {
	_, err := r.DB.Exec(`DELETE FROM step_sends WHERE id=$1 AND status='claimed'`, id)
	return err
}

func (r *StepSendRepository) StatsByCampaign(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM step_sends WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"claimed": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ StepSendRepositoryInterface = (*StepSendRepository)(nil)
