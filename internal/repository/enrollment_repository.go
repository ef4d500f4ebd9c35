package repository

import (
	"database/sql"
	"time"

	"github.com/leadloop/drip-backend/internal/model"
)

type EnrollmentRepositoryInterface interface {
	Enroll(campaignID, contactID int, nextFireAt time.Time) (*model.Enrollment, bool, error)
	Get(campaignID, contactID int) (*model.Enrollment, error)
	GetByID(id int) (*model.Enrollment, error)
	UpdateStatus(id int, status string) error
	SetNextFireAt(id int, t *time.Time) error
	Due(limit int, now time.Time) ([]*model.Enrollment, error)
}

type EnrollmentRepository struct {
	DB *sql.DB
}

// Enroll inserts the enrollment or returns the existing one; enrolling a
// contact twice into the same campaign is a no-op. The bool reports
// whether a new row was created.
func (r *EnrollmentRepository) Enroll(campaignID, contactID int, nextFireAt time.Time) (*model.Enrollment, bool, error) {
	query := `
        INSERT INTO enrollments (campaign_id, contact_id, status, next_fire_at, enrolled_at, updated_at)
        VALUES ($1, $2, 'active', $3, NOW(), NOW())
        ON CONFLICT (campaign_id, contact_id) DO NOTHING
        RETURNING id, status, next_fire_at, enrolled_at, updated_at
    `
	e := &model.Enrollment{CampaignID: campaignID, ContactID: contactID}
	err := r.DB.QueryRow(query, campaignID, contactID, nextFireAt).Scan(&e.ID, &e.Status, &e.NextFireAt, &e.EnrolledAt, &e.UpdatedAt)
	if err == nil {
		return e, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	existing, err := r.Get(campaignID, contactID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *EnrollmentRepository) Get(campaignID, contactID int) (*model.Enrollment, error) {
	query := `
        SELECT id, campaign_id, contact_id, status, next_fire_at, enrolled_at, updated_at
        FROM enrollments
        WHERE campaign_id=$1 AND contact_id=$2
    `
	var e model.Enrollment
	err := r.DB.QueryRow(query, campaignID, contactID).Scan(&e.ID, &e.CampaignID, &e.ContactID, &e.Status, &e.NextFireAt, &e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) GetByID(id int) (*model.Enrollment, error) {
	query := `
        SELECT id, campaign_id, contact_id, status, next_fire_at, enrolled_at, updated_at
        FROM enrollments
        WHERE id=$1
    `
	var e model.Enrollment
	err := r.DB.QueryRow(query, id).Scan(&e.ID, &e.CampaignID, &e.ContactID, &e.Status, &e.NextFireAt, &e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) UpdateStatus(id int, status string) error {
	query := `UPDATE enrollments SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

func (r *EnrollmentRepository) SetNextFireAt(id int, t *time.Time) error {
	query := `UPDATE enrollments SET next_fire_at=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, t, id)
	return err
}

// Due returns active enrollments of active campaigns whose fire-time has
// arrived. Deactivating a campaign drops its enrollments out of this
// query without touching their rows, so reactivation resumes on the
// originally computed schedule. At-most-once is not this query's job:
// the step_sends claim insert arbitrates racing workers.
func (r *EnrollmentRepository) Due(limit int, now time.Time) ([]*model.Enrollment, error) {
	query := `
        SELECT e.id, e.campaign_id, e.contact_id, e.status, e.next_fire_at, e.enrolled_at, e.updated_at
        FROM enrollments e
        JOIN campaigns c ON c.id = e.campaign_id
        WHERE e.status = 'active'
          AND c.is_active = TRUE
          AND e.next_fire_at IS NOT NULL
          AND e.next_fire_at <= $1
        ORDER BY e.next_fire_at ASC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := []*model.Enrollment{}
	for rows.Next() {
		e := &model.Enrollment{}
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.ContactID, &e.Status, &e.NextFireAt, &e.EnrolledAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

var _ EnrollmentRepositoryInterface = (*EnrollmentRepository)(nil)
