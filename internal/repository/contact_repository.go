package repository

import (
	"database/sql"
	"time"

	"github.com/leadloop/drip-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by services
type ContactRepositoryInterface interface {
	Create(c *model.Contact) error
	GetByID(id int) (*model.Contact, error)
	ListByUser(userID int) ([]model.Contact, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

func (r *ContactRepository) Create(c *model.Contact) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO contacts (user_id, phone, first_name, last_name, business_name, service_category, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.UserID, c.Phone, c.FirstName, c.LastName, c.BusinessName, c.ServiceCategory, c.CreatedAt).Scan(&c.ID)
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(id int) (*model.Contact, error) {
	query := `
        SELECT id, user_id, phone, first_name, last_name, business_name, service_category, created_at
        FROM contacts
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var c model.Contact
	if err := row.Scan(&c.ID, &c.UserID, &c.Phone, &c.FirstName, &c.LastName, &c.BusinessName, &c.ServiceCategory, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ListByUser(userID int) ([]model.Contact, error) {
	query := `
        SELECT id, user_id, phone, first_name, last_name, business_name, service_category, created_at
        FROM contacts
        WHERE user_id = $1
        ORDER BY id
    `
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Phone, &c.FirstName, &c.LastName, &c.BusinessName, &c.ServiceCategory, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
