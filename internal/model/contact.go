// internal/model/contact.go
package model

import "time"

type Contact struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"user_id"`
	Phone           string    `db:"phone" json:"phone"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	BusinessName    string    `db:"business_name" json:"business_name"`
	ServiceCategory string    `db:"service_category" json:"service_category"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
