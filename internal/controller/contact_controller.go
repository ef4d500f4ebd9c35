// internal/controller/contact_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/repository"
)

type ContactController struct {
	ContactRepo repository.ContactRepositoryInterface
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID          int    `json:"user_id"`
		Phone           string `json:"phone"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		BusinessName    string `json:"business_name"`
		ServiceCategory string `json:"service_category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Phone) == "" {
		http.Error(w, "phone must not be empty", http.StatusBadRequest)
		return
	}

	contact := &model.Contact{
		UserID:          body.UserID,
		Phone:           body.Phone,
		FirstName:       body.FirstName,
		LastName:        body.LastName,
		BusinessName:    body.BusinessName,
		ServiceCategory: body.ServiceCategory,
	}
	if err := c.ContactRepo.Create(contact); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, contact)
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(r.URL.Query().Get("user_id"))

	contacts, err := c.ContactRepo.ListByUser(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": contacts})
}
