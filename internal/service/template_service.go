// internal/service/template_service.go
package service

import (
	"regexp"

	"github.com/leadloop/drip-backend/internal/model"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes every {{key}} token with its value from data.
// Unknown keys render as empty string: a recipient must never see a raw
// token, and a degraded message beats a failed send. Pure and
// deterministic; templates without placeholders pass through unchanged.
func RenderTemplate(template string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		key := placeholderRe.FindStringSubmatch(token)[1]
		return data[key]
	})
}

// ContactContext builds the render context for a contact enrolled in a
// campaign. agentName comes from the campaign's sending agent when one is
// configured; empty otherwise.
func ContactContext(contact *model.Contact, agentName string) map[string]string {
	if contact == nil {
		return map[string]string{"agent_name": agentName}
	}
	return map[string]string{
		"first_name":       contact.FirstName,
		"last_name":        contact.LastName,
		"phone":            contact.Phone,
		"business_name":    contact.BusinessName,
		"service_category": contact.ServiceCategory,
		"agent_name":       agentName,
	}
}
