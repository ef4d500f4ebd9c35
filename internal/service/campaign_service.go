// internal/service/campaign_service.go
package service

import (
	"log"
	"strings"
	"time"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/preset"
	"github.com/leadloop/drip-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	StepRepo     repository.StepRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	EnrollRepo   repository.EnrollmentRepositoryInterface
	SendRepo     repository.StepSendRepositoryInterface

	// AgentNameResolver maps an sms_agent_id to the agent's display name
	// for {{agent_name}}. The agent platform is external; when unset the
	// placeholder renders blank.
	AgentNameResolver func(agentID int) string

	// Now is swappable for tests.
	Now func() time.Time
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CampaignView is a campaign plus its derived display fields.
type CampaignView struct {
	model.Campaign
	StepCount int    `json:"step_count"`
	Status    string `json:"status"`
}

type CampaignDetails struct {
	CampaignView
	Steps []*model.CampaignStep `json:"steps"`
	Stats map[string]int        `json:"stats"`
}

// CampaignUpdate carries a partial edit; nil fields stay unchanged.
type CampaignUpdate struct {
	Name        *string
	Description *string
	SMSAgentID  *int
	IsActive    *bool
}

func (s *CampaignService) CreateCampaign(userID int, name, description string, smsAgentID *int, presetKey string) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, appErrors.NewValidation("name", "must not be empty")
	}

	var seed *preset.Preset
	if presetKey != "" {
		p, ok := preset.ByKey(presetKey)
		if !ok {
			return nil, appErrors.NewValidation("preset", "unknown preset '"+presetKey+"'")
		}
		seed = &p
	}

	c := &model.Campaign{
		UserID:      userID,
		Name:        name,
		Description: description,
		SMSAgentID:  smsAgentID,
		IsActive:    false,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}

	if seed != nil {
		if err := s.materializePreset(*seed, c.ID); err != nil {
			// Steps roll back as a batch; the empty campaign remains
			// inspectable. Surface the failure, don't swallow it.
			log.Println("⚠️ preset materialization failed for campaign", c.ID, ":", err)
			return nil, err
		}
	}

	return c, nil
}

// materializePreset copies the preset's entries into steps 1..N. The
// batch insert is transactional: a failure leaves zero steps behind.
func (s *CampaignService) materializePreset(p preset.Preset, campaignID int) error {
	steps := make([]*model.CampaignStep, len(p.Steps))
	for i, entry := range p.Steps {
		steps[i] = &model.CampaignStep{
			CampaignID:      campaignID,
			StepOrder:       i + 1,
			DelayMinutes:    entry.DelayMinutes,
			MessageTemplate: entry.MessageTemplate,
		}
	}
	return s.StepRepo.CreateBatch(steps)
}

func (s *CampaignService) UpdateCampaign(id int, upd CampaignUpdate) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, appErrors.NewValidation("name", "must not be empty")
		}
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.SMSAgentID != nil {
		c.SMSAgentID = upd.SMSAgentID
	}
	if upd.IsActive != nil {
		c.IsActive = *upd.IsActive
	}

	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) DeleteCampaign(id int) error {
	return s.CampaignRepo.Delete(id)
}

// CloneCampaign copies the campaign and its steps verbatim under
// "<name> (Copy)". Clones never start active, whatever the source was.
func (s *CampaignService) CloneCampaign(id int) (*model.Campaign, error) {
	src, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.CampaignRepo.Clone(id, src.Name+" (Copy)")
}

func (s *CampaignService) ListCampaigns(userID int) ([]CampaignView, error) {
	summaries, err := s.CampaignRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	views := make([]CampaignView, len(summaries))
	for i, sum := range summaries {
		views[i] = CampaignView{
			Campaign:  sum.Campaign,
			StepCount: sum.StepCount,
			Status:    sum.Campaign.DerivedStatus(sum.StepCount),
		}
	}
	return views, nil
}

func (s *CampaignService) GetCampaignDetails(id int) (*CampaignDetails, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	steps, err := s.StepRepo.ListByCampaign(id)
	if err != nil {
		return nil, err
	}

	stats, err := s.SendRepo.StatsByCampaign(id)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		CampaignView: CampaignView{
			Campaign:  *c,
			StepCount: len(steps),
			Status:    c.DerivedStatus(len(steps)),
		},
		Steps: steps,
		Stats: stats,
	}, nil
}

// ====================== Steps ======================

func (s *CampaignService) AddStep(campaignID, delayMinutes int, template string, stepOrder int) (*model.CampaignStep, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(template) == "" {
		return nil, appErrors.NewValidation("message_template", "must not be empty")
	}
	if delayMinutes < 0 {
		return nil, appErrors.NewValidation("delay_minutes", "must not be negative")
	}
	if stepOrder < 0 {
		return nil, appErrors.NewValidation("step_order", "must be positive")
	}

	step := &model.CampaignStep{
		CampaignID:      campaignID,
		StepOrder:       stepOrder, // 0 = append; repo assigns count+1
		DelayMinutes:    delayMinutes,
		MessageTemplate: template,
	}
	if err := s.StepRepo.Add(step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *CampaignService) UpdateStep(stepID int, delayMinutes *int, template *string) (*model.CampaignStep, error) {
	step, err := s.StepRepo.GetByID(stepID)
	if err != nil {
		return nil, err
	}

	if delayMinutes != nil {
		if *delayMinutes < 0 {
			return nil, appErrors.NewValidation("delay_minutes", "must not be negative")
		}
		step.DelayMinutes = *delayMinutes
	}
	if template != nil {
		if strings.TrimSpace(*template) == "" {
			return nil, appErrors.NewValidation("message_template", "must not be empty")
		}
		step.MessageTemplate = *template
	}

	if err := s.StepRepo.Update(step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *CampaignService) DeleteStep(stepID int) error {
	return s.StepRepo.Delete(stepID)
}

func (s *CampaignService) ListSteps(campaignID int) ([]*model.CampaignStep, error) {
	return s.StepRepo.ListByCampaign(campaignID)
}

// ====================== Preview ======================

// RenderPreview renders a step template (or an override) against a real
// contact, exactly the way the dispatcher will at send time.
func (s *CampaignService) RenderPreview(campaignID, contactID int, overrideTemplate *string) (string, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return "", err
	}

	contact, err := s.ContactRepo.GetByID(contactID)
	if err != nil {
		return "", err
	}
	if contact == nil {
		return "", appErrors.NewContactNotFound(contactID)
	}

	var template string
	if overrideTemplate != nil && strings.TrimSpace(*overrideTemplate) != "" {
		template = *overrideTemplate
	} else {
		steps, err := s.StepRepo.ListByCampaign(campaignID)
		if err != nil {
			return "", err
		}
		if len(steps) == 0 {
			return "", appErrors.NewValidation("campaign", "has no steps to preview")
		}
		template = steps[0].MessageTemplate
	}

	return RenderTemplate(template, ContactContext(contact, s.agentName(campaign))), nil
}

func (s *CampaignService) agentName(c *model.Campaign) string {
	if c.SMSAgentID == nil || s.AgentNameResolver == nil {
		return ""
	}
	return s.AgentNameResolver(*c.SMSAgentID)
}

// ====================== Enrollment ======================

type EnrollResult struct {
	CampaignID int   `json:"campaign_id"`
	Enrolled   []int `json:"enrolled"`
	Skipped    []int `json:"skipped"`
}

// Enroll starts the drip sequence for each contact. The first step's
// fire-time is enrollment time plus that step's own delay. Re-enrolling
// an already enrolled contact is a no-op (reported in Skipped).
func (s *CampaignService) Enroll(campaignID int, contactIDs []int) (*EnrollResult, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return nil, err
	}

	steps, err := s.StepRepo.ListByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, appErrors.NewValidation("campaign", "has no steps; add steps before enrolling contacts")
	}

	firstFire := s.now().Add(time.Duration(steps[0].DelayMinutes) * time.Minute)

	result := &EnrollResult{CampaignID: campaignID, Enrolled: []int{}, Skipped: []int{}}
	for _, contactID := range contactIDs {
		contact, err := s.ContactRepo.GetByID(contactID)
		if err != nil {
			return nil, err
		}
		if contact == nil {
			result.Skipped = append(result.Skipped, contactID)
			continue
		}

		_, created, err := s.EnrollRepo.Enroll(campaignID, contactID, firstFire)
		if err != nil {
			log.Println("⚠️ failed to enroll contact", contactID, ":", err)
			result.Skipped = append(result.Skipped, contactID)
			continue
		}
		if created {
			result.Enrolled = append(result.Enrolled, contactID)
		} else {
			result.Skipped = append(result.Skipped, contactID)
		}
	}
	return result, nil
}

// Unenroll cancels a contact's remaining steps. Already-sent steps stay
// in the ledger.
func (s *CampaignService) Unenroll(campaignID, contactID int) error {
	e, err := s.EnrollRepo.Get(campaignID, contactID)
	if err != nil {
		return err
	}
	if e == nil {
		return appErrors.NewContactNotFound(contactID)
	}
	if e.Status != model.EnrollmentActive {
		return nil
	}
	return s.EnrollRepo.UpdateStatus(e.ID, model.EnrollmentCancelled)
}
