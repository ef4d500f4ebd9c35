package service_test

// In-memory fakes for the repository interfaces. They keep real-enough
// semantics (ID assignment, ordering, uniqueness) so service tests can
// assert behavior instead of call counts.

import (
	"fmt"
	"sort"
	"time"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/repository"
)

type fakeStepRepo struct {
	steps  map[int]*model.CampaignStep
	nextID int

	failBatchAt int // fail CreateBatch on the Nth insert (1-based), 0 = never
}

func newFakeStepRepo() *fakeStepRepo {
	return &fakeStepRepo{steps: map[int]*model.CampaignStep{}}
}

func (r *fakeStepRepo) Add(s *model.CampaignStep) error {
	if s.StepOrder == 0 {
		n, _ := r.CountByCampaign(s.CampaignID)
		s.StepOrder = n + 1
	}
	r.nextID++
	s.ID = r.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	copied := *s
	r.steps[s.ID] = &copied
	return nil
}

func (r *fakeStepRepo) GetByID(id int) (*model.CampaignStep, error) {
	s, ok := r.steps[id]
	if !ok {
		return nil, appErrors.NewStepNotFound(id)
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStepRepo) Update(s *model.CampaignStep) error {
	existing, ok := r.steps[s.ID]
	if !ok {
		return appErrors.NewStepNotFound(s.ID)
	}
	existing.DelayMinutes = s.DelayMinutes
	existing.MessageTemplate = s.MessageTemplate
	return nil
}

func (r *fakeStepRepo) Delete(id int) error {
	if _, ok := r.steps[id]; !ok {
		return appErrors.NewStepNotFound(id)
	}
	delete(r.steps, id)
	return nil
}

func (r *fakeStepRepo) ListByCampaign(campaignID int) ([]*model.CampaignStep, error) {
	out := []*model.CampaignStep{}
	for _, s := range r.steps {
		if s.CampaignID == campaignID {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StepOrder != out[j].StepOrder {
			return out[i].StepOrder < out[j].StepOrder
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeStepRepo) CountByCampaign(campaignID int) (int, error) {
	n := 0
	for _, s := range r.steps {
		if s.CampaignID == campaignID {
			n++
		}
	}
	return n, nil
}

func (r *fakeStepRepo) CreateBatch(steps []*model.CampaignStep) error {
	// all-or-nothing, like the SQL transaction
	added := []int{}
	for i, s := range steps {
		if r.failBatchAt > 0 && i+1 >= r.failBatchAt {
			for _, id := range added {
				delete(r.steps, id)
			}
			return fmt.Errorf("simulated insert failure at step %d", i+1)
		}
		if err := r.Add(s); err != nil {
			return err
		}
		added = append(added, s.ID)
	}
	return nil
}

type fakeCampaignRepo struct {
	campaigns map[int]*model.Campaign
	nextID    int
	stepRepo  *fakeStepRepo
}

func newFakeCampaignRepo(stepRepo *fakeStepRepo) *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: map[int]*model.Campaign{}, stepRepo: stepRepo}
}

func (r *fakeCampaignRepo) Create(c *model.Campaign) error {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	copied := *c
	r.campaigns[c.ID] = &copied
	return nil
}

func (r *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCampaignRepo) Update(c *model.Campaign) error {
	if _, ok := r.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	copied := *c
	r.campaigns[c.ID] = &copied
	return nil
}

func (r *fakeCampaignRepo) Delete(id int) error {
	if _, ok := r.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(r.campaigns, id)
	// cascade, like the SQL transaction
	for stepID, s := range r.stepRepo.steps {
		if s.CampaignID == id {
			delete(r.stepRepo.steps, stepID)
		}
	}
	return nil
}

func (r *fakeCampaignRepo) Clone(id int, name string) (*model.Campaign, error) {
	src, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	clone := &model.Campaign{
		UserID:      src.UserID,
		Name:        name,
		Description: src.Description,
		SMSAgentID:  src.SMSAgentID,
		IsActive:    false,
	}
	if err := r.Create(clone); err != nil {
		return nil, err
	}
	steps, _ := r.stepRepo.ListByCampaign(id)
	for _, s := range steps {
		copied := &model.CampaignStep{
			CampaignID:      clone.ID,
			StepOrder:       s.StepOrder,
			DelayMinutes:    s.DelayMinutes,
			MessageTemplate: s.MessageTemplate,
		}
		if err := r.stepRepo.Add(copied); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

func (r *fakeCampaignRepo) ListByUser(userID int) ([]*repository.CampaignSummary, error) {
	out := []*repository.CampaignSummary{}
	for _, c := range r.campaigns {
		if c.UserID != userID {
			continue
		}
		n, _ := r.stepRepo.CountByCampaign(c.ID)
		out = append(out, &repository.CampaignSummary{Campaign: *c, StepCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type fakeContactRepo struct {
	contacts map[int]*model.Contact
	nextID   int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[int]*model.Contact{}}
}

func (r *fakeContactRepo) Create(c *model.Contact) error {
	r.nextID++
	c.ID = r.nextID
	copied := *c
	r.contacts[c.ID] = &copied
	return nil
}

func (r *fakeContactRepo) GetByID(id int) (*model.Contact, error) {
	c, ok := r.contacts[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeContactRepo) ListByUser(userID int) ([]model.Contact, error) {
	out := []model.Contact{}
	for _, c := range r.contacts {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeEnrollRepo struct {
	enrollments map[int]*model.Enrollment
	nextID      int
}

func newFakeEnrollRepo() *fakeEnrollRepo {
	return &fakeEnrollRepo{enrollments: map[int]*model.Enrollment{}}
}

func (r *fakeEnrollRepo) Enroll(campaignID, contactID int, nextFireAt time.Time) (*model.Enrollment, bool, error) {
	for _, e := range r.enrollments {
		if e.CampaignID == campaignID && e.ContactID == contactID {
			copied := *e
			return &copied, false, nil
		}
	}
	r.nextID++
	fire := nextFireAt
	e := &model.Enrollment{
		ID:         r.nextID,
		CampaignID: campaignID,
		ContactID:  contactID,
		Status:     model.EnrollmentActive,
		NextFireAt: &fire,
		EnrolledAt: time.Now(),
	}
	r.enrollments[e.ID] = e
	copied := *e
	return &copied, true, nil
}

func (r *fakeEnrollRepo) Get(campaignID, contactID int) (*model.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.CampaignID == campaignID && e.ContactID == contactID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEnrollRepo) GetByID(id int) (*model.Enrollment, error) {
	e, ok := r.enrollments[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEnrollRepo) UpdateStatus(id int, status string) error {
	if e, ok := r.enrollments[id]; ok {
		e.Status = status
	}
	return nil
}

func (r *fakeEnrollRepo) SetNextFireAt(id int, t *time.Time) error {
	if e, ok := r.enrollments[id]; ok {
		e.NextFireAt = t
	}
	return nil
}

func (r *fakeEnrollRepo) Due(limit int, now time.Time) ([]*model.Enrollment, error) {
	out := []*model.Enrollment{}
	for _, e := range r.enrollments {
		if e.Status == model.EnrollmentActive && e.NextFireAt != nil && !e.NextFireAt.After(now) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeSendRepo struct {
	sends  map[int]*model.StepSend
	nextID int
}

func newFakeSendRepo() *fakeSendRepo {
	return &fakeSendRepo{sends: map[int]*model.StepSend{}}
}

func (r *fakeSendRepo) Claim(campaignID, contactID, stepID int, fireAt time.Time) (*model.StepSend, bool, error) {
	for _, s := range r.sends {
		if s.CampaignID == campaignID && s.ContactID == contactID && s.StepID == stepID {
			return nil, false, nil
		}
	}
	r.nextID++
	s := &model.StepSend{
		ID:         r.nextID,
		CampaignID: campaignID,
		ContactID:  contactID,
		StepID:     stepID,
		Status:     model.SendStatusClaimed,
		FireAt:     fireAt,
		ClaimedAt:  time.Now(),
	}
	r.sends[s.ID] = s
	copied := *s
	return &copied, true, nil
}

func (r *fakeSendRepo) GetByID(id int) (*model.StepSend, error) {
	s, ok := r.sends[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSendRepo) ListByEnrollment(campaignID, contactID int) ([]*model.StepSend, error) {
	out := []*model.StepSend{}
	for _, s := range r.sends {
		if s.CampaignID == campaignID && s.ContactID == contactID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSendRepo) UpdateAttempt(id, attempts int, lastError string) error {
	if s, ok := r.sends[id]; ok {
		s.Attempts = attempts
		s.LastError = lastError
	}
	return nil
}

func (r *fakeSendRepo) MarkSent(id int, sentAt time.Time) error {
	if s, ok := r.sends[id]; ok {
		s.Status = model.SendStatusSent
		at := sentAt
		s.SentAt = &at
	}
	return nil
}

func (r *fakeSendRepo) MarkFailed(id, attempts int, lastError string) error {
	if s, ok := r.sends[id]; ok {
		s.Status = model.SendStatusFailed
		s.Attempts = attempts
		s.LastError = lastError
	}
	return nil
}

func (r *fakeSendRepo) Release(id int) error {
	if s, ok := r.sends[id]; ok && s.Status == model.SendStatusClaimed {
		delete(r.sends, id)
	}
	return nil
}

func (r *fakeSendRepo) StatsByCampaign(campaignID int) (map[string]int, error) {
	stats := map[string]int{"claimed": 0, "sent": 0, "failed": 0}
	for _, s := range r.sends {
		if s.CampaignID == campaignID {
			stats[s.Status]++
		}
	}
	return stats, nil
}

// compile-time interface checks
var (
	_ repository.CampaignRepositoryInterface   = (*fakeCampaignRepo)(nil)
	_ repository.StepRepositoryInterface       = (*fakeStepRepo)(nil)
	_ repository.ContactRepositoryInterface    = (*fakeContactRepo)(nil)
	_ repository.EnrollmentRepositoryInterface = (*fakeEnrollRepo)(nil)
	_ repository.StepSendRepositoryInterface   = (*fakeSendRepo)(nil)
)
