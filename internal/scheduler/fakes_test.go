package scheduler_test

// Mutex-guarded in-memory fakes: the at-most-once test runs racing
// schedulers against the same stores.

import (
	"errors"
	"sort"
	"sync"
	"time"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/repository"
)

type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{campaigns: map[int]*model.Campaign{}}
}

func (r *memCampaignRepo) put(c *model.Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.campaigns[c.ID] = &copied
}

func (r *memCampaignRepo) setActive(id int, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.IsActive = active
	}
}

func (r *memCampaignRepo) Create(c *model.Campaign) error { r.put(c); return nil }

func (r *memCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (r *memCampaignRepo) Update(c *model.Campaign) error { r.put(c); return nil }
func (r *memCampaignRepo) Delete(id int) error            { return nil }
func (r *memCampaignRepo) Clone(id int, name string) (*model.Campaign, error) {
	return nil, nil
}
func (r *memCampaignRepo) ListByUser(userID int) ([]*repository.CampaignSummary, error) {
	return nil, nil
}

type memStepRepo struct {
	mu    sync.Mutex
	steps map[int]*model.CampaignStep
}

func newMemStepRepo() *memStepRepo {
	return &memStepRepo{steps: map[int]*model.CampaignStep{}}
}

func (r *memStepRepo) put(s *model.CampaignStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.steps[s.ID] = &copied
}

func (r *memStepRepo) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.steps, id)
}

func (r *memStepRepo) Add(s *model.CampaignStep) error { r.put(s); return nil }

func (r *memStepRepo) GetByID(id int) (*model.CampaignStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.steps[id]
	if !ok {
		return nil, appErrors.NewStepNotFound(id)
	}
	copied := *s
	return &copied, nil
}

func (r *memStepRepo) Update(s *model.CampaignStep) error { return nil }
func (r *memStepRepo) Delete(id int) error                { r.remove(id); return nil }

func (r *memStepRepo) ListByCampaign(campaignID int) ([]*model.CampaignStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.CampaignStep{}
	for _, s := range r.steps {
		if s.CampaignID == campaignID {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (r *memStepRepo) CountByCampaign(campaignID int) (int, error) {
	steps, _ := r.ListByCampaign(campaignID)
	return len(steps), nil
}

func (r *memStepRepo) CreateBatch(steps []*model.CampaignStep) error {
	for _, s := range steps {
		r.put(s)
	}
	return nil
}

type memContactRepo struct {
	mu       sync.Mutex
	contacts map[int]*model.Contact
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{contacts: map[int]*model.Contact{}}
}

func (r *memContactRepo) Create(c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.contacts[c.ID] = &copied
	return nil
}

func (r *memContactRepo) GetByID(id int) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *memContactRepo) ListByUser(userID int) ([]model.Contact, error) { return nil, nil }

type memEnrollRepo struct {
	mu          sync.Mutex
	enrollments map[int]*model.Enrollment
}

func newMemEnrollRepo() *memEnrollRepo {
	return &memEnrollRepo{enrollments: map[int]*model.Enrollment{}}
}

func (r *memEnrollRepo) put(e *model.Enrollment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.enrollments[e.ID] = &copied
}

func (r *memEnrollRepo) Enroll(campaignID, contactID int, nextFireAt time.Time) (*model.Enrollment, bool, error) {
	return nil, false, nil
}

func (r *memEnrollRepo) Get(campaignID, contactID int) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enrollments {
		if e.CampaignID == campaignID && e.ContactID == contactID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memEnrollRepo) GetByID(id int) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *memEnrollRepo) UpdateStatus(id int, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.enrollments[id]; ok {
		e.Status = status
	}
	return nil
}

func (r *memEnrollRepo) SetNextFireAt(id int, t *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.enrollments[id]; ok {
		if t == nil {
			e.NextFireAt = nil
		} else {
			copied := *t
			e.NextFireAt = &copied
		}
	}
	return nil
}

func (r *memEnrollRepo) Due(limit int, now time.Time) ([]*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Enrollment{}
	for _, e := range r.enrollments {
		if e.Status == model.EnrollmentActive && e.NextFireAt != nil && !e.NextFireAt.After(now) {
			copied := *e
			out = append(out, &copied)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type memSendRepo struct {
	mu     sync.Mutex
	sends  map[int]*model.StepSend
	nextID int
}

func newMemSendRepo() *memSendRepo {
	return &memSendRepo{sends: map[int]*model.StepSend{}}
}

func (r *memSendRepo) Claim(campaignID, contactID, stepID int, fireAt time.Time) (*model.StepSend, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *memSendRepo) GetByID(id int) (*model.StepSend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sends[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memSendRepo) ListByEnrollment(campaignID, contactID int) ([]*model.StepSend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.StepSend{}
	for _, s := range r.sends {
		if s.CampaignID == campaignID && s.ContactID == contactID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memSendRepo) UpdateAttempt(id, attempts int, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sends[id]; ok {
		s.Attempts = attempts
		s.LastError = lastError
	}
	return nil
}

func (r *memSendRepo) MarkSent(id int, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sends[id]; ok {
		s.Status = model.SendStatusSent
		at := sentAt
		s.SentAt = &at
	}
	return nil
}

func (r *memSendRepo) MarkFailed(id, attempts int, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sends[id]; ok {
		s.Status = model.SendStatusFailed
		s.Attempts = attempts
		s.LastError = lastError
	}
	return nil
}

func (r *memSendRepo) Release(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sends[id]; ok && s.Status == model.SendStatusClaimed {
		delete(r.sends, id)
	}
	return nil
}

func (r *memSendRepo) StatsByCampaign(campaignID int) (map[string]int, error) {
	return nil, nil
}

// recordQueue captures published jobs.
type recordQueue struct {
	mu        sync.Mutex
	published [][]byte
}

func (q *recordQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, body)
	return nil
}

func (q *recordQueue) Subscribe(topic string, handler func(body []byte) error) error { return nil }
func (q *recordQueue) Close() error                                                  { return nil }

func (q *recordQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.published)
}

type failingQueue struct{}

func (q *failingQueue) Publish(topic string, body []byte) error {
	return errBrokerDown
}
func (q *failingQueue) Subscribe(topic string, handler func(body []byte) error) error { return nil }
func (q *failingQueue) Close() error                                                  { return nil }

var errBrokerDown = errors.New("broker down")

var (
	_ repository.CampaignRepositoryInterface   = (*memCampaignRepo)(nil)
	_ repository.StepRepositoryInterface       = (*memStepRepo)(nil)
	_ repository.ContactRepositoryInterface    = (*memContactRepo)(nil)
	_ repository.EnrollmentRepositoryInterface = (*memEnrollRepo)(nil)
	_ repository.StepSendRepositoryInterface   = (*memSendRepo)(nil)
)
