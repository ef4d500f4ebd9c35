// Package scheduler is the campaign executor: the scheduler claims due
// steps and publishes dispatch jobs; the dispatcher renders and sends
// them. At-most-once per (campaign, contact, step) rests on the
// step_sends unique constraint, not on any in-process state.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/leadloop/drip-backend/internal/distlock"
	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/queue"
	"github.com/leadloop/drip-backend/internal/repository"
)

// TopicStepSends is the queue topic carrying dispatch jobs.
const TopicStepSends = "step_sends"

// DispatchJob is the queue payload: a claimed step_sends row to deliver.
type DispatchJob struct {
	StepSendID int `json:"step_send_id"`
}

type Scheduler struct {
	EnrollRepo repository.EnrollmentRepositoryInterface
	StepRepo   repository.StepRepositoryInterface
	SendRepo   repository.StepSendRepositoryInterface
	Queue      queue.Queue

	// Lock is the optional scheduler lease. Claiming is already safe
	// under concurrent schedulers; the lease only avoids duplicate polls.
	Lock distlock.DistLock

	PollInterval time.Duration
	BatchSize    int
	Now          func() time.Time

	workerID string

	totalScheduled int64
	totalErrors    int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewScheduler(enrollRepo repository.EnrollmentRepositoryInterface, stepRepo repository.StepRepositoryInterface, sendRepo repository.StepSendRepositoryInterface, q queue.Queue) *Scheduler {
	return &Scheduler{
		EnrollRepo:   enrollRepo,
		StepRepo:     stepRepo,
		SendRepo:     sendRepo,
		Queue:        q,
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		workerID:     fmt.Sprintf("scheduler-%s", uuid.New().String()[:8]),
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start begins the poll loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	log.Printf("scheduler %s: starting, polling every %s", s.workerID, s.PollInterval)

	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the loop and waits for the in-flight cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("scheduler %s: stopped. scheduled=%d errors=%d",
		s.workerID, atomic.LoadInt64(&s.totalScheduled), atomic.LoadInt64(&s.totalErrors))
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(s.ctx)
		}
	}
}

// RunCycle performs one scheduling pass: take the lease, fetch due
// enrollments, claim and publish the next step of each.
func (s *Scheduler) RunCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if s.Lock != nil {
		acquired, err := s.Lock.Acquire(cycleCtx)
		if err != nil {
			log.Printf("scheduler %s: lease error: %v", s.workerID, err)
			return
		}
		if !acquired {
			return
		}
		defer s.Lock.Release(cycleCtx)
	}

	due, err := s.EnrollRepo.Due(s.BatchSize, s.now())
	if err != nil {
		atomic.AddInt64(&s.totalErrors, 1)
		log.Printf("scheduler %s: fetching due enrollments: %v", s.workerID, err)
		return
	}

	for _, e := range due {
		if err := s.schedule(e); err != nil {
			atomic.AddInt64(&s.totalErrors, 1)
			log.Printf("scheduler %s: enrollment %d: %v", s.workerID, e.ID, err)
		}
	}
}

// schedule finds the enrollment's next unsent step, claims it and
// publishes a dispatch job. Steps are walked in step_order; gaps from
// deleted steps are fine, only the relative order matters.
func (s *Scheduler) schedule(e *model.Enrollment) error {
	steps, err := s.StepRepo.ListByCampaign(e.CampaignID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return s.EnrollRepo.UpdateStatus(e.ID, model.EnrollmentCompleted)
	}

	sends, err := s.SendRepo.ListByEnrollment(e.CampaignID, e.ContactID)
	if err != nil {
		return err
	}
	byStep := make(map[int]*model.StepSend, len(sends))
	for _, send := range sends {
		byStep[send.StepID] = send
	}

	var next *model.CampaignStep
	for _, step := range steps {
		send, ok := byStep[step.ID]
		if !ok {
			next = step
			break
		}
		switch send.Status {
		case model.SendStatusSent:
			continue
		case model.SendStatusClaimed:
			// In flight; its dispatcher advances the clock.
			return nil
		case model.SendStatusFailed:
			// Never advance past a failed step.
			return s.EnrollRepo.UpdateStatus(e.ID, model.EnrollmentFailed)
		}
	}
	if next == nil {
		return s.EnrollRepo.UpdateStatus(e.ID, model.EnrollmentCompleted)
	}

	fireAt := s.now()
	if e.NextFireAt != nil {
		fireAt = *e.NextFireAt
	}

	// The claim carries the fire-time it was scheduled for; a released
	// claim restores it so the enrollment never loses its clock.
	claim, ok, err := s.SendRepo.Claim(e.CampaignID, e.ContactID, next.ID, fireAt)
	if err != nil {
		return err
	}
	if !ok {
		// Another worker won the race; exactly one send happens.
		return nil
	}

	body, err := json.Marshal(DispatchJob{StepSendID: claim.ID})
	if err != nil {
		return err
	}

	// Clear the clock before the job can land anywhere. A fast consumer
	// may finish the whole dispatch before Publish returns; advancing
	// must not race against a stale fire-time.
	if err := s.EnrollRepo.SetNextFireAt(e.ID, nil); err != nil {
		if relErr := s.SendRepo.Release(claim.ID); relErr != nil {
			log.Printf("scheduler %s: releasing claim %d: %v", s.workerID, claim.ID, relErr)
		}
		return err
	}

	if err := s.Queue.Publish(TopicStepSends, body); err != nil {
		// The job never left; drop the claim and put the clock back so
		// the step stays eligible next cycle.
		if relErr := s.SendRepo.Release(claim.ID); relErr != nil {
			log.Printf("scheduler %s: releasing claim %d: %v", s.workerID, claim.ID, relErr)
		}
		if restoreErr := s.EnrollRepo.SetNextFireAt(e.ID, &fireAt); restoreErr != nil {
			log.Printf("scheduler %s: restoring fire-time for enrollment %d: %v", s.workerID, e.ID, restoreErr)
		}
		return err
	}

	atomic.AddInt64(&s.totalScheduled, 1)
	return nil
}
