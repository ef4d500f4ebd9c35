package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	appErrors "github.com/leadloop/drip-backend/internal/errors"
	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/queue"
	"github.com/leadloop/drip-backend/internal/repository"
	"github.com/leadloop/drip-backend/internal/service"
	"github.com/leadloop/drip-backend/internal/sms"
)

// Dispatcher consumes dispatch jobs: re-checks campaign and enrollment
// state immediately before sending, renders the template, sends with
// bounded retries and records the outcome against the claim.
type Dispatcher struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	StepRepo     repository.StepRepositoryInterface
	EnrollRepo   repository.EnrollmentRepositoryInterface
	SendRepo     repository.StepSendRepositoryInterface

	Sender sms.Sender
	Queue  queue.Queue

	MaxAttempts int
	SendTimeout time.Duration
	// Backoff returns the wait before retry n (1-based). Swappable so
	// tests don't sleep.
	Backoff func(attempt int) time.Duration

	AgentNameResolver func(agentID int) string
	Now               func() time.Time
}

func NewDispatcher(campaignRepo repository.CampaignRepositoryInterface, contactRepo repository.ContactRepositoryInterface, stepRepo repository.StepRepositoryInterface, enrollRepo repository.EnrollmentRepositoryInterface, sendRepo repository.StepSendRepositoryInterface, sender sms.Sender, q queue.Queue) *Dispatcher {
	return &Dispatcher{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		StepRepo:     stepRepo,
		EnrollRepo:   enrollRepo,
		SendRepo:     sendRepo,
		Sender:       sender,
		Queue:        q,
		MaxAttempts:  3,
		SendTimeout:  10 * time.Second,
	}
}

// Start subscribes to the dispatch topic.
func (d *Dispatcher) Start() error {
	return d.Queue.Subscribe(TopicStepSends, d.HandleJob)
}

func (d *Dispatcher) HandleJob(body []byte) error {
	var job DispatchJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.Println("⚠️ invalid dispatch job, dropping:", err)
		return nil
	}
	return d.Dispatch(job.StepSendID)
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// backoff doubles per retry: 500ms, 1s, 2s, ...
func (d *Dispatcher) backoff(attempt int) time.Duration {
	if d.Backoff != nil {
		return d.Backoff(attempt)
	}
	return 500 * time.Millisecond << (attempt - 1)
}

// Dispatch delivers one claimed step send. A non-nil return means an
// infrastructure error: the job is redelivered and, because the claim
// row persists, never sent twice. Send failures are terminal here and
// return nil.
func (d *Dispatcher) Dispatch(stepSendID int) error {
	send, err := d.SendRepo.GetByID(stepSendID)
	if err != nil {
		return err
	}
	if send == nil {
		// Claim released or campaign deleted since scheduling.
		return nil
	}
	if send.Status == model.SendStatusSent {
		// Crash recovery: the send landed but the clock may not have
		// advanced before the previous worker died.
		return d.advance(send, send.SentAt)
	}
	if send.Status != model.SendStatusClaimed {
		return nil
	}

	campaign, err := d.CampaignRepo.GetByID(send.CampaignID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	enrollment, err := d.EnrollRepo.Get(send.CampaignID, send.ContactID)
	if err != nil {
		return err
	}

	// Deactivation/unenrollment check right before dispatch, not just at
	// scheduling time. Releasing the claim keeps the step eligible after
	// reactivation, still on its originally computed fire-time. The clock
	// was cleared when the job was published, so it must be put back
	// before the claim goes away or the enrollment is stranded.
	if !campaign.IsActive || enrollment == nil || enrollment.Status != model.EnrollmentActive {
		if enrollment != nil {
			fire := send.FireAt
			if err := d.EnrollRepo.SetNextFireAt(enrollment.ID, &fire); err != nil {
				return err
			}
		}
		return d.SendRepo.Release(send.ID)
	}

	step, err := d.StepRepo.GetByID(send.StepID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			// Step deleted mid-flight: drop the claim and let the
			// scheduler pick the next surviving step immediately.
			if err := d.SendRepo.Release(send.ID); err != nil {
				return err
			}
			fire := d.now()
			return d.EnrollRepo.SetNextFireAt(enrollment.ID, &fire)
		}
		return err
	}

	contact, err := d.ContactRepo.GetByID(send.ContactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return d.fail(send, enrollment, send.Attempts, "contact no longer exists")
	}

	agentName := ""
	if campaign.SMSAgentID != nil && d.AgentNameResolver != nil {
		agentName = d.AgentNameResolver(*campaign.SMSAgentID)
	}
	text := service.RenderTemplate(step.MessageTemplate, service.ContactContext(contact, agentName))

	// Attempts persist across worker restarts; resume counting. A
	// redelivery that arrives with the budget already spent (crash
	// between the last UpdateAttempt and MarkFailed) fails straight away
	// with the recorded error.
	attempts := send.Attempts
	if attempts >= d.MaxAttempts {
		return d.fail(send, enrollment, attempts, send.LastError)
	}
	var lastErr error
	for attempts < d.MaxAttempts {
		attempts++

		ctx, cancel := context.WithTimeout(context.Background(), d.SendTimeout)
		sendErr := d.Sender.Send(ctx, contact.Phone, text)
		cancel()

		if sendErr == nil {
			sentAt := d.now()
			if err := d.SendRepo.MarkSent(send.ID, sentAt); err != nil {
				return err
			}
			return d.advance(send, &sentAt)
		}

		lastErr = sendErr
		if err := d.SendRepo.UpdateAttempt(send.ID, attempts, sendErr.Error()); err != nil {
			return err
		}
		if !appErrors.IsTransientDispatch(sendErr) {
			break
		}
		if attempts < d.MaxAttempts {
			time.Sleep(d.backoff(attempts))
		}
	}

	return d.fail(send, enrollment, attempts, lastErr.Error())
}

// fail marks the claim failed and halts the enrollment. Remaining steps
// never fire past a failed one: missing a message beats silently
// skipping ahead.
func (d *Dispatcher) fail(send *model.StepSend, enrollment *model.Enrollment, attempts int, reason string) error {
	if err := d.SendRepo.MarkFailed(send.ID, attempts, reason); err != nil {
		return err
	}
	log.Printf("dispatch failed permanently: campaign=%d contact=%d step=%d: %s",
		send.CampaignID, send.ContactID, send.StepID, reason)
	return d.EnrollRepo.UpdateStatus(enrollment.ID, model.EnrollmentFailed)
}

// advance sets the enrollment's clock for the step after the one just
// sent: fire-time = actual send time + next step's delay. No next step
// means the sequence is complete.
func (d *Dispatcher) advance(send *model.StepSend, sentAt *time.Time) error {
	enrollment, err := d.EnrollRepo.Get(send.CampaignID, send.ContactID)
	if err != nil {
		return err
	}
	if enrollment == nil || enrollment.Status != model.EnrollmentActive {
		return nil
	}
	if enrollment.NextFireAt != nil {
		// Clock already advanced (recovery path re-entered).
		return nil
	}

	steps, err := d.StepRepo.ListByCampaign(send.CampaignID)
	if err != nil {
		return err
	}

	sentOrder := 0
	for _, step := range steps {
		if step.ID == send.StepID {
			sentOrder = step.StepOrder
			break
		}
	}

	var next *model.CampaignStep
	for _, step := range steps {
		if step.StepOrder > sentOrder {
			next = step
			break
		}
	}
	if next == nil {
		return d.EnrollRepo.UpdateStatus(enrollment.ID, model.EnrollmentCompleted)
	}

	base := d.now()
	if sentAt != nil {
		base = *sentAt
	}
	fire := base.Add(time.Duration(next.DelayMinutes) * time.Minute)
	return d.EnrollRepo.SetNextFireAt(enrollment.ID, &fire)
}
