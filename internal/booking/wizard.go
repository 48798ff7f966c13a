package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
	"github.com/wolfman30/eyeclinic-web/internal/observability/metrics"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

// submissionTimeout bounds how long a persisted in-flight submission blocks a
// new one.
const submissionTimeout = 2 * time.Minute

// API is the subset of the clinic client the wizard needs.
type API interface {
	ListServices(ctx context.Context) ([]clinicapi.Service, error)
	ListDoctors(ctx context.Context) ([]clinicapi.Doctor, error)
	ListAvailableSlots(ctx context.Context, q clinicapi.SlotQuery) ([]string, error)
	CreateBooking(ctx context.Context, req clinicapi.BookingRequest) (*clinicapi.BookingConfirmation, error)
}

// CheckpointFunc persists the state just before the booking request is sent,
// so concurrent requests for the same session see the submission in flight.
// It may update the state's Revision.
type CheckpointFunc func(ctx context.Context, state *State) error

// Wizard drives one booking State. It is safe for concurrent use; the lock is
// not held while calling the API.
type Wizard struct {
	mu         sync.Mutex
	api        API
	state      *State
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
	checkpoint CheckpointFunc
	now        func() time.Time
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics records transitions, submissions and stale slot responses.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(w *Wizard) {
		w.metrics = m
	}
}

// WithCheckpoint registers a hook run before the booking request.
func WithCheckpoint(fn CheckpointFunc) Option {
	return func(w *Wizard) {
		w.checkpoint = fn
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWizard wraps state, or a fresh state when nil.
func NewWizard(api API, state *State, opts ...Option) *Wizard {
	if state == nil {
		state = NewState()
	}
	state.Normalize()
	w := &Wizard{
		api:    api,
		state:  state,
		logger: logging.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns a copy of the current state.
func (w *Wizard) State() *State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Step
}

// Start runs the loads for the current step, the service catalog included.
// A non-empty preferredDoctorID is remembered and applied on step 2.
func (w *Wizard) Start(ctx context.Context, preferredDoctorID string) {
	w.mu.Lock()
	if pref := strings.TrimSpace(preferredDoctorID); pref != "" {
		w.state.PreferredDoctorID = pref
	}
	step := w.state.Step
	w.mu.Unlock()

	w.loadServices(ctx)
	w.enterStep(ctx, step, false)
}

// Refresh retries failed loads for the current step and re-fetches slots.
func (w *Wizard) Refresh(ctx context.Context) {
	w.enterStep(ctx, w.Step(), true)
}

func (w *Wizard) enterStep(ctx context.Context, step Step, force bool) {
	w.runLoads(ctx, stepLoads[step], force)
}

// Advance validates the current step and moves forward. On failure the step
// is kept, State.Error carries the message and the returned error wraps
// ErrValidation. Advancing from the last step is a no-op.
func (w *Wizard) Advance(ctx context.Context) error {
	w.mu.Lock()
	from := w.state.Step
	if msg, ok := ValidateStep(from, w.state.Draft); !ok {
		w.state.Error = msg
		w.mu.Unlock()
		w.metrics.ObserveTransition(int(from), int(from), "rejected")
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	w.state.Error = ""
	if from < LastStep {
		w.state.Step++
	}
	to := w.state.Step
	w.mu.Unlock()

	if to == from {
		return nil
	}
	w.metrics.ObserveTransition(int(from), int(to), "advanced")
	w.logger.Debug("booking: advanced", "from", int(from), "to", int(to))
	w.enterStep(ctx, to, false)
	return nil
}

// Retreat moves back one step, never below step 1, and clears the error.
func (w *Wizard) Retreat(ctx context.Context) {
	w.mu.Lock()
	from := w.state.Step
	if from > FirstStep {
		w.state.Step--
	}
	w.state.Error = ""
	to := w.state.Step
	w.mu.Unlock()

	if to == from {
		return
	}
	w.metrics.ObserveTransition(int(from), int(to), "retreated")
	w.enterStep(ctx, to, false)
}

// SetField is the single update entry point for the draft. Accepted changes
// clear the current error; a changed slot key clears the time and slot list
// and, on step 3, re-fetches slots.
func (w *Wizard) SetField(ctx context.Context, field Field, value string) error {
	w.mu.Lock()
	if err := w.applyLocked(field, value); err != nil {
		w.mu.Unlock()
		return err
	}
	w.state.Error = ""
	plan := fetchPlan(w.state.Step, []Field{field})
	w.mu.Unlock()

	w.logger.Debug("booking: field updated", "field", string(field))
	w.runLoads(ctx, plan, false)
	return nil
}

func (w *Wizard) rejectLocked(field Field, msg string) error {
	w.state.Error = msg
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, msg)
}

func (w *Wizard) applyLocked(field Field, value string) error {
	d := &w.state.Draft
	before := d.SlotKey()

	switch field {
	case FieldServiceID:
		id := strings.TrimSpace(value)
		name := ""
		if id != "" {
			e, ok := findEntry(w.state.Services, id)
			if !ok && w.state.ServicesState.Loaded {
				return w.rejectLocked(field, MsgSelectService)
			}
			name = e.Name
		}
		d.ServiceID = id
		d.ServiceName = name
		d.DoctorID = ""
		d.DoctorName = ""
	case FieldDoctorID:
		id := strings.TrimSpace(value)
		if id == "" {
			d.DoctorID = ""
			d.DoctorName = AnyDoctorName
			break
		}
		e, ok := findEntry(w.state.Doctors, id)
		if !ok && w.state.DoctorsState.Loaded {
			return w.rejectLocked(field, MsgInvalidDoctor)
		}
		d.DoctorID = id
		d.DoctorName = e.Name
	case FieldDate:
		d.AppointmentDate = strings.TrimSpace(value)
	case FieldTime:
		t := strings.TrimSpace(value)
		if t != "" && (w.state.Slots.Key != before || !w.state.Slots.Has(t)) {
			return w.rejectLocked(field, MsgInvalidTime)
		}
		d.AppointmentTime = t
	case FieldPatientName:
		d.PatientName = value
	case FieldPatientEmail:
		d.PatientEmail = value
	case FieldPatientPhone:
		d.PatientPhone = value
	case FieldPatientSymptoms:
		d.PatientSymptoms = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	if d.SlotKey() != before {
		w.clearSlotsLocked()
	}
	w.state.UpdatedAt = w.now()
	return nil
}

// Submit posts the draft from step 5. Incomplete drafts are rejected without
// calling the API. On API failure the server's detail, or a generic message,
// is stored in State.Error and the draft is kept for a retry. On success the
// wizard is reset and the confirmation returned.
func (w *Wizard) Submit(ctx context.Context) (*Confirmation, error) {
	w.mu.Lock()
	if w.state.Step != StepReview {
		w.mu.Unlock()
		return nil, ErrNotReviewStep
	}
	now := w.now()
	if w.state.Submission.Loading && now.Sub(w.state.SubmissionStartedAt) < submissionTimeout {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if msg, ok := ValidateSubmission(w.state.Draft); !ok {
		w.state.Error = msg
		w.mu.Unlock()
		w.metrics.ObserveSubmission("invalid")
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	w.state.Error = ""
	w.state.Submission = ResourceState{Loading: true}
	w.state.SubmissionStartedAt = now
	draft := w.state.Draft
	snapshot := w.state.Clone()
	w.mu.Unlock()

	if w.checkpoint != nil {
		if err := w.checkpoint(ctx, snapshot); err != nil {
			w.mu.Lock()
			w.state.Submission.Loading = false
			w.state.SubmissionStartedAt = time.Time{}
			w.state.Error = MsgSubmitFailed
			w.state.Submission.Error = MsgSubmitFailed
			w.mu.Unlock()
			w.logger.Warn("booking: checkpoint before submission failed", "error", err)
			w.metrics.ObserveSubmission("failed")
			return nil, fmt.Errorf("checkpoint submission: %w", err)
		}
		w.mu.Lock()
		w.state.Revision = snapshot.Revision
		w.mu.Unlock()
	}

	resp, err := w.api.CreateBooking(ctx, draft.BookingRequest())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Submission.Loading = false
	w.state.SubmissionStartedAt = time.Time{}
	if err != nil {
		msg := clinicapi.ErrorDetail(err, MsgSubmitFailed)
		w.state.Error = msg
		w.state.Submission.Error = msg
		w.logger.Warn("booking: submission failed", "error", err)
		w.metrics.ObserveSubmission("failed")
		return nil, fmt.Errorf("submit booking: %w", err)
	}

	conf := &Confirmation{
		BookingID:   resp.BookingID.String(),
		Status:      resp.Status,
		Draft:       draft,
		SubmittedAt: w.now(),
	}
	conf.Draft.DoctorName = draft.DoctorLabel()
	w.logger.Info("booking: submitted", "booking_id", conf.BookingID, "status", conf.Status)
	w.metrics.ObserveSubmission("confirmed")

	fresh := NewState()
	fresh.Revision = w.state.Revision
	fresh.Services = w.state.Services
	fresh.ServicesState = w.state.ServicesState
	fresh.Doctors = w.state.Doctors
	fresh.DoctorsState = w.state.DoctorsState
	fresh.UpdatedAt = conf.SubmittedAt
	w.state = fresh
	return conf, nil
}
