package booking

import (
	"slices"
	"strconv"
	"time"
)

// Step is a wizard position, 1 through 5.
type Step int

const (
	StepService Step = iota + 1
	StepDoctor
	StepDateTime
	StepPatient
	StepReview
)

const (
	FirstStep = StepService
	LastStep  = StepReview
)

var stepNames = map[Step]string{
	StepService:  "Select Service",
	StepDoctor:   "Select Doctor",
	StepDateTime: "Choose Date & Time",
	StepPatient:  "Patient Details",
	StepReview:   "Review & Confirm",
}

// Name is the short label shown in the progress bar.
func (s Step) Name() string {
	return stepNames[s]
}

func (s Step) String() string {
	return strconv.Itoa(int(s))
}

// Steps returns all steps in order.
func Steps() []Step {
	return []Step{StepService, StepDoctor, StepDateTime, StepPatient, StepReview}
}

// ResourceState tracks one fetched resource. Loaded with no data means the
// fetch succeeded and returned nothing.
type ResourceState struct {
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
	Error   string `json:"error,omitempty"`
}

// CatalogEntry is a service or doctor option.
type CatalogEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// SlotKey identifies the (date, service, doctor) combination a slot list
// belongs to.
type SlotKey struct {
	Date      string `json:"date"`
	ServiceID string `json:"service_id"`
	DoctorID  string `json:"doctor_id"`
}

// SlotState is the slot list for Key. Seq increases with every issued fetch
// and every clear; a response is applied only if Seq still matches.
type SlotState struct {
	ResourceState
	Key   SlotKey  `json:"key"`
	Slots []string `json:"slots"`
	Seq   uint64   `json:"seq"`
}

// Has reports whether slot is in the loaded list.
func (s SlotState) Has(slot string) bool {
	return s.Loaded && slices.Contains(s.Slots, slot)
}

// State is one wizard instance.
type State struct {
	Step  Step  `json:"step"`
	Draft Draft `json:"draft"`

	Services      []CatalogEntry `json:"services,omitempty"`
	ServicesState ResourceState  `json:"services_state"`
	Doctors       []CatalogEntry `json:"doctors,omitempty"`
	DoctorsState  ResourceState  `json:"doctors_state"`
	Slots         SlotState      `json:"slots"`

	Submission          ResourceState `json:"submission"`
	SubmissionStartedAt time.Time     `json:"submission_started_at,omitempty"`

	// Error is the current validation or submission message.
	Error string `json:"error,omitempty"`
	// Advisory is a non-blocking notice, such as an empty slot list.
	Advisory string `json:"advisory,omitempty"`

	// PreferredDoctorID is applied when step 2 is entered with no doctor chosen.
	PreferredDoctorID string `json:"preferred_doctor_id,omitempty"`

	// Revision is owned by the session store for optimistic saves.
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns an empty wizard on step 1.
func NewState() *State {
	return &State{Step: FirstStep}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Services = slices.Clone(s.Services)
	out.Doctors = slices.Clone(s.Doctors)
	out.Slots.Slots = slices.Clone(s.Slots.Slots)
	return &out
}

// Normalize repairs a state decoded from storage.
func (s *State) Normalize() {
	if s.Step < FirstStep {
		s.Step = FirstStep
	}
	if s.Step > LastStep {
		s.Step = LastStep
	}
}

func findEntry(entries []CatalogEntry, id string) (CatalogEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Confirmation is the result handed to the confirmation view.
type Confirmation struct {
	BookingID   string    `json:"booking_id"`
	Status      string    `json:"status"`
	Draft       Draft     `json:"draft"`
	SubmittedAt time.Time `json:"submitted_at"`
}
