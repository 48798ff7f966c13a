package booking

import (
	"context"
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
)

// resource is a dependent fetch owned by the wizard.
type resource int

const (
	resourceServices resource = iota
	resourceDoctors
	resourceSlots
)

// stepLoads lists the fetches triggered when a step becomes active.
var stepLoads = map[Step][]resource{
	StepService:  {resourceServices},
	StepDoctor:   {resourceDoctors},
	StepDateTime: {resourceSlots},
}

// fieldLoads lists the fetches invalidated by a field change, and the step on
// which they are re-issued immediately.
var fieldLoads = map[Field]struct {
	resources []resource
	activeOn  Step
}{
	FieldServiceID: {[]resource{resourceSlots}, StepDateTime},
	FieldDoctorID:  {[]resource{resourceSlots}, StepDateTime},
	FieldDate:      {[]resource{resourceSlots}, StepDateTime},
}

// fetchPlan returns the resources to reload after fields changed while step
// is active.
func fetchPlan(step Step, changed []Field) []resource {
	var plan []resource
	for _, f := range changed {
		dep, ok := fieldLoads[f]
		if !ok || dep.activeOn != step {
			continue
		}
		for _, r := range dep.resources {
			if !slices.Contains(plan, r) {
				plan = append(plan, r)
			}
		}
	}
	return plan
}

var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

func plainSpecialty(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(brTag.ReplaceAllString(s, " "))), " ")
}

func (w *Wizard) runLoads(ctx context.Context, plan []resource, force bool) {
	for _, r := range plan {
		switch r {
		case resourceServices:
			w.loadServices(ctx)
		case resourceDoctors:
			w.loadDoctors(ctx)
		case resourceSlots:
			w.loadSlots(ctx, force)
		}
	}
}

// loadServices fetches the service catalog once per wizard session.
func (w *Wizard) loadServices(ctx context.Context) {
	w.mu.Lock()
	if w.state.ServicesState.Loaded || w.state.ServicesState.Loading {
		w.mu.Unlock()
		return
	}
	w.state.ServicesState = ResourceState{Loading: true}
	w.mu.Unlock()

	services, err := w.api.ListServices(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.ServicesState.Loading = false
	if err != nil {
		w.logger.Warn("booking: load services failed", "error", err)
		w.state.ServicesState.Error = MsgServicesFailed
		return
	}
	entries := make([]CatalogEntry, 0, len(services))
	for _, s := range services {
		entries = append(entries, CatalogEntry{ID: s.ID.String(), Name: s.Name, Detail: s.Description})
	}
	w.state.Services = entries
	w.state.ServicesState.Loaded = true
	if w.state.Draft.ServiceID != "" && w.state.Draft.ServiceName == "" {
		if e, ok := findEntry(entries, w.state.Draft.ServiceID); ok {
			w.state.Draft.ServiceName = e.Name
		}
	}
}

// loadDoctors fetches the doctor catalog once and prepends the "any doctor"
// option. A pending doctor preference is applied afterwards.
func (w *Wizard) loadDoctors(ctx context.Context) {
	w.mu.Lock()
	if w.state.DoctorsState.Loaded || w.state.DoctorsState.Loading {
		w.applyPreferredDoctorLocked()
		w.mu.Unlock()
		return
	}
	w.state.DoctorsState = ResourceState{Loading: true}
	w.mu.Unlock()

	doctors, err := w.api.ListDoctors(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.DoctorsState.Loading = false
	if err != nil {
		w.logger.Warn("booking: load doctors failed", "error", err)
		w.state.DoctorsState.Error = MsgDoctorsFailed
		return
	}
	entries := make([]CatalogEntry, 0, len(doctors)+1)
	entries = append(entries, CatalogEntry{ID: "", Name: AnyDoctorName})
	for _, d := range doctors {
		entries = append(entries, CatalogEntry{ID: d.ID.String(), Name: d.Name, Detail: plainSpecialty(d.Specialty)})
	}
	w.state.Doctors = entries
	w.state.DoctorsState.Loaded = true
	if w.state.Draft.DoctorID != "" && w.state.Draft.DoctorName == "" {
		if e, ok := findEntry(entries, w.state.Draft.DoctorID); ok {
			w.state.Draft.DoctorName = e.Name
		}
	}
	w.applyPreferredDoctorLocked()
}

func (w *Wizard) applyPreferredDoctorLocked() {
	pref := w.state.PreferredDoctorID
	if pref == "" || !w.state.DoctorsState.Loaded {
		return
	}
	w.state.PreferredDoctorID = ""
	if w.state.Draft.DoctorID != "" {
		return
	}
	e, ok := findEntry(w.state.Doctors, pref)
	if !ok {
		w.logger.Debug("booking: preferred doctor not in catalog", "doctor_id", pref)
		return
	}
	before := w.state.Draft.SlotKey()
	w.state.Draft.DoctorID = e.ID
	w.state.Draft.DoctorName = e.Name
	if w.state.Draft.SlotKey() != before {
		w.clearSlotsLocked()
	}
}

// loadSlots fetches availability for the draft's current slot key. Without
// force, a list already loaded for the same key is kept. The wizard lock is
// released during the call; a response is applied only if no newer fetch or
// clear happened meanwhile.
func (w *Wizard) loadSlots(ctx context.Context, force bool) {
	w.mu.Lock()
	key := w.state.Draft.SlotKey()
	cur := w.state.Slots
	if key.Date == "" {
		w.clearSlotsLocked()
		w.mu.Unlock()
		return
	}
	if !force && cur.Key == key && (cur.Loaded || cur.Loading) {
		w.mu.Unlock()
		return
	}
	seq := cur.Seq + 1
	w.state.Slots = SlotState{ResourceState: ResourceState{Loading: true}, Key: key, Seq: seq}
	w.state.Advisory = ""
	w.mu.Unlock()

	slots, err := w.api.ListAvailableSlots(ctx, clinicapi.SlotQuery{
		Date:      key.Date,
		ServiceID: clinicapi.ID(key.ServiceID),
		DoctorID:  clinicapi.ID(key.DoctorID),
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Slots.Seq != seq || w.state.Draft.SlotKey() != key {
		w.logger.Debug("booking: discarding stale slot response", "date", key.Date, "seq", seq)
		w.metrics.ObserveStaleSlots()
		return
	}
	w.state.Slots.Loading = false
	if err != nil {
		w.logger.Warn("booking: load slots failed", "date", key.Date, "error", err)
		w.state.Slots.Error = MsgSlotsFailed
		return
	}
	if slots == nil {
		slots = []string{}
	}
	w.state.Slots.Slots = slots
	w.state.Slots.Loaded = true
	if len(slots) == 0 {
		w.state.Advisory = MsgNoSlots
	}
	if t := w.state.Draft.AppointmentTime; t != "" && !slices.Contains(slots, t) {
		w.state.Draft.AppointmentTime = ""
	}
}

// clearSlotsLocked drops the time and slot list and invalidates any pending
// slot fetch.
func (w *Wizard) clearSlotsLocked() {
	w.state.Draft.AppointmentTime = ""
	w.state.Slots = SlotState{Key: w.state.Draft.SlotKey(), Seq: w.state.Slots.Seq + 1}
	w.state.Advisory = ""
}
