package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
	"github.com/wolfman30/eyeclinic-web/internal/session"
)

const (
	bookingPath      = "/book-appointment"
	confirmationPath = "/appointment-confirmation"

	msgSessionUnavailable = "Online booking is temporarily unavailable. Please try again shortly."
	msgSubmissionPending  = "Your booking is already being submitted. Please wait a moment."
)

type bookingContent struct {
	State  *booking.State
	Steps  []booking.Step
	Notice string
	Today  string
}

type confirmationContent struct {
	Confirmation *booking.Confirmation
}

// slotsResponse is the JSON body of the slot lookup endpoint.
type slotsResponse struct {
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
	Loading  bool     `json:"loading"`
	Loaded   bool     `json:"loaded"`
	Error    string   `json:"error,omitempty"`
	Advisory string   `json:"advisory,omitempty"`
}

func (h *Handler) loadState(ctx context.Context, sid string) (*booking.State, error) {
	state, err := h.sessions.LoadState(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		return booking.NewState(), nil
	}
	return state, err
}

// saveState persists state. When another request saved first, the fresher
// stored state is returned instead so the page shows what actually persisted.
func (h *Handler) saveState(ctx context.Context, sid string, state *booking.State) *booking.State {
	err := h.sessions.SaveState(ctx, sid, state)
	if err == nil {
		return state
	}
	if errors.Is(err, session.ErrConflict) {
		h.logger.Info("booking: concurrent update, showing stored state")
		if fresh, loadErr := h.loadState(ctx, sid); loadErr == nil {
			return fresh
		}
		return state
	}
	h.logger.Error("booking: save state failed", "error", err)
	return state
}

func (h *Handler) newWizard(sid string, state *booking.State) *booking.Wizard {
	return booking.NewWizard(h.api, state,
		booking.WithLogger(h.logger),
		booking.WithMetrics(h.metrics),
		booking.WithCheckpoint(func(ctx context.Context, s *booking.State) error {
			return h.sessions.SaveState(ctx, sid, s)
		}),
	)
}

func (h *Handler) renderBooking(w http.ResponseWriter, state *booking.State, resetScroll bool, notice string) {
	view := View{
		Title:       h.title(fmt.Sprintf("Step %d - Book Appointment", state.Step)),
		ResetScroll: resetScroll,
	}
	h.render(w, http.StatusOK, "booking", "book", view, bookingContent{
		State:  state,
		Steps:  booking.Steps(),
		Notice: notice,
		Today:  time.Now().Format("2006-01-02"),
	})
}

// BookAppointment renders the current wizard step. ?doctor=<id> preselects a
// doctor for step 2 and ?reset=1 starts over.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := h.cookies.Ensure(w, r)
	if err != nil {
		h.logger.Error("booking: session cookie failed", "error", err)
		h.renderError(w, http.StatusInternalServerError, "Booking Unavailable", msgSessionUnavailable)
		return
	}
	state, err := h.loadState(ctx, sid)
	if err != nil {
		h.logger.Error("booking: load state failed", "error", err)
		h.renderError(w, http.StatusServiceUnavailable, "Booking Unavailable", msgSessionUnavailable)
		return
	}

	query := r.URL.Query()
	if query.Get("reset") == "1" {
		fresh := booking.NewState()
		fresh.Revision = state.Revision
		h.saveState(ctx, sid, fresh)
		target := bookingPath
		if doctor := strings.TrimSpace(query.Get("doctor")); doctor != "" {
			target += "?doctor=" + url.QueryEscape(doctor)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	wiz := h.newWizard(sid, state)
	wiz.Start(ctx, query.Get("doctor"))
	state = h.saveState(ctx, sid, wiz.State())
	h.renderBooking(w, state, true, "")
}

// UpdateBooking applies a posted step form. The fields of the current step
// are applied first; if any is rejected the action is skipped. Actions are
// next, prev, submit and refresh; anything else only updates fields.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sid, err := h.cookies.Ensure(w, r)
	if err != nil {
		h.logger.Error("booking: session cookie failed", "error", err)
		h.renderError(w, http.StatusInternalServerError, "Booking Unavailable", msgSessionUnavailable)
		return
	}
	state, err := h.loadState(ctx, sid)
	if err != nil {
		h.logger.Error("booking: load state failed", "error", err)
		h.renderError(w, http.StatusServiceUnavailable, "Booking Unavailable", msgSessionUnavailable)
		return
	}

	wiz := h.newWizard(sid, state)
	wiz.Start(ctx, "")
	before := wiz.Step()

	// A form rendered for another step (stale tab, back button) is ignored.
	if postedStep, err := strconv.Atoi(r.PostForm.Get("step")); err != nil || booking.Step(postedStep) != before {
		state = h.saveState(ctx, sid, wiz.State())
		h.renderBooking(w, state, true, "")
		return
	}

	action := r.PostForm.Get("action")
	// Previous always moves back, even past a rejected field.
	if !h.applyFields(ctx, wiz, before, r.PostForm) && action != "prev" {
		state = h.saveState(ctx, sid, wiz.State())
		h.renderBooking(w, state, false, "")
		return
	}

	notice := ""
	switch action {
	case "next":
		_ = wiz.Advance(ctx)
	case "prev":
		wiz.Retreat(ctx)
	case "refresh":
		wiz.Refresh(ctx)
	case "submit":
		conf, err := wiz.Submit(ctx)
		switch {
		case err == nil:
			h.finishBooking(w, r, sid, wiz, conf)
			return
		case errors.Is(err, booking.ErrSubmissionInFlight):
			notice = msgSubmissionPending
		case errors.Is(err, session.ErrConflict):
			h.logger.Info("booking: submission raced another request")
			fresh, loadErr := h.loadState(ctx, sid)
			if loadErr != nil {
				fresh = wiz.State()
			}
			h.renderBooking(w, fresh, false, msgSubmissionPending)
			return
		}
	}

	state = h.saveState(ctx, sid, wiz.State())
	h.renderBooking(w, state, state.Step != before, notice)
}

func (h *Handler) applyFields(ctx context.Context, wiz *booking.Wizard, step booking.Step, form url.Values) bool {
	ok := true
	for _, field := range booking.StepFields[step] {
		values, present := form[string(field)]
		if !present || len(values) == 0 {
			continue
		}
		// Only changes are applied; re-posting an unchanged service must not
		// clear the chosen doctor.
		if values[0] == wiz.State().Draft.Value(field) {
			continue
		}
		if err := wiz.SetField(ctx, field, values[0]); err != nil {
			if !errors.Is(err, booking.ErrValidation) {
				h.logger.Warn("booking: set field failed", "field", string(field), "error", err)
			}
			ok = false
		}
	}
	return ok
}

func (h *Handler) finishBooking(w http.ResponseWriter, r *http.Request, sid string, wiz *booking.Wizard, conf *booking.Confirmation) {
	ctx := r.Context()
	h.saveState(ctx, sid, wiz.State())
	if h.notifier != nil {
		h.notifier.NotifyBookedAsync(conf)
	}
	if err := h.sessions.PutConfirmation(ctx, sid, conf); err != nil {
		h.logger.Error("booking: store confirmation failed", "booking_id", conf.BookingID, "error", err)
		h.renderConfirmation(w, conf)
		return
	}
	http.Redirect(w, r, confirmationPath, http.StatusSeeOther)
}

// Slots returns the slot list for ?date= as JSON. It is only served while
// the wizard is on the date and time step and never changes the stored
// draft; the date is applied when the step form is posted.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := h.cookies.Read(r)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no booking in progress"})
		return
	}
	state, err := h.loadState(ctx, sid)
	if err != nil {
		h.logger.Error("booking: load state failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": msgSessionUnavailable})
		return
	}
	if state.Step != booking.StepDateTime {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "booking is not on the date and time step"})
		return
	}

	wiz := h.newWizard(sid, state)
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date != state.Draft.AppointmentDate {
		_ = wiz.SetField(ctx, booking.FieldDate, date)
	}
	wiz.Start(ctx, "")
	state = wiz.State()

	slots := state.Slots.Slots
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		Date:     state.Draft.AppointmentDate,
		Slots:    slots,
		Loading:  state.Slots.Loading,
		Loaded:   state.Slots.Loaded,
		Error:    state.Slots.Error,
		Advisory: state.Advisory,
	})
}

// Confirmation shows the last booking of this session. Without one the
// visitor is sent back to the wizard.
func (h *Handler) Confirmation(w http.ResponseWriter, r *http.Request) {
	sid, err := h.cookies.Read(r)
	if err != nil {
		http.Redirect(w, r, bookingPath, http.StatusSeeOther)
		return
	}
	conf, err := h.sessions.GetConfirmation(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.logger.Error("booking: load confirmation failed", "error", err)
		}
		http.Redirect(w, r, bookingPath, http.StatusSeeOther)
		return
	}
	h.renderConfirmation(w, conf)
}

func (h *Handler) renderConfirmation(w http.ResponseWriter, conf *booking.Confirmation) {
	h.render(w, http.StatusOK, "confirmation", "book", View{Title: h.title("Appointment Confirmed"), ResetScroll: true}, confirmationContent{
		Confirmation: conf,
	})
}
