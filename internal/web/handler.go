// Package web serves the clinic website: catalog pages, the contact form and
// the server-side booking wizard.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
	"github.com/wolfman30/eyeclinic-web/internal/observability/metrics"
	"github.com/wolfman30/eyeclinic-web/internal/session"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

// ClinicAPI is the backend surface used by the site.
type ClinicAPI interface {
	booking.API
	GetService(ctx context.Context, id string) (*clinicapi.ServiceDetail, error)
	GetDoctor(ctx context.Context, id string) (*clinicapi.DoctorDetail, error)
	SubmitContactMessage(ctx context.Context, msg clinicapi.ContactMessage) (*clinicapi.ContactAck, error)
}

// BookingNotifier is told about confirmed bookings.
type BookingNotifier interface {
	NotifyBookedAsync(conf *booking.Confirmation)
}

// Config wires a Handler.
type Config struct {
	API        ClinicAPI
	Sessions   session.Store
	Cookies    *session.Cookies
	Notifier   BookingNotifier
	Metrics    *metrics.BookingMetrics
	Logger     *logging.Logger
	ClinicName string
}

// Handler serves every page of the site.
type Handler struct {
	api        ClinicAPI
	sessions   session.Store
	cookies    *session.Cookies
	notifier   BookingNotifier
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	clinicName string
	renderer   *Renderer
}

// NewHandler validates cfg and parses the templates.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.API == nil {
		return nil, errors.New("web: clinic API is required")
	}
	if cfg.Sessions == nil || cfg.Cookies == nil {
		return nil, errors.New("web: session store and cookies are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = "NayanJyoti Eye Clinic"
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		api:        cfg.API,
		sessions:   cfg.Sessions,
		cookies:    cfg.Cookies,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		clinicName: cfg.ClinicName,
		renderer:   renderer,
	}, nil
}

func (h *Handler) title(page string) string {
	if page == "" {
		return h.clinicName
	}
	return fmt.Sprintf("%s - %s", page, h.clinicName)
}

func (h *Handler) render(w http.ResponseWriter, status int, page, nav string, view View, content any) {
	err := h.renderer.Render(w, status, page, pageData{
		View:       view,
		ClinicName: h.clinicName,
		Nav:        nav,
		Content:    content,
	})
	if err != nil {
		h.logger.Error("render failed", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type errorContent struct {
	Heading string
	Message string
}

func (h *Handler) renderError(w http.ResponseWriter, status int, heading, message string) {
	h.render(w, status, "error", "", View{Title: h.title(heading), ResetScroll: true}, errorContent{
		Heading: heading,
		Message: message,
	})
}

// NotFound renders the site's 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist.")
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
