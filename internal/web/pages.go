package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
)

const (
	homeTeaserCount = 3

	msgServicesUnavailable = "We could not load our services right now. Please try again later."
	msgDoctorsUnavailable  = "We could not load our doctors right now. Please try again later."
)

type homeContent struct {
	Services      []clinicapi.Service
	ServicesError string
	Doctors       []clinicapi.Doctor
	DoctorsError  string
}

// Home renders the landing page. The service and doctor sections load
// independently; one failing does not hide the other.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var content homeContent

	if services, err := h.api.ListServices(ctx); err != nil {
		h.logger.Warn("home: list services failed", "error", err)
		content.ServicesError = msgServicesUnavailable
	} else {
		content.Services = firstN(services, homeTeaserCount)
	}
	if doctors, err := h.api.ListDoctors(ctx); err != nil {
		h.logger.Warn("home: list doctors failed", "error", err)
		content.DoctorsError = msgDoctorsUnavailable
	} else {
		content.Doctors = firstN(doctors, homeTeaserCount)
	}

	h.render(w, http.StatusOK, "home", "home", View{Title: h.title("Expert Eye Care"), ResetScroll: true}, content)
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// About renders the static about page.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "about", "about", View{Title: h.title("About Us"), ResetScroll: true}, nil)
}

type servicesContent struct {
	Services []clinicapi.Service
	Error    string
}

// Services lists the service catalog.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	var content servicesContent
	services, err := h.api.ListServices(r.Context())
	if err != nil {
		h.logger.Warn("services: list failed", "error", err)
		content.Error = msgServicesUnavailable
	}
	content.Services = services
	h.render(w, http.StatusOK, "services", "services", View{Title: h.title("Our Services"), ResetScroll: true}, content)
}

// ServiceDetail renders one service.
func (h *Handler) ServiceDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	service, err := h.api.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinicapi.ErrNotFound) {
			h.renderError(w, http.StatusNotFound, "Service Not Found", "We could not find the service you are looking for.")
			return
		}
		h.logger.Warn("service detail: get failed", "id", id, "error", err)
		h.renderError(w, http.StatusBadGateway, "Service Unavailable", "We could not load this service right now. Please try again later.")
		return
	}
	h.render(w, http.StatusOK, "service_detail", "services", View{Title: h.title(service.Name), ResetScroll: true}, service)
}

type doctorsContent struct {
	Doctors []clinicapi.Doctor
	Error   string
}

// Doctors lists the doctors.
func (h *Handler) Doctors(w http.ResponseWriter, r *http.Request) {
	var content doctorsContent
	doctors, err := h.api.ListDoctors(r.Context())
	if err != nil {
		h.logger.Warn("doctors: list failed", "error", err)
		content.Error = msgDoctorsUnavailable
	}
	content.Doctors = doctors
	h.render(w, http.StatusOK, "doctors", "doctors", View{Title: h.title("Our Doctors"), ResetScroll: true}, content)
}

// DoctorDetail renders one doctor with a booking link that preselects them.
func (h *Handler) DoctorDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	doctor, err := h.api.GetDoctor(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinicapi.ErrNotFound) {
			h.renderError(w, http.StatusNotFound, "Doctor Not Found", "We could not find the doctor you are looking for.")
			return
		}
		h.logger.Warn("doctor detail: get failed", "id", id, "error", err)
		h.renderError(w, http.StatusBadGateway, "Doctor Unavailable", "We could not load this doctor right now. Please try again later.")
		return
	}
	h.render(w, http.StatusOK, "doctor_detail", "doctors", View{Title: h.title(doctor.Name), ResetScroll: true}, doctor)
}
