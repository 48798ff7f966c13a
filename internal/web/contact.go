package web

import (
	"net/http"
	"strings"

	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
)

const (
	msgContactThanks   = "Thank you for your message! We will get back to you soon."
	msgContactRequired = "Please fill in your name, email and message."
	msgContactFailed   = "We could not send your message. Please try again later."
)

type contactContent struct {
	Form    clinicapi.ContactMessage
	Success string
	Error   string
}

// Contact renders the contact form.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "contact", "contact", View{Title: h.title("Contact Us"), ResetScroll: true}, contactContent{})
}

// SubmitContact forwards the form to the backend. On success the form is
// cleared; on failure the entered values are kept.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := clinicapi.ContactMessage{
		Name:    strings.TrimSpace(r.PostForm.Get("name")),
		Email:   strings.TrimSpace(r.PostForm.Get("email")),
		Phone:   strings.TrimSpace(r.PostForm.Get("phone")),
		Subject: strings.TrimSpace(r.PostForm.Get("subject")),
		Message: strings.TrimSpace(r.PostForm.Get("message")),
	}
	view := View{Title: h.title("Contact Us"), ResetScroll: true}

	if form.Name == "" || form.Email == "" || form.Message == "" {
		h.render(w, http.StatusUnprocessableEntity, "contact", "contact", view, contactContent{Form: form, Error: msgContactRequired})
		return
	}

	if _, err := h.api.SubmitContactMessage(r.Context(), form); err != nil {
		h.logger.Warn("contact: submit failed", "error", err)
		h.render(w, http.StatusBadGateway, "contact", "contact", view, contactContent{
			Form:  form,
			Error: clinicapi.ErrorDetail(err, msgContactFailed),
		})
		return
	}
	h.render(w, http.StatusOK, "contact", "contact", view, contactContent{Success: msgContactThanks})
}
