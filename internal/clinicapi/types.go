// Package clinicapi contains the REST client for the clinic backend
// (services, doctors, availability, bookings, contact submissions).
package clinicapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a backend identifier. The backend uses integer keys but the site
// passes them around as strings (form values, URL params), so ID accepts
// either JSON form and writes numeric-looking values back as numbers. An empty
// ID marshals to null.
type ID string

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("clinicapi: decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("clinicapi: decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// TextList decodes either a JSON array of strings or a single free-text
// string. The backend stores some list fields as text columns.
type TextList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("clinicapi: decode list: %w", err)
		}
		*l = items
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clinicapi: decode list: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*l = nil
		return nil
	}
	*l = TextList{s}
	return nil
}

// Service is a bookable clinic service.
type Service struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	IconSVGContent string `json:"icon_svg_content,omitempty"`
}

// ServiceDetail is the service detail page payload.
type ServiceDetail struct {
	Service
	DetailedDescription string   `json:"detailed_description,omitempty"`
	WhatToExpect        TextList `json:"what_to_expect,omitempty"`
	Benefits            TextList `json:"benefits,omitempty"`
}

// Doctor is a clinic doctor. Specialty is HTML supplied by the clinic
// (it carries <br> line breaks).
type Doctor struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty,omitempty"`
	Qualifications string `json:"qualifications,omitempty"`
	Bio            string `json:"bio,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
}

// DoctorDetail is the doctor detail page payload.
type DoctorDetail struct {
	Doctor
	AreasOfFocus []string          `json:"areas_of_focus,omitempty"`
	Achievements []string          `json:"achievements,omitempty"`
	ClinicHours  map[string]string `json:"clinic_hours,omitempty"`
}

// SlotQuery filters availability. Empty ServiceID/DoctorID leave that
// dimension unconstrained.
type SlotQuery struct {
	Date      string
	ServiceID ID
	DoctorID  ID
}

// BookingRequest is the POST /bookings body.
type BookingRequest struct {
	PatientName     string `json:"patient_name"`
	PatientPhone    string `json:"patient_phone"`
	PatientEmail    string `json:"patient_email"`
	ServiceID       ID     `json:"service_id"`
	DoctorID        ID     `json:"doctor_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	PatientSymptoms string `json:"patient_symptoms"`
}

// BookingConfirmation is returned by a successful POST /bookings.
type BookingConfirmation struct {
	BookingID ID     `json:"booking_id"`
	Status    string `json:"status"`
}

// UnmarshalJSON accepts both booking_id and the backend model's plain id.
func (c *BookingConfirmation) UnmarshalJSON(data []byte) error {
	var raw struct {
		BookingID ID     `json:"booking_id"`
		ID        ID     `json:"id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.BookingID = raw.BookingID
	if c.BookingID == "" {
		c.BookingID = raw.ID
	}
	c.Status = raw.Status
	return nil
}

// ContactMessage is the POST /contact-submissions body.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactAck acknowledges a contact submission.
type ContactAck struct {
	ID      ID     `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}
