// Package booking implements the appointment booking wizard: the draft being
// built, per-step validation, dependent catalog and slot loading, and
// submission to the clinic API.
package booking

import (
	"strings"

	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
)

// AnyDoctorName is the display name used when no doctor is chosen.
const AnyDoctorName = "Any Available Doctor"

// Field names a single draft attribute. The values double as form field names.
type Field string

const (
	FieldServiceID       Field = "service_id"
	FieldDoctorID        Field = "doctor_id"
	FieldDate            Field = "appointment_date"
	FieldTime            Field = "appointment_time"
	FieldPatientName     Field = "patient_name"
	FieldPatientEmail    Field = "patient_email"
	FieldPatientPhone    Field = "patient_phone"
	FieldPatientSymptoms Field = "patient_symptoms"
)

// StepFields lists the fields edited on each step, in form order.
var StepFields = map[Step][]Field{
	StepService:  {FieldServiceID},
	StepDoctor:   {FieldDoctorID},
	StepDateTime: {FieldDate, FieldTime},
	StepPatient:  {FieldPatientName, FieldPatientEmail, FieldPatientPhone, FieldPatientSymptoms},
}

// ParseField maps a form name to a Field.
func ParseField(name string) (Field, bool) {
	switch f := Field(strings.TrimSpace(name)); f {
	case FieldServiceID, FieldDoctorID, FieldDate, FieldTime,
		FieldPatientName, FieldPatientEmail, FieldPatientPhone, FieldPatientSymptoms:
		return f, true
	}
	return "", false
}

// Draft accumulates the booking across wizard steps.
type Draft struct {
	ServiceID       string `json:"service_id"`
	ServiceName     string `json:"service_name"`
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	PatientPhone    string `json:"patient_phone"`
	PatientSymptoms string `json:"patient_symptoms"`
}

// Value returns the current value of f.
func (d Draft) Value(f Field) string {
	switch f {
	case FieldServiceID:
		return d.ServiceID
	case FieldDoctorID:
		return d.DoctorID
	case FieldDate:
		return d.AppointmentDate
	case FieldTime:
		return d.AppointmentTime
	case FieldPatientName:
		return d.PatientName
	case FieldPatientEmail:
		return d.PatientEmail
	case FieldPatientPhone:
		return d.PatientPhone
	case FieldPatientSymptoms:
		return d.PatientSymptoms
	}
	return ""
}

// SlotKey is the triple that governs slot availability.
func (d Draft) SlotKey() SlotKey {
	return SlotKey{Date: d.AppointmentDate, ServiceID: d.ServiceID, DoctorID: d.DoctorID}
}

// DoctorLabel is the doctor name shown to the patient.
func (d Draft) DoctorLabel() string {
	if d.DoctorID == "" || d.DoctorName == "" {
		return AnyDoctorName
	}
	return d.DoctorName
}

// BookingRequest assembles the API payload. An empty doctor is sent as null.
func (d Draft) BookingRequest() clinicapi.BookingRequest {
	return clinicapi.BookingRequest{
		PatientName:     strings.TrimSpace(d.PatientName),
		PatientPhone:    strings.TrimSpace(d.PatientPhone),
		PatientEmail:    strings.TrimSpace(d.PatientEmail),
		ServiceID:       clinicapi.ID(strings.TrimSpace(d.ServiceID)),
		DoctorID:        clinicapi.ID(strings.TrimSpace(d.DoctorID)),
		AppointmentDate: d.AppointmentDate,
		AppointmentTime: d.AppointmentTime,
		PatientSymptoms: d.PatientSymptoms,
	}
}
