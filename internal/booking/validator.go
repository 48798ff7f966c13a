package booking

import "strings"

// User-facing messages.
const (
	MsgSelectService    = "Please select a service."
	MsgSelectDateTime   = "Please select both date and time."
	MsgPatientDetails   = "Please fill in all required patient details (Name, Email, Phone)."
	MsgIncompleteSubmit = "Please ensure all fields are selected or filled before confirming."
	MsgInvalidDoctor    = "Please select a doctor from the list."
	MsgInvalidTime      = "Please select one of the available time slots."
	MsgSubmitFailed     = "We could not complete your booking. Please try again."
	MsgNoSlots          = "No time slots available for the selected date/doctor. Please try another date or doctor."
	MsgServicesFailed   = "Could not load services. Please try again."
	MsgDoctorsFailed    = "Could not load doctors. Please try again."
	MsgSlotsFailed      = "Could not load available time slots. Please try again."
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateStep checks the fields required to leave step. It returns the
// failure message and false when the step is incomplete. Step 5 has no
// advance check; use ValidateSubmission.
func ValidateStep(step Step, d Draft) (string, bool) {
	switch step {
	case StepService:
		if blank(d.ServiceID) {
			return MsgSelectService, false
		}
	case StepDateTime:
		if blank(d.AppointmentDate) || blank(d.AppointmentTime) {
			return MsgSelectDateTime, false
		}
	case StepPatient:
		if blank(d.PatientName) || blank(d.PatientEmail) || blank(d.PatientPhone) {
			return MsgPatientDetails, false
		}
	}
	return "", true
}

// ValidateSubmission mirrors the checks of steps 1, 3 and 4.
func ValidateSubmission(d Draft) (string, bool) {
	for _, step := range []Step{StepService, StepDateTime, StepPatient} {
		if _, ok := ValidateStep(step, d); !ok {
			return MsgIncompleteSubmit, false
		}
	}
	return "", true
}
