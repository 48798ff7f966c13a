package booking

import "testing"

func TestValidateStep(t *testing.T) {
	full := Draft{
		ServiceID:       "1",
		AppointmentDate: "2025-03-10",
		AppointmentTime: "09:30",
		PatientName:     "Asha Rao",
		PatientEmail:    "asha@example.com",
		PatientPhone:    "9876543210",
	}

	tests := []struct {
		name    string
		step    Step
		mutate  func(*Draft)
		wantMsg string
	}{
		{"service missing", StepService, func(d *Draft) { d.ServiceID = "" }, MsgSelectService},
		{"service whitespace", StepService, func(d *Draft) { d.ServiceID = "  " }, MsgSelectService},
		{"service present", StepService, func(d *Draft) {}, ""},
		{"doctor optional", StepDoctor, func(d *Draft) { d.DoctorID = "" }, ""},
		{"date missing", StepDateTime, func(d *Draft) { d.AppointmentDate = "" }, MsgSelectDateTime},
		{"time missing", StepDateTime, func(d *Draft) { d.AppointmentTime = "" }, MsgSelectDateTime},
		{"name missing", StepPatient, func(d *Draft) { d.PatientName = "" }, MsgPatientDetails},
		{"email missing", StepPatient, func(d *Draft) { d.PatientEmail = "" }, MsgPatientDetails},
		{"phone missing", StepPatient, func(d *Draft) { d.PatientPhone = " " }, MsgPatientDetails},
		{"symptoms optional", StepPatient, func(d *Draft) { d.PatientSymptoms = "" }, ""},
		{"review has no advance check", StepReview, func(d *Draft) { *d = Draft{} }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full
			tt.mutate(&d)
			msg, ok := ValidateStep(tt.step, d)
			if ok != (tt.wantMsg == "") {
				t.Fatalf("ok = %v, want %v", ok, tt.wantMsg == "")
			}
			if msg != tt.wantMsg {
				t.Fatalf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestValidateSubmission(t *testing.T) {
	full := Draft{
		ServiceID:       "1",
		AppointmentDate: "2025-03-10",
		AppointmentTime: "09:30",
		PatientName:     "Asha Rao",
		PatientEmail:    "asha@example.com",
		PatientPhone:    "9876543210",
	}
	if msg, ok := ValidateSubmission(full); !ok {
		t.Fatalf("complete draft rejected: %s", msg)
	}

	for _, f := range []Field{FieldServiceID, FieldDate, FieldTime, FieldPatientName, FieldPatientEmail, FieldPatientPhone} {
		d := full
		clearField(&d, f)
		msg, ok := ValidateSubmission(d)
		if ok {
			t.Fatalf("%s empty: submission accepted", f)
		}
		if msg != MsgIncompleteSubmit {
			t.Fatalf("%s empty: msg = %q", f, msg)
		}
	}
}

func clearField(d *Draft, f Field) {
	switch f {
	case FieldServiceID:
		d.ServiceID = ""
	case FieldDate:
		d.AppointmentDate = ""
	case FieldTime:
		d.AppointmentTime = ""
	case FieldPatientName:
		d.PatientName = ""
	case FieldPatientEmail:
		d.PatientEmail = ""
	case FieldPatientPhone:
		d.PatientPhone = ""
	}
}

func TestParseField(t *testing.T) {
	if f, ok := ParseField("appointment_time"); !ok || f != FieldTime {
		t.Fatalf("ParseField(appointment_time) = %q, %v", f, ok)
	}
	if _, ok := ParseField("notes"); ok {
		t.Fatal("unexpected field accepted")
	}
}
