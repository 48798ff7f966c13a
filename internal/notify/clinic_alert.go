package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

// NotifierOption configures a BookingNotifier.
type NotifierOption func(*BookingNotifier)

// WithStaffEmail also alerts clinic staff at addr about every booking, so the
// front desk sees web bookings without polling the backend.
func WithStaffEmail(addr string) NotifierOption {
	return func(n *BookingNotifier) {
		n.staffEmail = strings.TrimSpace(addr)
	}
}

func (n *BookingNotifier) notifyStaff(ctx context.Context, conf *booking.Confirmation) error {
	if n.staffEmail == "" {
		return nil
	}
	d := conf.Draft
	msg := EmailMessage{
		Kind:      KindStaffAlert,
		BookingID: conf.BookingID,
		To:        n.staffEmail,
		ToName:    n.clinicName,
		ReplyTo:   strings.TrimSpace(d.PatientEmail),
		Subject:   fmt.Sprintf("New web booking #%s - %s (%s)", conf.BookingID, valueOrNA(d.PatientName), valueOrNA(d.ServiceName)),
		Body:      FormatBookingSummary(conf),
		HTML:      FormatBookingSummaryHTML(conf),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: staff alert: %w", err)
	}
	n.logger.Info("notify: staff alert sent", "booking_id", conf.BookingID, "to", logging.RedactEmail(n.staffEmail))
	return nil
}

// FormatBookingSummary is the plain-text booking summary sent to staff.
func FormatBookingSummary(conf *booking.Confirmation) string {
	d := conf.Draft
	var b strings.Builder

	fmt.Fprintf(&b, "Booking ID: %s\n", valueOrNA(conf.BookingID))
	if conf.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", conf.Status)
	}
	fmt.Fprintf(&b, "Patient: %s\n", valueOrNA(d.PatientName))
	fmt.Fprintf(&b, "Phone: %s\n", valueOrNA(d.PatientPhone))
	fmt.Fprintf(&b, "Email: %s\n", valueOrNA(d.PatientEmail))
	fmt.Fprintf(&b, "Service: %s\n", valueOrNA(d.ServiceName))
	fmt.Fprintf(&b, "Doctor: %s\n", d.DoctorLabel())
	fmt.Fprintf(&b, "Appointment: %s at %s\n", booking.WeekdayDate(d.AppointmentDate), valueOrNA(d.AppointmentTime))
	if strings.TrimSpace(d.PatientSymptoms) != "" {
		fmt.Fprintf(&b, "Symptoms: %s\n", d.PatientSymptoms)
	}
	if !conf.SubmittedAt.IsZero() {
		fmt.Fprintf(&b, "Submitted: %s\n", conf.SubmittedAt.Format(time.RFC1123))
	}
	return b.String()
}

// FormatBookingSummaryHTML renders the staff summary as an HTML table.
func FormatBookingSummaryHTML(conf *booking.Confirmation) string {
	d := conf.Draft
	rows := [][2]string{
		{"Booking ID", valueOrNA(conf.BookingID)},
		{"Patient", valueOrNA(d.PatientName)},
		{"Phone", valueOrNA(d.PatientPhone)},
		{"Email", valueOrNA(d.PatientEmail)},
		{"Service", valueOrNA(d.ServiceName)},
		{"Doctor", d.DoctorLabel()},
		{"Date", booking.WeekdayDate(d.AppointmentDate)},
		{"Time", valueOrNA(d.AppointmentTime)},
	}
	if strings.TrimSpace(d.PatientSymptoms) != "" {
		rows = append(rows, [2]string{"Symptoms", d.PatientSymptoms})
	}

	var b strings.Builder
	b.WriteString(`<div style="font-family:sans-serif;max-width:600px;">`)
	b.WriteString(`<h2 style="color:#333;">New Web Booking</h2><table style="border-collapse:collapse;width:100%;">`)
	for _, r := range rows {
		fmt.Fprintf(&b, `<tr><td style="padding:6px 12px;font-weight:bold;">%s</td><td style="padding:6px 12px;">%s</td></tr>`,
			r[0], html.EscapeString(r[1]))
	}
	b.WriteString(`</table><p style="color:#666;font-size:12px;">Booked through the clinic website.</p></div>`)
	return b.String()
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
