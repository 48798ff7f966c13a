package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

const sendTimeout = 20 * time.Second

// BookingNotifier emails the patient after a booking is confirmed. Delivery
// failures are logged and never affect the booking.
type BookingNotifier struct {
	email      EmailSender
	clinicName string
	logger     *logging.Logger
	staffEmail string
	wg         sync.WaitGroup
}

// NewBookingNotifier builds a notifier. A nil sender disables email.
func NewBookingNotifier(email EmailSender, clinicName string, logger *logging.Logger, opts ...NotifierOption) *BookingNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if clinicName == "" {
		clinicName = defaultFromName
	}
	n := &BookingNotifier{email: email, clinicName: clinicName, logger: logger}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyBooked sends the patient confirmation and, when configured, the
// staff alert synchronously.
func (n *BookingNotifier) NotifyBooked(ctx context.Context, conf *booking.Confirmation) error {
	if n == nil || n.email == nil || conf == nil {
		return nil
	}
	return errors.Join(n.notifyPatient(ctx, conf), n.notifyStaff(ctx, conf))
}

func (n *BookingNotifier) notifyPatient(ctx context.Context, conf *booking.Confirmation) error {
	to := strings.TrimSpace(conf.Draft.PatientEmail)
	if to == "" {
		n.logger.Debug("notify: booking has no patient email, skipping", "booking_id", conf.BookingID)
		return nil
	}
	msg := n.bookingMessage(conf)
	msg.To = to
	msg.ToName = strings.TrimSpace(conf.Draft.PatientName)
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	n.logger.Info("notify: booking confirmation sent", "booking_id", conf.BookingID, "to", logging.RedactEmail(to))
	return nil
}

// NotifyBookedAsync sends in the background, detached from the request.
func (n *BookingNotifier) NotifyBookedAsync(conf *booking.Confirmation) {
	if n == nil || n.email == nil || conf == nil {
		return
	}
	c := *conf
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.NotifyBooked(ctx, &c); err != nil {
			n.logger.Error("notify: booking notification failed", "error", err, "booking_id", c.BookingID)
		}
	}()
}

// Wait blocks until background sends finish or ctx ends.
func (n *BookingNotifier) Wait(ctx context.Context) error {
	if n == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *BookingNotifier) bookingMessage(conf *booking.Confirmation) EmailMessage {
	d := conf.Draft
	rows := [][2]string{
		{"Booking ID", conf.BookingID},
		{"Service", d.ServiceName},
		{"Doctor", d.DoctorLabel()},
		{"Date", booking.WeekdayDate(d.AppointmentDate)},
		{"Time", d.AppointmentTime},
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", d.PatientName)
	fmt.Fprintf(&text, "Your appointment at %s is confirmed.\n\n", n.clinicName)
	for _, r := range rows {
		if r[1] != "" {
			fmt.Fprintf(&text, "%s: %s\n", r[0], r[1])
		}
	}
	text.WriteString("\nPlease arrive 15 minutes early. If you need to reschedule, contact us.\n")

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Dear %s,</p>", html.EscapeString(d.PatientName))
	fmt.Fprintf(&body, "<p>Your appointment at %s is confirmed.</p><table>", html.EscapeString(n.clinicName))
	for _, r := range rows {
		if r[1] != "" {
			fmt.Fprintf(&body, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", r[0], html.EscapeString(r[1]))
		}
	}
	body.WriteString("</table><p>Please arrive 15 minutes early. If you need to reschedule, contact us.</p>")

	return EmailMessage{
		Kind:      KindBookingConfirmation,
		BookingID: conf.BookingID,
		ReplyTo:   n.staffEmail,
		Subject:   fmt.Sprintf("Appointment confirmed - %s", n.clinicName),
		Body:      text.String(),
		HTML:      body.String(),
	}
}
