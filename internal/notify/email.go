// Package notify emails patients and clinic staff about web bookings.
package notify

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

const defaultFromName = "NayanJyoti Eye Clinic"

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// MessageKind tags outgoing mail for provider-side reporting.
type MessageKind string

const (
	KindBookingConfirmation MessageKind = "booking_confirmation"
	KindStaffAlert          MessageKind = "staff_alert"
)

// EmailSender delivers one email. SendGrid, SES and a logging stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one booking email.
type EmailMessage struct {
	Kind      MessageKind
	BookingID string
	To        string
	ToName    string
	ReplyTo   string
	Subject   string
	Body      string // plain text
	HTML      string // optional
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// SenderIdentity is the clinic's From address.
type SenderIdentity struct {
	Email string
	Name  string
}

func (id SenderIdentity) withDefaults() SenderIdentity {
	id.Email = strings.TrimSpace(id.Email)
	id.Name = strings.TrimSpace(id.Name)
	if id.Name == "" {
		id.Name = defaultFromName
	}
	return id
}

// Address renders the identity as an RFC 5322 mailbox.
func (id SenderIdentity) Address() string {
	return (&netmail.Address{Name: id.Name, Address: id.Email}).String()
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   SenderIdentity
	logger *logging.Logger
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(apiKey string, from SenderIdentity, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from.withDefaults(),
		logger: logger,
	}
}

func (s *SendGridSender) message(msg EmailMessage) *sgmail.SGMailV3 {
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	m := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.from.Name, s.from.Email),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)
	if msg.ReplyTo != "" {
		m.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}
	if msg.Kind != "" {
		m.AddCategories(string(msg.Kind))
	}
	if msg.BookingID != "" {
		m.SetCustomArg("booking_id", msg.BookingID)
	}
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return errors.New("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	response, err := s.client.SendWithContext(ctx, s.message(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid %s: %w", msg.Kind, err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected booking email",
			"kind", string(msg.Kind), "booking_id", msg.BookingID,
			"status", response.StatusCode, "body", logging.ScrubPII(response.Body))
		return fmt.Errorf("notify: sendgrid %s: status %d", msg.Kind, response.StatusCode)
	}

	s.logger.Info("booking email sent via sendgrid", "kind", string(msg.Kind), "booking_id", msg.BookingID, "status", response.StatusCode)
	return nil
}

// StubEmailSender logs instead of sending. Used when EMAIL_PROVIDER is none.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email disabled, booking email logged only",
		"kind", string(msg.Kind), "booking_id", msg.BookingID,
		"to", logging.RedactEmail(msg.To), "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
