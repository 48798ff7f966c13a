package bootstrap

import (
	"fmt"

	appconfig "github.com/wolfman30/eyeclinic-web/internal/config"
	"github.com/wolfman30/eyeclinic-web/internal/notify"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

// BuildEmailSender selects the confirmation email provider from
// EMAIL_PROVIDER. ses is only valid with a client; "none" logs instead of
// sending. A provider missing its credentials degrades to the stub.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	from := notify.SenderIdentity{Email: cfg.EmailFromAddress, Name: cfg.EmailFromName}
	if from.Name == "" {
		from.Name = cfg.ClinicName
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger)
		if sender == nil {
			logger.Warn("EMAIL_PROVIDER=sendgrid without SENDGRID_API_KEY; emails will be logged only")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case "ses":
		sender := notify.NewSESSender(ses, from, logger)
		if sender == nil {
			logger.Warn("EMAIL_PROVIDER=ses without an SES client; emails will be logged only")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case "none", "stub", "":
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}
