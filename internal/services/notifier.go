package services

import (
	"context"
	"time"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/templates"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

// Notifier delivers a plain-text message. Delivery is best-effort: failures
// are logged by the implementation and never reach the caller.
type Notifier interface {
	Send(ctx context.Context, subject, body string, recipients ...string)
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier returns a Notifier that only logs. It is the default when
// no mail backend is configured.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log.With("service", "LogNotifier")}
}

func (ln *logNotifier) Send(ctx context.Context, subject, body string, recipients ...string) {
	ln.log.Info("Notification not delivered, no mail backend configured", "subject", subject, "recipients", recipients)
	ln.log.Debug("Notification body", "body", body)
}

type emailNotifier struct {
	log       *logger.Logger
	email     EmailService
	emailType string
	logo      string
}

// NewEmailNotifier sends every notification through email as one message
// per recipient, wrapped in the branded layout. EMAIL_LOGO_URL sets the
// header image.
func NewEmailNotifier(log *logger.Logger, email EmailService, emailType string) Notifier {
	serviceLog := log.With("service", "EmailNotifier")
	return &emailNotifier{
		log:       serviceLog,
		email:     email,
		emailType: emailType,
		logo:      utils.GetEnv("EMAIL_LOGO_URL", "", serviceLog),
	}
}

func (en *emailNotifier) Send(ctx context.Context, subject, body string, recipients ...string) {
	htmlContent, err := templates.RenderNotificationHTML(templates.NotificationEmailData{
		Logo:       en.logo,
		Subject:    subject,
		Paragraphs: templates.SplitParagraphs(body),
		Year:       time.Now().Year(),
	})
	if err != nil {
		en.log.Warn("Failed to render notification layout, sending plain body", "subject", subject, "error", err)
		htmlContent = ""
	}
	for _, to := range recipients {
		if to == "" {
			continue
		}
		if err := en.email.SendEmail(ctx, to, subject, body, htmlContent, en.emailType); err != nil {
			en.log.Warn("Failed to deliver notification, continuing", "to", to, "subject", subject, "error", err)
		}
	}
}
