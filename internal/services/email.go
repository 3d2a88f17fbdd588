package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

const (
	EmailTypeAuthorization = "authorization"
	EmailTypeSupport       = "support"
)

type EmailService interface {
	SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string, emailType string) error
}

type emailService struct {
	log                    *logger.Logger
	client                 *sendgrid.Client
	fromSupportEmail       string
	fromAuthorizationEmail string
}

// NewEmailService builds the SendGrid sender. It fails when SENDGRID_API_KEY
// is unset so the caller can fall back to SMTP.
func NewEmailService(log *logger.Logger) (EmailService, error) {
	serviceLog := log.With("service", "EmailService")
	apiKey := utils.GetEnv("SENDGRID_API_KEY", "", serviceLog)
	if apiKey == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY environment variable")
	}
	fromSupport := utils.GetEnv("SENDGRID_SUPPORT_EMAIL", "support@furnihome.shop", serviceLog)
	fromAuth := utils.GetEnv("SENDGRID_AUTHORIZATION_EMAIL", "no-reply@furnihome.shop", serviceLog)
	return &emailService{
		log:                    serviceLog,
		client:                 sendgrid.NewSendClient(apiKey),
		fromSupportEmail:       fromSupport,
		fromAuthorizationEmail: fromAuth,
	}, nil
}

func (es *emailService) SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string, emailType string) error {
	fromName, fromEmail := "FurniHome", es.fromSupportEmail
	if emailType == EmailTypeAuthorization {
		fromName, fromEmail = "FurniHome Accounts", es.fromAuthorizationEmail
	}
	if htmlContent == "" {
		htmlContent = plainToHTML(plainText)
	}
	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := es.client.SendWithContext(ctx, message)
	if err != nil {
		es.log.Warn("Sendgrid email send failed", "error", err)
		return err
	}
	if response.StatusCode >= 400 {
		es.log.Warn("Sendgrid rejected email", "statusCode", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
	return nil
}

type smtpEmailService struct {
	log    *logger.Logger
	dialer *gomail.Dialer
	from   string
}

// NewSMTPEmailService sends through a plain SMTP relay configured with
// SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD and SMTP_FROM.
func NewSMTPEmailService(log *logger.Logger) (EmailService, error) {
	serviceLog := log.With("service", "SMTPEmailService")
	host := utils.GetEnv("SMTP_HOST", "", serviceLog)
	if host == "" {
		return nil, fmt.Errorf("missing SMTP_HOST environment variable")
	}
	port := utils.GetEnvAsInt("SMTP_PORT", 587, serviceLog)
	username := utils.GetEnv("SMTP_USERNAME", "", serviceLog)
	password := utils.GetEnv("SMTP_PASSWORD", "", serviceLog)
	from := utils.GetEnv("SMTP_FROM", username, serviceLog)
	if from == "" {
		from = "no-reply@furnihome.shop"
	}
	return &smtpEmailService{
		log:    serviceLog,
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

func (ss *smtpEmailService) SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string, emailType string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", ss.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainText)
	if htmlContent != "" {
		m.AddAlternative("text/html", htmlContent)
	}
	done := make(chan error, 1)
	go func() { done <- ss.dialer.DialAndSend(m) }()
	select {
	case <-ctx.Done():
		ss.log.Warn("SMTP send abandoned", "to", toEmail, "error", ctx.Err())
		return ctx.Err()
	case err := <-done:
		if err != nil {
			ss.log.Warn("SMTP send failed", "to", toEmail, "error", err)
			return err
		}
	}
	ss.log.Info("Email sent", "to", toEmail, "via", "smtp")
	return nil
}

func plainToHTML(text string) string {
	escaped := html.EscapeString(text)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
