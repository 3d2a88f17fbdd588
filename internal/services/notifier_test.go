package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

func TestEmailNotifierDeliversPerRecipient(t *testing.T) {
	var got []string
	email := &MockEmailService{
		SendEmailFunc: func(ctx context.Context, toEmail, subject, plainText, htmlContent, emailType string) error {
			got = append(got, toEmail)
			assert.Equal(t, "OTP Verification", subject)
			assert.Equal(t, EmailTypeAuthorization, emailType)
			assert.Contains(t, htmlContent, "<p>Your OTP is 123456.</p>")
			if toEmail == "bad@example.com" {
				return errors.New("mailbox unavailable")
			}
			return nil
		},
	}
	n := NewEmailNotifier(logger.NewNop(), email, EmailTypeAuthorization)

	n.Send(context.Background(), "OTP Verification", "Your OTP is 123456.", "bad@example.com", "", "ok@example.com")

	assert.Equal(t, []string{"bad@example.com", "ok@example.com"}, got)
}

func TestLogNotifierNeverPanics(t *testing.T) {
	n := NewLogNotifier(logger.NewNop())
	n.Send(context.Background(), "subject", "body")
}

func TestPlainToHTML(t *testing.T) {
	assert.Equal(t, "<p>a &lt;b&gt;<br>c</p>", plainToHTML("a <b>\nc"))
}
