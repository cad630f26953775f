package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

func smtpTestBackend() *SMTP {
	cfg := config.EmailChannelConfig{
		Provider: "smtp",
		SMTP: config.SMTPConfig{
			Host: "mail.example.org",
			Port: 587,
			From: "campaign@example.org",
		},
	}
	return NewSMTP(cfg, logger.NewNoOpLogger())
}

func TestSMTP_BuildEmailMessage(t *testing.T) {
	b := smtpTestBackend()

	t.Run("html body when rich content present", func(t *testing.T) {
		msg := b.buildEmailMessage("rahul@example.org", channel.Content{
			Title:    "Campaign Update",
			Body:     "Hi Rahul",
			RichBody: "<p>Hi Rahul</p>",
		})
		assert.Contains(t, msg, "From: campaign@example.org\r\n")
		assert.Contains(t, msg, "To: rahul@example.org\r\n")
		assert.Contains(t, msg, "Subject: Campaign Update\r\n")
		assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8\r\n")
		assert.True(t, strings.HasSuffix(msg, "<p>Hi Rahul</p>"))
	})

	t.Run("plain body otherwise", func(t *testing.T) {
		msg := b.buildEmailMessage("rahul@example.org", channel.Content{Title: "T", Body: "plain"})
		assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
		assert.True(t, strings.HasSuffix(msg, "plain"))
	})
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"rahul@example.org", true},
		{" rahul@example.org ", true},
		{"", false},
		{"no-at-sign", false},
		{"@example.org", false},
		{"rahul@", false},
		{"rahul@nodot", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, isValidEmail(tt.email), "email %q", tt.email)
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "rahul", sanitizeEmail("rahul@example.org"))
	assert.Equal(t, "rahulsharm", sanitizeEmail("rahul.shar-ma@example.org"))
	assert.Equal(t, "user", sanitizeEmail("....@example.org"))
}

func TestSMTP_SendOne_InvalidAddress(t *testing.T) {
	b := smtpTestBackend()
	res := b.SendOne(context.Background(), "not-an-email", channel.Content{Title: "T", Body: "b"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid email address")
}
