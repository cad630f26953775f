package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

// SMTP sends email through a plain SMTP relay, optionally over STARTTLS.
type SMTP struct {
	cfg    config.SMTPConfig
	pacer  *channel.Pacer
	logger logger.Logger
}

func NewSMTP(cfg config.EmailChannelConfig, log logger.Logger) *SMTP {
	return &SMTP{
		cfg:    cfg.SMTP,
		pacer:  channel.NewPacer(cfg.RatePerSecond),
		logger: log,
	}
}

func (s *SMTP) Channel() channel.Channel { return channel.Email }
func (s *SMTP) Name() string             { return "smtp" }

func (s *SMTP) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	if err := s.pacer.Wait(ctx); err != nil {
		return channel.Failed(address, err.Error())
	}
	if !isValidEmail(address) {
		return channel.Failed(address, fmt.Sprintf("invalid email address: %s", address))
	}

	message := s.buildEmailMessage(address, content)
	if err := s.send(ctx, address, message); err != nil {
		s.logger.Warn("SMTP send failed", map[string]interface{}{"to": address})
		return channel.Failed(address, err.Error())
	}
	return channel.Ok(address, s.generateMessageID(address))
}

func (s *SMTP) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	return channel.SendManySequential(ctx, s, batch)
}

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return false
	}
	return strings.Contains(parts[1], ".")
}

func (s *SMTP) buildEmailMessage(to string, content channel.Content) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.From))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", to))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", content.Title))
	builder.WriteString("MIME-Version: 1.0\r\n")

	if content.RichBody != "" {
		builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		builder.WriteString("\r\n")
		builder.WriteString(content.RichBody)
	} else {
		builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		builder.WriteString("\r\n")
		builder.WriteString(content.Body)
	}

	return builder.String()
}

func (s *SMTP) send(ctx context.Context, to, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseTLS {
		return s.sendWithTLS(addr, auth, []string{to}, []byte(message))
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(message))
}

func (s *SMTP) sendWithTLS(addr string, auth smtp.Auth, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: false,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (s *SMTP) generateMessageID(to string) string {
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), sanitizeEmail(to), s.cfg.Host)
}

func sanitizeEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 0 {
		return "user"
	}
	local := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, parts[0])
	if len(local) > 10 {
		local = local[:10]
	}
	if local == "" {
		return "user"
	}
	return local
}
