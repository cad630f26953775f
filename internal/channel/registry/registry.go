// Package registry builds one delivery backend per channel from configuration.
package registry

import (
	"context"
	"fmt"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/channel/email"
	"campaign-engine/internal/channel/sms"
	"campaign-engine/internal/channel/whatsapp"
	"campaign-engine/internal/common/aws"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

// simulatedFailureRate keeps end-to-end runs realistic without credentials.
const simulatedFailureRate = 0.05

// Registry holds the configured backend for each channel.
type Registry struct {
	backends map[channel.Channel]channel.Backend
}

// New builds the per-channel backends selected by cfg. A provider with
// missing credentials degrades to the simulated backend with a warning
// instead of failing startup.
func New(ctx context.Context, cfg config.ChannelsConfig, log logger.Logger) (*Registry, error) {
	r := &Registry{backends: make(map[channel.Channel]channel.Backend, 3)}

	smsBackend, err := buildSMS(ctx, cfg.SMS, log)
	if err != nil {
		return nil, err
	}
	r.backends[channel.SMS] = smsBackend

	waBackend, err := buildWhatsApp(cfg.WhatsApp, log)
	if err != nil {
		return nil, err
	}
	r.backends[channel.WhatsApp] = waBackend

	emailBackend, err := buildEmail(ctx, cfg.Email, log)
	if err != nil {
		return nil, err
	}
	r.backends[channel.Email] = emailBackend

	for ch, b := range r.backends {
		log.Info("Channel backend configured", map[string]interface{}{
			"channel": string(ch),
			"backend": b.Name(),
		})
	}
	return r, nil
}

// Get returns the backend for the channel.
func (r *Registry) Get(ch channel.Channel) (channel.Backend, bool) {
	b, ok := r.backends[ch]
	return b, ok
}

// Put replaces the backend for a channel. Used by tests to inject fakes.
func (r *Registry) Put(b channel.Backend) {
	if r.backends == nil {
		r.backends = make(map[channel.Channel]channel.Backend)
	}
	r.backends[b.Channel()] = b
}

// NewEmpty builds a registry without backends, to be filled via Put.
func NewEmpty() *Registry {
	return &Registry{backends: make(map[channel.Channel]channel.Backend)}
}

func buildSMS(ctx context.Context, cfg config.SMSChannelConfig, log logger.Logger) (channel.Backend, error) {
	switch cfg.Provider {
	case "twilio":
		if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
			return simulated(channel.SMS, "twilio", log), nil
		}
		return sms.NewTwilio(cfg, log), nil
	case "msg91":
		if cfg.MSG91.AuthKey == "" {
			return simulated(channel.SMS, "msg91", log), nil
		}
		return sms.NewMSG91(cfg, log), nil
	case "sns":
		client, err := aws.NewSNSClient(ctx, cfg.SNS.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		return sms.NewSNS(cfg, client, log), nil
	case "simulated", "":
		return channel.NewSimulated(channel.SMS, simulatedFailureRate, 1), nil
	}
	return nil, fmt.Errorf("unknown sms provider: %s", cfg.Provider)
}

func buildWhatsApp(cfg config.WhatsAppChannelConfig, log logger.Logger) (channel.Backend, error) {
	switch cfg.Provider {
	case "cloud":
		if cfg.Cloud.AccessToken == "" || cfg.Cloud.PhoneNumberID == "" {
			return simulated(channel.WhatsApp, "cloud", log), nil
		}
		return whatsapp.NewCloud(cfg, log), nil
	case "bridge":
		if cfg.Bridge.BaseURL == "" {
			return simulated(channel.WhatsApp, "bridge", log), nil
		}
		return whatsapp.NewBridge(cfg, log), nil
	case "simulated", "":
		return channel.NewSimulated(channel.WhatsApp, simulatedFailureRate, 2), nil
	}
	return nil, fmt.Errorf("unknown whatsapp provider: %s", cfg.Provider)
}

func buildEmail(ctx context.Context, cfg config.EmailChannelConfig, log logger.Logger) (channel.Backend, error) {
	switch cfg.Provider {
	case "ses":
		if cfg.SES.FromEmail == "" {
			return simulated(channel.Email, "ses", log), nil
		}
		client, err := aws.NewSESClient(ctx, cfg.SES.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		return email.NewSES(cfg, client, log), nil
	case "smtp":
		if cfg.SMTP.Host == "" {
			return simulated(channel.Email, "smtp", log), nil
		}
		return email.NewSMTP(cfg, log), nil
	case "simulated", "":
		return channel.NewSimulated(channel.Email, simulatedFailureRate, 3), nil
	}
	return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
}

func simulated(ch channel.Channel, provider string, log logger.Logger) channel.Backend {
	log.Warn("Provider credentials missing, using simulated backend", map[string]interface{}{
		"channel":  string(ch),
		"provider": provider,
	})
	return channel.NewSimulated(ch, simulatedFailureRate, 1)
}
