package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

func TestNew_SimulatedDefaults(t *testing.T) {
	cfg := config.ChannelsConfig{
		SMS:      config.SMSChannelConfig{Provider: "simulated"},
		WhatsApp: config.WhatsAppChannelConfig{Provider: "simulated"},
		Email:    config.EmailChannelConfig{Provider: "simulated"},
	}

	r, err := New(context.Background(), cfg, logger.NewNoOpLogger())
	require.NoError(t, err)

	for _, ch := range []channel.Channel{channel.SMS, channel.WhatsApp, channel.Email} {
		b, ok := r.Get(ch)
		require.True(t, ok, "channel %s", ch)
		assert.Equal(t, ch, b.Channel())
		assert.Contains(t, b.Name(), "simulated")
	}
}

func TestNew_MissingCredentialsDegradeToSimulated(t *testing.T) {
	cfg := config.ChannelsConfig{
		SMS:      config.SMSChannelConfig{Provider: "twilio"}, // no SID or token
		WhatsApp: config.WhatsAppChannelConfig{Provider: "cloud"},
		Email:    config.EmailChannelConfig{Provider: "smtp"},
	}

	r, err := New(context.Background(), cfg, logger.NewNoOpLogger())
	require.NoError(t, err)

	for _, ch := range []channel.Channel{channel.SMS, channel.WhatsApp, channel.Email} {
		b, ok := r.Get(ch)
		require.True(t, ok)
		assert.Contains(t, b.Name(), "simulated")
	}
}

func TestNew_ConfiguredProvidersSelected(t *testing.T) {
	cfg := config.ChannelsConfig{
		SMS: config.SMSChannelConfig{
			Provider: "twilio",
			Twilio:   config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+1"},
		},
		WhatsApp: config.WhatsAppChannelConfig{
			Provider: "bridge",
			Bridge:   config.WhatsAppBridgeConfig{BaseURL: "http://localhost:8099"},
		},
		Email: config.EmailChannelConfig{
			Provider: "smtp",
			SMTP:     config.SMTPConfig{Host: "mail.example.org", Port: 587},
		},
	}

	r, err := New(context.Background(), cfg, logger.NewNoOpLogger())
	require.NoError(t, err)

	b, _ := r.Get(channel.SMS)
	assert.Equal(t, "twilio", b.Name())
	b, _ = r.Get(channel.WhatsApp)
	assert.Equal(t, "bridge", b.Name())
	b, _ = r.Get(channel.Email)
	assert.Equal(t, "smtp", b.Name())
}

func TestNew_UnknownProviderRejected(t *testing.T) {
	cfg := config.ChannelsConfig{
		SMS: config.SMSChannelConfig{Provider: "morse-code"},
	}
	_, err := New(context.Background(), cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestRegistry_Put(t *testing.T) {
	r := NewEmpty()
	fake := channel.NewSimulated(channel.SMS, 0, 1)
	r.Put(fake)

	got, ok := r.Get(channel.SMS)
	require.True(t, ok)
	assert.Same(t, channel.Backend(fake), got)
}
