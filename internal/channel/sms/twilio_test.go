package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

func twilioTestConfig(baseURL string) config.SMSChannelConfig {
	return config.SMSChannelConfig{
		Provider: "twilio",
		Twilio: config.TwilioConfig{
			AccountSID: "AC123",
			AuthToken:  "secret",
			FromNumber: "+15550001111",
			BaseURL:    baseURL,
		},
	}
}

func TestTwilio_SendOne_Success(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM42"}`))
	}))
	defer server.Close()

	b := NewTwilio(twilioTestConfig(server.URL), logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "+919876543210", channel.Content{Body: "Hi Rahul"})

	assert.True(t, res.Success)
	assert.Equal(t, "SM42", res.ProviderID)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "+919876543210", gotTo)
	assert.Equal(t, "+15550001111", gotFrom)
	assert.Equal(t, "Hi Rahul", gotBody)
}

func TestTwilio_SendOne_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"authenticate"}`))
	}))
	defer server.Close()

	b := NewTwilio(twilioTestConfig(server.URL), logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "+919876543210", channel.Content{Body: "Hi"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "twilio status 401")
}

func TestTwilio_SendOne_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	b := NewTwilio(twilioTestConfig(server.URL), logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "+919876543210", channel.Content{Body: "Hi"})

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}
