package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

func cloudTestConfig(baseURL string) config.WhatsAppChannelConfig {
	return config.WhatsAppChannelConfig{
		Provider: "cloud",
		Cloud: config.WhatsAppCloudConfig{
			AccessToken:   "token-1",
			PhoneNumberID: "1234567890",
			BaseURL:       baseURL,
		},
	}
}

func TestCloud_SendOne_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotMsg cloudMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.1"}},
		})
	}))
	defer server.Close()

	b := NewCloud(cloudTestConfig(server.URL), logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "919876543210", channel.Content{
		Title: "Campaign Update",
		Body:  "Hi Rahul",
	})

	assert.True(t, res.Success)
	assert.Equal(t, "wamid.1", res.ProviderID)
	assert.Equal(t, "/1234567890/messages", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "whatsapp", gotMsg.MessagingProduct)
	assert.Equal(t, "919876543210", gotMsg.To)
	assert.Equal(t, "*Campaign Update*\n\nHi Rahul", gotMsg.Text.Body)
}

func TestCloud_SendOne_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	b := NewCloud(cloudTestConfig(server.URL), logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "919876543210", channel.Content{Body: "Hi"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "whatsapp cloud status 400")
}

func TestBridge_SendOne_Success(t *testing.T) {
	var gotKey string
	var gotReq bridgeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]string{"messageId": "bridge-1"})
	}))
	defer server.Close()

	cfg := config.WhatsAppChannelConfig{
		Provider: "bridge",
		Bridge: config.WhatsAppBridgeConfig{
			BaseURL:   server.URL,
			APIKey:    "bridge-key",
			SessionID: "session-1",
		},
	}
	b := NewBridge(cfg, logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "919876543210", channel.Content{Body: "Hi Rahul"})

	assert.True(t, res.Success)
	assert.Equal(t, "bridge-1", res.ProviderID)
	assert.Equal(t, "bridge-key", gotKey)
	assert.Equal(t, "session-1", gotReq.Session)
	assert.Equal(t, "Hi Rahul", gotReq.Text)
}
