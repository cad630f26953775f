package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

// Bridge sends messages through a self-hosted WhatsApp session bridge. The
// bridge multiplexes one logged-in session and exposes a plain JSON API.
type Bridge struct {
	cfg    config.WhatsAppBridgeConfig
	client *http.Client
	pacer  *channel.Pacer
	logger logger.Logger
}

func NewBridge(cfg config.WhatsAppChannelConfig, log logger.Logger) *Bridge {
	return &Bridge{
		cfg:    cfg.Bridge,
		client: &http.Client{Timeout: 30 * time.Second},
		pacer:  channel.NewPacer(cfg.RatePerSecond),
		logger: log,
	}
}

func (b *Bridge) Channel() channel.Channel { return channel.WhatsApp }
func (b *Bridge) Name() string             { return "bridge" }

type bridgeRequest struct {
	Session string `json:"session"`
	To      string `json:"to"`
	Text    string `json:"text"`
}

func (b *Bridge) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	if err := b.pacer.Wait(ctx); err != nil {
		return channel.Failed(address, err.Error())
	}

	payload, err := json.Marshal(bridgeRequest{
		Session: b.cfg.SessionID,
		To:      address,
		Text:    content.Body,
	})
	if err != nil {
		return channel.Failed(address, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/api/send", bytes.NewReader(payload))
	if err != nil {
		return channel.Failed(address, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", b.cfg.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return channel.Failed(address, err.Error())
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		b.logger.Warn("WhatsApp bridge send rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"to":     address,
		})
		return channel.Failed(address, fmt.Sprintf("whatsapp bridge status %d", resp.StatusCode))
	}

	var parsed struct {
		MessageID string `json:"messageId"`
	}
	_ = json.Unmarshal(raw, &parsed)
	return channel.Ok(address, parsed.MessageID)
}

func (b *Bridge) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	return channel.SendManySequential(ctx, b, batch)
}
