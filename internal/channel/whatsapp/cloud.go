// Package whatsapp holds the WhatsApp channel backends.
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

const cloudDefaultBaseURL = "https://graph.facebook.com/v18.0"

// Cloud sends messages through the Meta WhatsApp Cloud API.
type Cloud struct {
	cfg    config.WhatsAppCloudConfig
	client *http.Client
	pacer  *channel.Pacer
	logger logger.Logger
}

func NewCloud(cfg config.WhatsAppChannelConfig, log logger.Logger) *Cloud {
	return &Cloud{
		cfg:    cfg.Cloud,
		client: &http.Client{Timeout: 30 * time.Second},
		pacer:  channel.NewPacer(cfg.RatePerSecond),
		logger: log,
	}
}

func (c *Cloud) Channel() channel.Channel { return channel.WhatsApp }
func (c *Cloud) Name() string             { return "cloud" }

type cloudMessage struct {
	MessagingProduct string    `json:"messaging_product"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             cloudText `json:"text"`
}

type cloudText struct {
	Body string `json:"body"`
}

func (c *Cloud) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	if err := c.pacer.Wait(ctx); err != nil {
		return channel.Failed(address, err.Error())
	}

	body := content.Body
	if content.Title != "" {
		body = "*" + content.Title + "*\n\n" + body
	}
	payload, err := json.Marshal(cloudMessage{
		MessagingProduct: "whatsapp",
		To:               address,
		Type:             "text",
		Text:             cloudText{Body: body},
	})
	if err != nil {
		return channel.Failed(address, err.Error())
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = cloudDefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/%s/messages", base, c.cfg.PhoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return channel.Failed(address, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return channel.Failed(address, err.Error())
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("WhatsApp Cloud send rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"to":     address,
		})
		return channel.Failed(address, fmt.Sprintf("whatsapp cloud status %d", resp.StatusCode))
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(raw, &parsed)
	providerID := ""
	if len(parsed.Messages) > 0 {
		providerID = parsed.Messages[0].ID
	}
	return channel.Ok(address, providerID)
}

func (c *Cloud) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	return channel.SendManySequential(ctx, c, batch)
}
