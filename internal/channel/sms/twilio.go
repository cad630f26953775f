// Package sms holds the SMS channel backends.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

const twilioDefaultBaseURL = "https://api.twilio.com"

// Twilio sends SMS through the Twilio Messages REST API, one message per call.
type Twilio struct {
	cfg    config.TwilioConfig
	client *http.Client
	pacer  *channel.Pacer
	logger logger.Logger
}

func NewTwilio(cfg config.SMSChannelConfig, log logger.Logger) *Twilio {
	return &Twilio{
		cfg:    cfg.Twilio,
		client: &http.Client{Timeout: 30 * time.Second},
		pacer:  channel.NewPacer(cfg.RatePerSecond),
		logger: log,
	}
}

func (t *Twilio) Channel() channel.Channel { return channel.SMS }
func (t *Twilio) Name() string             { return "twilio" }

func (t *Twilio) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	if err := t.pacer.Wait(ctx); err != nil {
		return channel.Failed(address, err.Error())
	}

	base := t.cfg.BaseURL
	if base == "" {
		base = twilioDefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", base, t.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", address)
	form.Set("From", t.cfg.FromNumber)
	form.Set("Body", content.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return channel.Failed(address, err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return channel.Failed(address, err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusCreated {
		t.logger.Warn("Twilio send rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"to":     address,
		})
		return channel.Failed(address, fmt.Sprintf("twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	_ = json.Unmarshal(body, &parsed)
	return channel.Ok(address, parsed.SID)
}

func (t *Twilio) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	return channel.SendManySequential(ctx, t, batch)
}
