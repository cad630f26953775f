package sms

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

const (
	msg91DefaultBaseURL   = "https://api.msg91.com"
	msg91DefaultBatchSize = 100
)

// MSG91 sends SMS through the MSG91 bulk API. Unlike the other SMS backends
// it batches natively: one HTTP call carries up to batchSize personalized
// messages.
type MSG91 struct {
	cfg       config.MSG91Config
	batchSize int
	client    *http.Client
	pacer     *channel.Pacer
	logger    logger.Logger
}

func NewMSG91(cfg config.SMSChannelConfig, log logger.Logger) *MSG91 {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = msg91DefaultBatchSize
	}
	return &MSG91{
		cfg:       cfg.MSG91,
		batchSize: batch,
		client:    &http.Client{Timeout: 30 * time.Second},
		pacer:     channel.NewPacer(cfg.RatePerSecond),
		logger:    log,
	}
}

func (m *MSG91) Channel() channel.Channel { return channel.SMS }
func (m *MSG91) Name() string             { return "msg91" }

func (m *MSG91) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	report := m.SendMany(ctx, []channel.Recipient{{Address: address, Content: content}})
	return report.Results[0]
}

type msg91Entry struct {
	Message string   `json:"message"`
	To      []string `json:"to"`
}

type msg91Request struct {
	Sender string       `json:"sender"`
	Route  string       `json:"route"`
	SMS    []msg91Entry `json:"sms"`
}

func (m *MSG91) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	report := channel.BatchReport{Results: make([]channel.SendResult, 0, len(batch))}

	for start := 0; start < len(batch); start += m.batchSize {
		end := start + m.batchSize
		if end > len(batch) {
			end = len(batch)
		}
		chunk := batch[start:end]

		requestID, err := m.postChunk(ctx, chunk)
		for _, r := range chunk {
			var res channel.SendResult
			if err != nil {
				res = channel.Failed(r.Address, err.Error())
				report.FailedCount++
			} else {
				res = channel.Ok(r.Address, requestID)
				report.SuccessCount++
			}
			res.ContactID = r.ContactID
			report.Results = append(report.Results, res)
		}
	}
	return report
}

// postChunk submits one bulk request. MSG91 accepts or rejects the chunk as a
// whole; per-number delivery outcomes arrive later via callbacks.
func (m *MSG91) postChunk(ctx context.Context, chunk []channel.Recipient) (string, error) {
	if err := m.pacer.Wait(ctx); err != nil {
		return "", err
	}

	payload := msg91Request{
		Sender: m.cfg.SenderID,
		Route:  m.cfg.Route,
		SMS:    make([]msg91Entry, 0, len(chunk)),
	}
	for _, r := range chunk {
		payload.SMS = append(payload.SMS, msg91Entry{
			Message: r.Content.Body,
			To:      []string{r.Address},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	base := m.cfg.BaseURL
	if base == "" {
		base = msg91DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v2/sendsms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authkey", m.cfg.AuthKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		m.logger.Warn("MSG91 chunk rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"size":   len(chunk),
		})
		return "", fmt.Errorf("msg91 status %d", resp.StatusCode)
	}

	var parsed struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	_ = json.Unmarshal(raw, &parsed)
	if parsed.Type == "error" {
		return "", fmt.Errorf("msg91 error: %s", parsed.Message)
	}
	if parsed.RequestID != "" {
		return parsed.RequestID, nil
	}
	return parsed.Message, nil
}
