// Package delivery orchestrates personalized fan-out of one campaign message
// to its pending contacts, with bounded retries and aggregated stats.
package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/channel/registry"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/errors"
	"campaign-engine/internal/common/logger"
	"campaign-engine/internal/common/metrics"
	"campaign-engine/internal/models"
	"campaign-engine/internal/personalize"
	"campaign-engine/internal/store"
)

// Engine wires the stores, the channel registry and the stats cache into the
// delivery entry points. One instance serves the whole process.
type Engine struct {
	store    store.Store
	registry *registry.Registry
	cache    StatsCache
	cfg      config.DeliveryConfig
	logger   logger.Logger

	now func() time.Time
}

func New(st store.Store, reg *registry.Registry, cache StatsCache, cfg config.DeliveryConfig, log logger.Logger) *Engine {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Engine{
		store:    st,
		registry: reg,
		cache:    cache,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// DeliveryOutcome is the per-contact result of one bulk run.
type DeliveryOutcome struct {
	ContactID string `json:"contactId"`
	VoterID   string `json:"voterId"`
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ChannelSummary counts outcomes within one channel group.
type ChannelSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// BulkDeliveryResult aggregates one SendCampaignMessage run. Always satisfies
// len(Results) == Total and Successful+Failed == Total.
type BulkDeliveryResult struct {
	RunID      string                    `json:"runId"`
	MessageID  string                    `json:"messageId"`
	CampaignID string                    `json:"campaignId"`
	Total      int                       `json:"total"`
	Successful int                       `json:"successful"`
	Failed     int                       `json:"failed"`
	Results    []DeliveryOutcome         `json:"results"`
	Summary    map[string]ChannelSummary `json:"summary"`
}

// SendCampaignMessage delivers the message to every PENDING contact of the
// campaign. Per-recipient failures are folded into the result; only an
// unresolvable message id aborts the run.
func (e *Engine) SendCampaignMessage(ctx context.Context, messageID, campaignID string) (*BulkDeliveryResult, error) {
	msg, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	contacts, err := e.store.ListPendingByCampaign(ctx, campaignID, messageID)
	if err != nil {
		return nil, err
	}

	result := &BulkDeliveryResult{
		RunID:      uuid.New().String(),
		MessageID:  messageID,
		CampaignID: campaignID,
		Results:    []DeliveryOutcome{},
		Summary:    map[string]ChannelSummary{},
	}
	if len(contacts) == 0 {
		return result, nil
	}

	e.logger.Info("Starting bulk delivery", map[string]interface{}{
		"runId":      result.RunID,
		"messageId":  messageID,
		"campaignId": campaignID,
		"contacts":   len(contacts),
	})

	for _, group := range groupByChannel(contacts) {
		outcomes := e.deliverGroup(ctx, msg, group)
		summary := result.Summary[group.name]
		for _, out := range outcomes {
			result.Results = append(result.Results, out)
			if out.Success {
				result.Successful++
				summary.Success++
			} else {
				result.Failed++
				summary.Failed++
			}
		}
		result.Summary[group.name] = summary
	}
	result.Total = len(result.Results)

	e.updateMessageCounters(ctx, msg, func(m *models.Message) {
		m.TotalRecipients += result.Total
		m.SentCount += result.Successful
		m.DeliveredCount += result.Successful
		m.FailedCount += result.Failed
	})
	e.invalidateStats(ctx, messageID)

	e.logger.Info("Bulk delivery finished", map[string]interface{}{
		"runId":      result.RunID,
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
	})
	return result, nil
}

type channelGroup struct {
	name     string
	contacts []*models.Contact
}

// groupByChannel preserves first-seen channel order for stable summaries.
func groupByChannel(contacts []*models.Contact) []channelGroup {
	index := map[string]int{}
	var groups []channelGroup
	for _, c := range contacts {
		i, ok := index[c.Channel]
		if !ok {
			i = len(groups)
			index[c.Channel] = i
			groups = append(groups, channelGroup{name: c.Channel})
		}
		groups[i].contacts = append(groups[i].contacts, c)
	}
	return groups
}

// deliverGroup fans one channel group out over a bounded worker pool. Results
// are index-aligned with the group's contacts.
func (e *Engine) deliverGroup(ctx context.Context, msg *models.Message, group channelGroup) []DeliveryOutcome {
	outcomes := make([]DeliveryOutcome, len(group.contacts))

	ch, ok := channel.Parse(group.name)
	var backend channel.Backend
	if ok {
		backend, ok = e.registry.Get(ch)
	}
	if !ok {
		for i, c := range group.contacts {
			outcomes[i] = e.failContact(ctx, c, errors.ErrCodeProviderError,
				fmt.Sprintf("no backend configured for channel %q", group.name))
		}
		return outcomes
	}

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, c := range group.contacts {
		wg.Add(1)
		go func(i int, c *models.Contact) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = e.deliverOne(ctx, msg, backend, c)
		}(i, c)
	}
	wg.Wait()
	return outcomes
}

// deliverOne runs the single-recipient path: resolve, render, send, transition,
// persist. It never returns an error; everything folds into the outcome.
func (e *Engine) deliverOne(ctx context.Context, msg *models.Message, backend channel.Backend, c *models.Contact) DeliveryOutcome {
	metrics.DeliveryInflight.WithLabelValues(c.Channel).Inc()
	start := e.now()
	defer func() {
		metrics.DeliveryInflight.WithLabelValues(c.Channel).Dec()
		metrics.DeliveryDuration.WithLabelValues(c.Channel).Observe(time.Since(start).Seconds())
	}()

	voter, err := e.store.GetVoter(ctx, c.VoterID)
	if err != nil {
		return e.failContact(ctx, c, errors.CodeOf(err), err.Error())
	}

	address := addressFor(backend.Channel(), voter)
	if address == "" {
		addrErr := errors.NewRecipientAddressMissingError(c.Channel, voter.ID)
		return e.failContact(ctx, c, addrErr.Code, addrErr.Details)
	}

	lang := voter.PreferredLanguage
	if lang == "" {
		lang = msg.DefaultLanguage
	}
	if lang == "" {
		lang = e.cfg.DefaultLanguage
	}
	rendered := personalize.Personalize(msg, voter.TemplateAttributes(), lang)
	c.Language = lang

	res := safeSendOne(ctx, backend, address, channel.Content{
		Title:    rendered.Title,
		Body:     rendered.Content,
		RichBody: rendered.RichContent,
	})
	if !res.Success {
		return e.failContact(ctx, c, errors.ErrCodeProviderError, res.Error)
	}

	now := e.now()
	if err := c.TransitionTo(models.StatusSent, now); err != nil {
		e.logger.WithError(err).Warn("Unexpected contact state on send", map[string]interface{}{
			"contactId": c.ID,
			"status":    string(c.Status),
		})
	}
	if err := c.TransitionTo(models.StatusDelivered, now); err != nil {
		e.logger.WithError(err).Warn("Unexpected contact state on delivery", map[string]interface{}{
			"contactId": c.ID,
			"status":    string(c.Status),
		})
	}
	e.persistContact(ctx, c)

	metrics.DeliverySends.WithLabelValues(c.Channel, "success").Inc()
	return DeliveryOutcome{
		ContactID: c.ID,
		VoterID:   c.VoterID,
		Channel:   c.Channel,
		Success:   true,
	}
}

// failContact marks the contact FAILED, persists it and returns the outcome.
func (e *Engine) failContact(ctx context.Context, c *models.Contact, code errors.ErrorCode, detail string) DeliveryOutcome {
	if err := c.Fail(string(code), detail, e.now()); err != nil {
		e.logger.WithError(err).Warn("Contact cannot enter FAILED", map[string]interface{}{
			"contactId": c.ID,
			"status":    string(c.Status),
		})
	} else {
		e.persistContact(ctx, c)
	}

	metrics.DeliverySends.WithLabelValues(c.Channel, "failed").Inc()
	metrics.DeliveryFailures.WithLabelValues(c.Channel, string(code)).Inc()
	return DeliveryOutcome{
		ContactID: c.ID,
		VoterID:   c.VoterID,
		Channel:   c.Channel,
		Success:   false,
		ErrorCode: string(code),
		Error:     detail,
	}
}

// persistContact writes the contact state. A failed write is logged and
// counted, never auto-retried.
func (e *Engine) persistContact(ctx context.Context, c *models.Contact) {
	if err := e.store.UpdateContact(ctx, c); err != nil {
		metrics.DeliveryFailures.WithLabelValues(c.Channel, string(errors.ErrCodePersistenceError)).Inc()
		e.logger.WithError(err).Error("Contact state write failed", map[string]interface{}{
			"contactId": c.ID,
			"status":    string(c.Status),
		})
	}
}

func (e *Engine) updateMessageCounters(ctx context.Context, msg *models.Message, apply func(*models.Message)) {
	apply(msg)
	if msg.FailedCount < 0 {
		msg.FailedCount = 0
	}
	if err := e.store.UpdateCounters(ctx, msg); err != nil {
		e.logger.WithError(err).Error("Message counter update failed", map[string]interface{}{
			"messageId": msg.ID,
		})
	}
}

// safeSendOne shields the pipeline from a panicking backend; a panic counts
// as a reported failure for that recipient only.
func safeSendOne(ctx context.Context, b channel.Backend, address string, content channel.Content) (res channel.SendResult) {
	defer func() {
		if r := recover(); r != nil {
			res = channel.Failed(address, fmt.Sprintf("backend panic: %v", r))
		}
	}()
	return b.SendOne(ctx, address, content)
}

// addressFor resolves the voter's address for the channel.
func addressFor(ch channel.Channel, v *models.Voter) string {
	switch ch {
	case channel.SMS, channel.WhatsApp:
		return v.Phone
	case channel.Email:
		return v.Email
	}
	return ""
}
