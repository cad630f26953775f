package delivery

import (
	"context"
	"sync"
	"sync/atomic"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/models"
)

// RetryResult counts one RetryFailedDeliveries pass.
type RetryResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// RetryFailedDeliveries re-queues FAILED contacts of the message that are
// still under the retry ceiling and pushes each through the single-recipient
// delivery path. Contacts at or above the ceiling are skipped without being
// reported.
func (e *Engine) RetryFailedDeliveries(ctx context.Context, messageID string) (*RetryResult, error) {
	msg, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	contacts, err := e.store.ListFailedByMessage(ctx, messageID, e.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}

	result := &RetryResult{}
	if len(contacts) == 0 {
		return result, nil
	}

	e.logger.Info("Retrying failed deliveries", map[string]interface{}{
		"messageId": messageID,
		"contacts":  len(contacts),
	})

	var success, failed int64
	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, c := range contacts {
		wg.Add(1)
		go func(c *models.Contact) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if e.retryOne(ctx, msg, c) {
				atomic.AddInt64(&success, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
		}(c)
	}
	wg.Wait()
	result.Success = int(success)
	result.Failed = int(failed)

	// A recovered contact leaves the failed pool for good.
	e.updateMessageCounters(ctx, msg, func(m *models.Message) {
		m.SentCount += result.Success
		m.DeliveredCount += result.Success
		m.FailedCount -= result.Success
	})
	e.invalidateStats(ctx, messageID)

	e.logger.Info("Retry pass finished", map[string]interface{}{
		"messageId": messageID,
		"success":   result.Success,
		"failed":    result.Failed,
	})
	return result, nil
}

// retryOne re-queues a single FAILED contact and reruns delivery for it.
func (e *Engine) retryOne(ctx context.Context, msg *models.Message, c *models.Contact) bool {
	if err := c.TransitionTo(models.StatusPending, e.now()); err != nil {
		e.logger.WithError(err).Warn("Contact not retryable", map[string]interface{}{
			"contactId": c.ID,
			"status":    string(c.Status),
		})
		return false
	}
	e.persistContact(ctx, c)

	ch, ok := channel.Parse(c.Channel)
	if !ok {
		return false
	}
	backend, ok := e.registry.Get(ch)
	if !ok {
		return false
	}
	return e.deliverOne(ctx, msg, backend, c).Success
}
