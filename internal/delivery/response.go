package delivery

import (
	"context"

	"campaign-engine/internal/models"
)

// HandleResponse records an inbound reply on the contact. An opt_out response
// moves the contact to OPTED_OUT and bumps the message's opt-out counter, so
// later retry passes skip it.
func (e *Engine) HandleResponse(ctx context.Context, contactID, status, text string) error {
	c, err := e.store.GetContact(ctx, contactID)
	if err != nil {
		return err
	}

	wasOptedOut := c.Status == models.StatusOptedOut
	if err := c.RecordResponse(status, text, e.now()); err != nil {
		return err
	}
	if err := e.store.UpdateContact(ctx, c); err != nil {
		return err
	}

	if c.Status == models.StatusOptedOut && !wasOptedOut {
		if msg, err := e.store.GetMessage(ctx, c.MessageID); err == nil {
			e.updateMessageCounters(ctx, msg, func(m *models.Message) {
				m.OptOutCount++
			})
		}
		e.logger.Info("Contact opted out", map[string]interface{}{
			"contactId": contactID,
			"messageId": c.MessageID,
		})
	}
	e.invalidateStats(ctx, c.MessageID)
	return nil
}

// MarkRead transitions a DELIVERED contact to READ.
func (e *Engine) MarkRead(ctx context.Context, contactID string) error {
	c, err := e.store.GetContact(ctx, contactID)
	if err != nil {
		return err
	}
	if err := c.TransitionTo(models.StatusRead, e.now()); err != nil {
		return err
	}
	if err := e.store.UpdateContact(ctx, c); err != nil {
		return err
	}
	e.invalidateStats(ctx, c.MessageID)
	return nil
}

// RecordClick bumps the contact's click counter without touching its status.
func (e *Engine) RecordClick(ctx context.Context, contactID string) error {
	c, err := e.store.GetContact(ctx, contactID)
	if err != nil {
		return err
	}
	c.ClickCount++
	return e.store.UpdateContact(ctx, c)
}
