package models

import (
	"time"

	"campaign-engine/internal/common/errors"
)

// ContactStatus is the delivery lifecycle state of one contact record.
type ContactStatus string

const (
	StatusPending   ContactStatus = "PENDING"
	StatusSent      ContactStatus = "SENT"
	StatusDelivered ContactStatus = "DELIVERED"
	StatusRead      ContactStatus = "READ"
	StatusFailed    ContactStatus = "FAILED"
	StatusOptedOut  ContactStatus = "OPTED_OUT"
)

const ResponseOptOut = "opt_out"

// transitions is the single source of truth for legal status changes.
// FAILED -> PENDING is the retry path; the retry ceiling is enforced by the
// retry coordinator, not here.
var transitions = map[ContactStatus][]ContactStatus{
	StatusPending:   {StatusSent, StatusDelivered, StatusFailed, StatusOptedOut},
	StatusSent:      {StatusDelivered, StatusFailed, StatusOptedOut},
	StatusDelivered: {StatusRead, StatusOptedOut},
	StatusRead:      {StatusOptedOut},
	StatusFailed:    {StatusPending, StatusOptedOut},
	StatusOptedOut:  {},
}

// CanTransition reports whether the status change is allowed.
func (s ContactStatus) CanTransition(to ContactStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition except opt-out exists.
func (s ContactStatus) IsTerminal() bool {
	return s == StatusOptedOut
}

// Contact is the per voter x campaign x message x channel delivery record.
type Contact struct {
	ID         string `json:"id"`
	VoterID    string `json:"voterId"`
	CampaignID string `json:"campaignId"`
	MessageID  string `json:"messageId"`
	Channel    string `json:"channel"`

	Status   ContactStatus `json:"status"`
	Language string        `json:"language"`

	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`

	ResponseStatus string     `json:"responseStatus,omitempty"`
	ResponseText   string     `json:"responseText,omitempty"`
	ResponseTime   *time.Time `json:"responseTime,omitempty"`

	OpenCount  int `json:"openCount"`
	ClickCount int `json:"clickCount"`
	ReplyCount int `json:"replyCount"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	RetryCount   int    `json:"retryCount"`
}

// TransitionTo validates the status change against the transition table and
// applies its side effects (timestamps and counters).
func (c *Contact) TransitionTo(to ContactStatus, at time.Time) error {
	if !c.Status.CanTransition(to) {
		return errors.NewInvalidTransitionError(string(c.Status), string(to))
	}

	switch to {
	case StatusSent:
		t := at
		c.SentAt = &t
	case StatusDelivered:
		t := at
		if c.SentAt == nil {
			c.SentAt = &t
		}
		c.DeliveredAt = &t
	case StatusRead:
		t := at
		c.ReadAt = &t
		c.OpenCount++
	case StatusFailed:
		c.RetryCount++
	case StatusOptedOut:
		t := at
		c.ResponseStatus = ResponseOptOut
		c.ResponseTime = &t
	case StatusPending:
		// retry re-queue, error fields kept for history
	}

	c.Status = to
	return nil
}

// Fail records the provider error and transitions to FAILED.
func (c *Contact) Fail(code, message string, at time.Time) error {
	if !c.Status.CanTransition(StatusFailed) {
		return errors.NewInvalidTransitionError(string(c.Status), string(StatusFailed))
	}
	c.ErrorCode = code
	c.ErrorMessage = message
	return c.TransitionTo(StatusFailed, at)
}

// RecordResponse stamps an inbound reply on the contact. An opt_out response
// additionally moves the contact to OPTED_OUT when it is not yet there.
func (c *Contact) RecordResponse(status, text string, at time.Time) error {
	c.ResponseStatus = status
	c.ResponseText = text
	t := at
	c.ResponseTime = &t
	c.ReplyCount++

	if status == ResponseOptOut && c.Status != StatusOptedOut {
		if !c.Status.CanTransition(StatusOptedOut) {
			return errors.NewInvalidTransitionError(string(c.Status), string(StatusOptedOut))
		}
		return c.TransitionTo(StatusOptedOut, at)
	}
	return nil
}
