// Package store persists messages, voters and contact delivery records.
package store

import (
	"context"

	"campaign-engine/internal/models"
)

// ContactStore reads and writes per-recipient delivery records.
type ContactStore interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	ListPendingByCampaign(ctx context.Context, campaignID, messageID string) ([]*models.Contact, error)
	ListFailedByMessage(ctx context.Context, messageID string, maxRetries int) ([]*models.Contact, error)
	ListByMessage(ctx context.Context, messageID string) ([]*models.Contact, error)
	UpdateContact(ctx context.Context, contact *models.Contact) error
}

// MessageStore reads messages and writes their aggregate counters.
type MessageStore interface {
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateCounters(ctx context.Context, msg *models.Message) error
}

// VoterStore reads recipient records. The engine never writes voters.
type VoterStore interface {
	GetVoter(ctx context.Context, id string) (*models.Voter, error)
}

// Store bundles the three persistence surfaces the engine needs.
type Store interface {
	ContactStore
	MessageStore
	VoterStore
}
