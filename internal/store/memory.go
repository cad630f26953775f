package store

import (
	"context"
	"sort"
	"sync"

	"campaign-engine/internal/common/errors"
	"campaign-engine/internal/models"
)

// MemoryStore is an in-memory Store for tests and credential-free runs.
// Records are copied on the way in and out so callers never share state
// with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	voters   map[string]*models.Voter
	contacts map[string]*models.Contact
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]*models.Message),
		voters:   make(map[string]*models.Voter),
		contacts: make(map[string]*models.Contact),
	}
}

// AddMessage seeds a message. Not part of the Store interface.
func (s *MemoryStore) AddMessage(msg *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.ID] = &cp
}

// AddVoter seeds a voter.
func (s *MemoryStore) AddVoter(v *models.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.voters[v.ID] = &cp
}

// AddContact seeds a contact.
func (s *MemoryStore) AddContact(c *models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.contacts[c.ID] = &cp
}

func (s *MemoryStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, errors.NewMessageNotFoundError(id)
	}
	cp := *msg
	return &cp, nil
}

func (s *MemoryStore) UpdateCounters(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[msg.ID]
	if !ok {
		return errors.NewMessageNotFoundError(msg.ID)
	}
	stored.TotalRecipients = msg.TotalRecipients
	stored.SentCount = msg.SentCount
	stored.DeliveredCount = msg.DeliveredCount
	stored.FailedCount = msg.FailedCount
	stored.OptOutCount = msg.OptOutCount
	return nil
}

func (s *MemoryStore) GetVoter(ctx context.Context, id string) (*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voters[id]
	if !ok {
		return nil, errors.NewVoterNotFoundError(id)
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, errors.NewContactNotFoundError(id)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListPendingByCampaign(ctx context.Context, campaignID, messageID string) ([]*models.Contact, error) {
	return s.list(func(c *models.Contact) bool {
		return c.CampaignID == campaignID && c.MessageID == messageID && c.Status == models.StatusPending
	}), nil
}

func (s *MemoryStore) ListFailedByMessage(ctx context.Context, messageID string, maxRetries int) ([]*models.Contact, error) {
	return s.list(func(c *models.Contact) bool {
		return c.MessageID == messageID && c.Status == models.StatusFailed && c.RetryCount < maxRetries
	}), nil
}

func (s *MemoryStore) ListByMessage(ctx context.Context, messageID string) ([]*models.Contact, error) {
	return s.list(func(c *models.Contact) bool {
		return c.MessageID == messageID
	}), nil
}

func (s *MemoryStore) UpdateContact(ctx context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[c.ID]; !ok {
		return errors.NewContactNotFoundError(c.ID)
	}
	cp := *c
	s.contacts[c.ID] = &cp
	return nil
}

// list returns matching contacts ordered by id for stable iteration.
func (s *MemoryStore) list(match func(*models.Contact) bool) []*models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Contact
	for _, c := range s.contacts {
		if match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
