package delivery

import (
	"context"
	"encoding/json"
	"time"

	"campaign-engine/internal/models"
)

// StatsCache is the slice of the redis client used for stats caching.
// A nil cache disables caching without changing behaviour.
type StatsCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// DeliveryStats is the aggregate view over all contacts of one message.
type DeliveryStats struct {
	MessageID   string                    `json:"messageId"`
	Total       int                       `json:"total"`
	Delivered   int                       `json:"delivered"`
	Failed      int                       `json:"failed"`
	Pending     int                       `json:"pending"`
	SuccessRate float64                   `json:"successRate"`
	ByStatus    map[string]int            `json:"byStatus"`
	ByChannel   map[string]ChannelSummary `json:"byChannel"`
}

const statsKeyPrefix = "stats:message:"

// MessageDeliveryStats computes delivery stats for the message by grouping
// its contacts by status. Read-only and idempotent; results are cached for a
// short TTL and invalidated by every send or retry pass.
func (e *Engine) MessageDeliveryStats(ctx context.Context, messageID string) (*DeliveryStats, error) {
	if cached := e.cachedStats(ctx, messageID); cached != nil {
		return cached, nil
	}

	if _, err := e.store.GetMessage(ctx, messageID); err != nil {
		return nil, err
	}
	contacts, err := e.store.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	stats := &DeliveryStats{
		MessageID: messageID,
		ByStatus:  map[string]int{},
		ByChannel: map[string]ChannelSummary{},
	}
	for _, c := range contacts {
		stats.Total++
		stats.ByStatus[string(c.Status)]++

		summary := stats.ByChannel[c.Channel]
		switch c.Status {
		case models.StatusDelivered, models.StatusRead:
			stats.Delivered++
			summary.Success++
		case models.StatusFailed:
			stats.Failed++
			summary.Failed++
		case models.StatusPending:
			stats.Pending++
		}
		stats.ByChannel[c.Channel] = summary
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Delivered) / float64(stats.Total) * 100
	}

	e.cacheStats(ctx, messageID, stats)
	return stats, nil
}

func (e *Engine) cachedStats(ctx context.Context, messageID string) *DeliveryStats {
	if e.cache == nil {
		return nil
	}
	raw, err := e.cache.Get(ctx, statsKeyPrefix+messageID)
	if err != nil || raw == "" {
		return nil
	}
	var stats DeliveryStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil
	}
	return &stats
}

func (e *Engine) cacheStats(ctx context.Context, messageID string, stats *DeliveryStats) {
	if e.cache == nil {
		return
	}
	ttl := time.Duration(e.cfg.StatsCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, statsKeyPrefix+messageID, string(raw), ttl); err != nil {
		e.logger.WithError(err).Debug("Stats cache write failed", map[string]interface{}{
			"messageId": messageID,
		})
	}
}

func (e *Engine) invalidateStats(ctx context.Context, messageID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Del(ctx, statsKeyPrefix+messageID); err != nil {
		e.logger.WithError(err).Debug("Stats cache invalidation failed", map[string]interface{}{
			"messageId": messageID,
		})
	}
}
