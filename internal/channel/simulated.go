package channel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Simulated is the no-credentials backend. It accepts every send and flips a
// configurable fraction of them to failure, so the pipeline can be exercised
// end to end without provider accounts.
type Simulated struct {
	channel     Channel
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated builds a simulated backend for the channel. failureRate is the
// probability in [0,1] that a send reports failure; seed makes runs
// reproducible in tests.
func NewSimulated(ch Channel, failureRate float64, seed int64) *Simulated {
	return &Simulated{
		channel:     ch,
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (s *Simulated) Channel() Channel { return s.channel }

func (s *Simulated) Name() string {
	return fmt.Sprintf("%s-simulated", s.channel)
}

func (s *Simulated) SendOne(ctx context.Context, address string, content Content) SendResult {
	if err := ctx.Err(); err != nil {
		return Failed(address, err.Error())
	}
	if address == "" {
		return Failed(address, "empty recipient address")
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll < s.failureRate {
		return Failed(address, "simulated provider failure")
	}
	return Ok(address, "sim-"+uuid.New().String())
}

func (s *Simulated) SendMany(ctx context.Context, batch []Recipient) BatchReport {
	return SendManySequential(ctx, s, batch)
}
