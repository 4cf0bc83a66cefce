// Package gateway provides payment authorizer implementations. The real
// processor integration lives behind domain.Authorizer so the aggregate
// never learns which one is wired in.
package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/metao1/online-store-go/internal/payment/domain"
)

// Simulated approves or declines payments without talking to a real
// processor. DeclineRate is the fraction of authorizations declined,
// Latency is added to every call to mimic a remote round trip.
type Simulated struct {
	DeclineRate float64
	Latency     time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulated(declineRate float64, latency time.Duration) *Simulated {
	return &Simulated{
		DeclineRate: declineRate,
		Latency:     latency,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Simulated) Authorize(ctx context.Context, p *domain.Payment) (domain.AuthResult, error) {
	if g.Latency > 0 {
		select {
		case <-time.After(g.Latency):
		case <-ctx.Done():
			return domain.AuthResult{}, ctx.Err()
		}
	}
	g.mu.Lock()
	declined := g.rnd.Float64() < g.DeclineRate
	g.mu.Unlock()
	if declined {
		return domain.AuthResult{Authorized: false, Reason: "declined by issuer"}, nil
	}
	return domain.AuthResult{Authorized: true}, nil
}
