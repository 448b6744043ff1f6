package counterRepo

import (
	"context"

	"clinicdesk/models"
)

// CounterRepository stores per-domain id allocator state.
type CounterRepository interface {
	// Increment atomically advances the domain's counters for monthKey and
	// returns the state after the increment. wrap > 0 bounds the monthly count.
	Increment(ctx context.Context, domain, monthKey string, wrap int) (*models.Counter, error)
	// DeleteAll removes every counter. Administrative reset only.
	DeleteAll(ctx context.Context) (int64, error)
}
