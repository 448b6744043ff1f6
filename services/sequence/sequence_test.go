package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mirrors the Mongo pipeline update under a mutex.
type memStore struct {
	mu       sync.Mutex
	counters map[string]*models.Counter
	fail     error
}

func newMemStore() *memStore {
	return &memStore{counters: map[string]*models.Counter{}}
}

func (s *memStore) Increment(_ context.Context, domain, monthKey string, wrap int) (*models.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}

	c, ok := s.counters[domain]
	if !ok {
		c = &models.Counter{Domain: domain}
		s.counters[domain] = c
	}
	if c.MonthKey == monthKey {
		next := c.MonthlyCount + 1
		if wrap > 0 {
			next %= wrap
			if next == 0 {
				next = 1
			}
		}
		c.MonthlyCount = next
	} else {
		c.MonthlyCount = 1
	}
	c.OverallCount++
	c.MonthKey = monthKey
	copied := *c
	return &copied, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

func TestAllocateMonthScenario(t *testing.T) {
	ctx := context.Background()
	a := NewAllocator(newMemStore(), ApplicationDomain(nil))

	first, err := a.Allocate(ctx, DomainApplication, date(2025, time.February, 3))
	require.NoError(t, err)
	assert.Equal(t, "HD-R-001-02/2025-0001", first.ID)

	second, err := a.Allocate(ctx, DomainApplication, date(2025, time.February, 20))
	require.NoError(t, err)
	assert.Equal(t, "HD-R-002-02/2025-0002", second.ID)

	march, err := a.Allocate(ctx, DomainApplication, date(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, "HD-R-001-03/2025-0003", march.ID)
	assert.Equal(t, 1, march.MonthlyCount)
	assert.Equal(t, 3, march.OverallCount)
	assert.Equal(t, "03/2025", march.MonthKey)
}

func TestAllocateMonotonicWithinMonth(t *testing.T) {
	ctx := context.Background()
	a := NewAllocator(newMemStore(), ApplicationDomain(nil))
	now := date(2025, time.June, 1)

	prev := 0
	for i := 0; i < 25; i++ {
		alloc, err := a.Allocate(ctx, DomainApplication, now)
		require.NoError(t, err)
		assert.Greater(t, alloc.OverallCount, prev)
		assert.Equal(t, alloc.OverallCount, alloc.MonthlyCount)
		prev = alloc.OverallCount
	}
}

func TestAllocateWrapsApplicationCount(t *testing.T) {
	store := newMemStore()
	store.counters[DomainApplication] = &models.Counter{
		Domain: DomainApplication, MonthKey: "02/2025", MonthlyCount: 999, OverallCount: 4200,
	}
	a := NewAllocator(store, ApplicationDomain(nil))

	alloc, err := a.Allocate(context.Background(), DomainApplication, date(2025, time.February, 28))
	require.NoError(t, err)
	assert.Equal(t, 1, alloc.MonthlyCount)
	assert.Equal(t, "HD-R-001-02/2025-4201", alloc.ID)
}

func TestAllocateInvoiceDoesNotWrap(t *testing.T) {
	store := newMemStore()
	store.counters[DomainInvoice] = &models.Counter{
		Domain: DomainInvoice, MonthKey: "02/2025", MonthlyCount: 999, OverallCount: 999,
	}
	a := NewAllocator(store, InvoiceDomain(nil))

	alloc, err := a.Allocate(context.Background(), DomainInvoice, date(2025, time.February, 28))
	require.NoError(t, err)
	assert.Equal(t, "HD-INV-1000-02/2025-1000", alloc.ID)
}

func TestDomainsAreIndependent(t *testing.T) {
	ctx := context.Background()
	a := NewAllocator(newMemStore(), ApplicationDomain(nil), InvoiceDomain(nil))
	now := date(2025, time.February, 1)

	_, err := a.Allocate(ctx, DomainApplication, now)
	require.NoError(t, err)
	inv, err := a.Allocate(ctx, DomainInvoice, now)
	require.NoError(t, err)
	assert.Equal(t, "HD-INV-001-02/2025-0001", inv.ID)
}

func TestAllocateUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	a := NewAllocator(newMemStore(), ApplicationDomain(nil))
	now := date(2025, time.April, 10)

	const n = 100
	var (
		mu  sync.Mutex
		ids = make(map[string]struct{}, n)
		wg  conc.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Go(func() {
			alloc, err := a.Allocate(ctx, DomainApplication, now)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[alloc.ID] = struct{}{}
			mu.Unlock()
		})
	}
	wg.Wait()
	assert.Len(t, ids, n)
}

func TestAllocateRetriesOnceWhenTaken(t *testing.T) {
	calls := 0
	taken := func(_ context.Context, id string) (bool, error) {
		calls++
		return id == "HD-R-001-02/2025-0001", nil
	}
	a := NewAllocator(newMemStore(), ApplicationDomain(taken))

	alloc, err := a.Allocate(context.Background(), DomainApplication, date(2025, time.February, 3))
	require.NoError(t, err)
	assert.Equal(t, "HD-R-002-02/2025-0002", alloc.ID)
	assert.Equal(t, 2, calls)
}

func TestAllocateFailsAfterSecondCollision(t *testing.T) {
	taken := func(context.Context, string) (bool, error) { return true, nil }
	a := NewAllocator(newMemStore(), ApplicationDomain(taken))

	_, err := a.Allocate(context.Background(), DomainApplication, date(2025, time.February, 3))
	require.Error(t, err)

	var dup *utils.DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, DomainApplication, dup.Domain)
	assert.Equal(t, "HD-R-002-02/2025-0002", dup.ID)
}

func TestAllocateSurfacesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("connection refused")
	a := NewAllocator(store, ApplicationDomain(nil))

	_, err := a.Allocate(context.Background(), DomainApplication, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAllocateUnknownDomain(t *testing.T) {
	a := NewAllocator(newMemStore())
	_, err := a.Allocate(context.Background(), "receipt", time.Now())
	assert.Error(t, err)
}
