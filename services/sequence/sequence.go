package sequence

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	DomainApplication = "application"
	DomainInvoice     = "invoice"

	applicationPrefix = "HD-R"
	invoicePrefix     = "HD-INV"
	applicationWrap   = 1000

	maxAttempts = 2
)

var allocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clinicdesk_sequence_allocations_total",
		Help: "Human-readable ids handed out, by domain.",
	},
	[]string{"domain"},
)

func init() {
	prometheus.MustRegister(allocations)
}

// Store is the atomic counter the allocator draws from.
type Store interface {
	Increment(ctx context.Context, domain, monthKey string, wrap int) (*models.Counter, error)
}

// TakenFunc reports whether an id is already used by a stored record.
type TakenFunc func(ctx context.Context, id string) (bool, error)

// Domain describes one id namespace.
type Domain struct {
	Name   string
	Prefix string
	Wrap   int // 0 means the monthly count never wraps
	Taken  TakenFunc
}

// ApplicationDomain numbers applications: HD-R-001-02/2025-0001.
func ApplicationDomain(taken TakenFunc) Domain {
	return Domain{Name: DomainApplication, Prefix: applicationPrefix, Wrap: applicationWrap, Taken: taken}
}

// InvoiceDomain numbers invoices: HD-INV-001-02/2025-0001.
func InvoiceDomain(taken TakenFunc) Domain {
	return Domain{Name: DomainInvoice, Prefix: invoicePrefix, Taken: taken}
}

// Allocation is one issued id together with the counters it was built from.
type Allocation struct {
	ID           string `json:"id"`
	MonthKey     string `json:"monthKey"`
	MonthlyCount int    `json:"monthlyCount"`
	OverallCount int    `json:"overallCount"`
}

// Allocator hands out human-readable ids.
type Allocator interface {
	Allocate(ctx context.Context, domain string, now time.Time) (*Allocation, error)
}

// DefaultAllocator is the production implementation.
type DefaultAllocator struct {
	store   Store
	domains map[string]Domain
}

// NewAllocator registers domains over store.
func NewAllocator(store Store, domains ...Domain) *DefaultAllocator {
	a := &DefaultAllocator{store: store, domains: make(map[string]Domain, len(domains))}
	for _, d := range domains {
		a.domains[d.Name] = d
	}
	return a
}

// MonthKey is the MM/YYYY scope of now.
func MonthKey(now time.Time) string {
	return now.Format("01/2006")
}

// FormatID renders <PREFIX>-<monthly>-<MM/YYYY>-<overall>.
func FormatID(prefix string, monthly int, monthKey string, overall int) string {
	return fmt.Sprintf("%s-%03d-%s-%04d", prefix, monthly, monthKey, overall)
}

// Allocate advances the domain counter and formats the id. A collision with an
// existing record is retried once; a second collision is a DuplicateIDError.
func (a *DefaultAllocator) Allocate(ctx context.Context, domain string, now time.Time) (*Allocation, error) {
	d, ok := a.domains[domain]
	if !ok {
		return nil, errors.Newf("unknown sequence domain %q", domain)
	}
	monthKey := MonthKey(now)

	var lastID string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		counter, err := a.store.Increment(ctx, d.Name, monthKey, d.Wrap)
		if err != nil {
			return nil, errors.Wrapf(err, "allocate %s id", d.Name)
		}

		alloc := &Allocation{
			ID:           FormatID(d.Prefix, counter.MonthlyCount, counter.MonthKey, counter.OverallCount),
			MonthKey:     counter.MonthKey,
			MonthlyCount: counter.MonthlyCount,
			OverallCount: counter.OverallCount,
		}
		lastID = alloc.ID

		if d.Taken != nil {
			taken, err := d.Taken(ctx, alloc.ID)
			if err != nil {
				return nil, errors.Wrapf(err, "check %s id %s", d.Name, alloc.ID)
			}
			if taken {
				utils.GetLogger().Warn("Allocated id already in use",
					zap.String("domain", d.Name),
					zap.String("id", alloc.ID),
					zap.Int("attempt", attempt),
				)
				continue
			}
		}

		allocations.WithLabelValues(d.Name).Inc()
		return alloc, nil
	}
	return nil, &utils.DuplicateIDError{Domain: d.Name, ID: lastID}
}
