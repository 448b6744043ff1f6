package payment

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"clinicdesk/models"
	"clinicdesk/services/sequence"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPayments struct {
	mu    sync.Mutex
	items map[string]models.Payment
}

func (m *memPayments) Create(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = *p
	return nil
}

func (m *memPayments) GetByID(_ context.Context, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memPayments) GetByInvoiceNumber(_ context.Context, number string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.InvoiceNumber == number {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memPayments) ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error) {
	p, err := m.GetByInvoiceNumber(ctx, number)
	return p != nil, err
}

func (m *memPayments) ListByApplication(_ context.Context, applicationID string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.items {
		if p.Application == applicationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayments) SetStatus(_ context.Context, id, status string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, utils.NewNotFound("payment", id)
	}
	p.PaymentStatus = status
	m.items[id] = p
	return &p, nil
}

func (m *memPayments) MarkPaid(_ context.Context, invoiceNumber, transactionID string, paidAt time.Time) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.items {
		if p.InvoiceNumber != invoiceNumber || p.PaymentStatus == models.InvoicePaid {
			continue
		}
		p.PaymentStatus = models.InvoicePaid
		p.TransactionID = transactionID
		p.PaidAt = &paidAt
		m.items[id] = p
		return &p, nil
	}
	return nil, nil
}

type memApplications struct {
	apps     map[string]*models.Application
	payments map[string][]string
	failSet  error
}

func (m *memApplications) GetByID(_ context.Context, id string) (*models.Application, error) {
	if a, ok := m.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memApplications) GetByNumber(_ context.Context, number string) (*models.Application, error) {
	for _, a := range m.apps {
		if a.Number == number {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memApplications) AddPayment(_ context.Context, id, paymentID string) error {
	m.payments[id] = append(m.payments[id], paymentID)
	return nil
}

func (m *memApplications) SetPaymentStatus(_ context.Context, id, status string) error {
	if m.failSet != nil {
		return m.failSet
	}
	a, ok := m.apps[id]
	if !ok {
		return utils.NewNotFound("application", id)
	}
	a.PaymentStatus = status
	return nil
}

type memPatients map[string]models.Patient

func (m memPatients) GetByID(_ context.Context, id string) (*models.Patient, error) {
	if p, ok := m[id]; ok {
		return &p, nil
	}
	return nil, nil
}

type seqAllocator struct{ n int }

func (a *seqAllocator) Allocate(_ context.Context, domain string, now time.Time) (*sequence.Allocation, error) {
	a.n++
	id := sequence.FormatID("HD-INV", a.n, sequence.MonthKey(now), a.n)
	return &sequence.Allocation{ID: id}, nil
}

type fakeGateway struct {
	requests []LinkRequest
	event    *GatewayEvent
	linkErr  error
}

func (g *fakeGateway) CreateLink(_ context.Context, req LinkRequest) (*Link, error) {
	if g.linkErr != nil {
		return nil, g.linkErr
	}
	g.requests = append(g.requests, req)
	return &Link{
		URL:        "https://checkout.test/" + req.Reference,
		ExternalID: fmt.Sprintf("cs_%d", len(g.requests)),
		ExpiresAt:  req.ExpiresAt,
	}, nil
}

func (g *fakeGateway) ParseEvent(_ []byte, signature string) (*GatewayEvent, error) {
	if signature != "valid" {
		return nil, utils.NewValidationError("signature", "webhook verification failed")
	}
	return g.event, nil
}

type memOnce struct{ seen map[string]bool }

func (m *memOnce) MarkOnce(_ context.Context, key string) (bool, error) {
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memOnce) Forget(_ context.Context, key string) error {
	delete(m.seen, key)
	return nil
}

type memMailer struct{ sent []models.Mail }

func (m *memMailer) Send(_ context.Context, mail models.Mail) error {
	m.sent = append(m.sent, mail)
	return nil
}

type recordingEmitter struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingEmitter) Emit(_ context.Context, name string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, name)
}

type fixture struct {
	svc      *DefaultPaymentService
	payments *memPayments
	apps     *memApplications
	gateway  *fakeGateway
	once     *memOnce
	mailer   *memMailer
	emitter  *recordingEmitter
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		payments: &memPayments{items: map[string]models.Payment{}},
		apps: &memApplications{
			apps: map[string]*models.Application{
				"a1": {ID: "a1", Number: "HD-R-001-02/2025-0001", PatientID: "p1", DoctorID: "d1", PaymentStatus: models.PaymentStatusNew},
			},
			payments: map[string][]string{},
		},
		gateway: &fakeGateway{},
		once:    &memOnce{seen: map[string]bool{}},
		mailer:  &memMailer{},
		emitter: &recordingEmitter{},
		now:     time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = &DefaultPaymentService{
		Repo:         f.payments,
		Applications: f.apps,
		Patients:     memPatients{"p1": {ID: "p1", FirstName: "Ivan", LastName: "Petrov", Email: "ivan@example.com"}},
		Allocator:    &seqAllocator{},
		Gateway:      f.gateway,
		Mailer:       f.mailer,
		Once:         f.once,
		Emitter:      f.emitter,
		Now:          func() time.Time { return f.now },
	}
	return f
}

func lines() []models.ServiceLineInput {
	return []models.ServiceLineInput{
		{Name: "Consultation", Price: 1000.10, Quantity: 1},
		{Name: "ECG", Price: 0.1, Quantity: 3},
	}
}

func TestPriceLinesIsExact(t *testing.T) {
	priced, total, err := PriceLines(lines())
	require.NoError(t, err)
	require.Len(t, priced, 2)
	assert.Equal(t, 0.3, priced[1].TotalAmount)
	assert.True(t, total.Equal(decimal.RequireFromString("1000.40")), total.String())
}

func TestPriceLinesValidation(t *testing.T) {
	cases := [][]models.ServiceLineInput{
		nil,
		{{Name: " ", Price: 10, Quantity: 1}},
		{{Name: "X", Price: 0, Quantity: 1}},
		{{Name: "X", Price: 10, Quantity: 0}},
	}
	for i, in := range cases {
		_, _, err := PriceLines(in)
		assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err), "case %d", i)
	}
}

func TestCreateInvoiceWithLink(t *testing.T) {
	f := newFixture()

	p, err := f.svc.CreateInvoice(context.Background(), "HD-R-001-02/2025-0001", models.InvoiceRequest{
		Services:   lines(),
		CreateLink: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "HD-INV-001-02/2025-0001", p.InvoiceNumber)
	assert.Equal(t, models.CurrencyINR, p.Currency)
	assert.Equal(t, models.InvoiceNew, p.PaymentStatus)
	assert.Equal(t, 1000.4, p.TotalAmount)
	assert.Equal(t, "https://checkout.test/"+p.InvoiceNumber, p.PaymentURL)
	assert.Equal(t, "cs_1", p.ExternalID)
	assert.Equal(t, f.now.Add(DefaultLinkTTL), p.ExpiryDate)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "ivan@example.com", f.gateway.requests[0].CustomerEmail)
	assert.Equal(t, p.InvoiceNumber, f.gateway.requests[0].Reference)

	assert.Equal(t, []string{p.ID}, f.apps.payments["a1"])
	assert.Equal(t, models.PaymentStatusInvoiceSent, f.apps.apps["a1"].PaymentStatus)
	assert.Contains(t, f.emitter.seen, models.EventNewPayment)
}

func TestCreateInvoiceRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines(), Currency: "USD"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))

	_, err = f.svc.CreateInvoice(ctx, "missing", models.InvoiceRequest{Services: lines()})
	assert.True(t, utils.IsNotFound(err))

	f.svc.Gateway = nil
	_, err = f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines(), CreateLink: true})
	assert.Equal(t, http.StatusServiceUnavailable, utils.StatusFor(err))

	assert.Empty(t, f.payments.items)
	assert.Equal(t, 0, f.svc.Allocator.(*seqAllocator).n)
}

func TestCreateInvoiceGatewayFailureStoresNothing(t *testing.T) {
	f := newFixture()
	f.gateway.linkErr = errors.New("stripe down")

	_, err := f.svc.CreateInvoice(context.Background(), "a1", models.InvoiceRequest{Services: lines(), CreateLink: true})
	require.Error(t, err)
	assert.Empty(t, f.payments.items)
	assert.Empty(t, f.apps.payments)
}

func TestStandaloneLink(t *testing.T) {
	f := newFixture()

	link, err := f.svc.CreateLink(context.Background(), models.PaymentLinkRequest{
		Services:  lines(),
		Currency:  "eur",
		Reference: "walk-in-17",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/walk-in-17", link.URL)
	assert.Equal(t, f.now.Add(DefaultLinkTTL).Unix(), link.ExpiresAt)
	assert.Equal(t, models.CurrencyEUR, f.gateway.requests[0].Currency)

	_, err = f.svc.CreateLink(context.Background(), models.PaymentLinkRequest{Services: lines()})
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))
}

func TestWebhookMarksPaidOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines(), CreateLink: true})
	require.NoError(t, err)

	f.gateway.event = &GatewayEvent{ID: "evt_1", Type: EventCheckoutCompleted, Reference: p.InvoiceNumber, TransactionID: "cs_1", Paid: true}
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("{}"), "valid"))

	stored := f.payments.items[p.ID]
	assert.Equal(t, models.InvoicePaid, stored.PaymentStatus)
	assert.Equal(t, "cs_1", stored.TransactionID)
	require.NotNil(t, stored.PaidAt)
	assert.Equal(t, models.PaymentStatusPaid, f.apps.apps["a1"].PaymentStatus)

	f.emitter.seen = nil
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	assert.Empty(t, f.emitter.seen)
}

func TestWebhookIgnoresOtherEventsAndBadSignatures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.svc.HandleWebhook(ctx, []byte("{}"), "forged")
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))

	f.gateway.event = &GatewayEvent{ID: "evt_2", Type: "payment_intent.created"}
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	assert.Empty(t, f.once.seen)

	f.gateway.event = &GatewayEvent{ID: "evt_3", Type: EventCheckoutCompleted, Reference: "walk-in-17", Paid: true}
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("{}"), "valid"))
}

func TestWebhookFailureIsRetried(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines()})
	require.NoError(t, err)

	f.apps.failSet = errors.New("mongo unavailable")
	f.gateway.event = &GatewayEvent{ID: "evt_4", Type: EventCheckoutCompleted, Reference: p.InvoiceNumber, TransactionID: "cs_9", Paid: true}
	require.Error(t, f.svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	assert.NotContains(t, f.once.seen, "evt_4")

	// The invoice flipped before the failure; the redelivery still has to
	// reach the application.
	stored, err := f.payments.GetByInvoiceNumber(ctx, p.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, stored.PaymentStatus)
	assert.NotEqual(t, models.PaymentStatusPaid, f.apps.apps["a1"].PaymentStatus)

	f.apps.failSet = nil
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	assert.Equal(t, models.PaymentStatusPaid, f.apps.apps["a1"].PaymentStatus)
	assert.Contains(t, f.once.seen, "evt_4")
}

func TestUpdateStatusMirrorsApplication(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines()})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, p.ID, "Refunded")
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))

	updated, err := f.svc.UpdateStatus(ctx, p.InvoiceNumber, models.InvoiceFree)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceFree, updated.PaymentStatus)
	assert.Equal(t, models.PaymentStatusFree, f.apps.apps["a1"].PaymentStatus)

	list, err := f.svc.ListByApplication(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.Get(ctx, "missing")
	assert.True(t, utils.IsNotFound(err))
}

func TestSendLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	plain, err := f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines()})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(f.svc.SendLink(ctx, plain.ID)))

	linked, err := f.svc.CreateInvoice(ctx, "a1", models.InvoiceRequest{Services: lines(), CreateLink: true})
	require.NoError(t, err)
	require.NoError(t, f.svc.SendLink(ctx, linked.ID))
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{"ivan@example.com"}, f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Body, linked.PaymentURL)
	assert.Contains(t, f.mailer.sent[0].Subject, linked.InvoiceNumber)

	f.svc.Mailer = nil
	assert.Equal(t, http.StatusServiceUnavailable, utils.StatusFor(f.svc.SendLink(ctx, linked.ID)))
}
