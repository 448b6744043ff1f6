package payment

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	paymentRepo "clinicdesk/database/repository/payment"
	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/services/sequence"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultLinkTTL keeps links inside Stripe's 24h checkout limit.
const DefaultLinkTTL = 23 * time.Hour

// PaymentService issues invoices and follows them to payment.
type PaymentService interface {
	CreateInvoice(ctx context.Context, applicationRef string, req models.InvoiceRequest) (*models.Payment, error)
	CreateLink(ctx context.Context, req models.PaymentLinkRequest) (*models.PaymentLink, error)
	Get(ctx context.Context, id string) (*models.Payment, error)
	ListByApplication(ctx context.Context, applicationRef string) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Payment, error)
	SendLink(ctx context.Context, id string) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// ApplicationStore is what payments need from applications.
type ApplicationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetByNumber(ctx context.Context, number string) (*models.Application, error)
	AddPayment(ctx context.Context, id, paymentID string) error
	SetPaymentStatus(ctx context.Context, id, status string) error
}

// PatientLookup resolves the invoice recipient.
type PatientLookup interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
}

// OnceStore de-duplicates webhook deliveries.
type OnceStore interface {
	MarkOnce(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// DefaultPaymentService is the production implementation.
type DefaultPaymentService struct {
	Repo         paymentRepo.PaymentRepository
	Applications ApplicationStore
	Patients     PatientLookup
	Allocator    sequence.Allocator
	Gateway      Gateway             // nil when no gateway is configured
	Mailer       notification.Mailer // nil when no relay is configured
	Once         OnceStore
	Emitter      notification.Emitter
	LinkTTL      time.Duration
	Now          func() time.Time
}

var _ PaymentService = (*DefaultPaymentService)(nil)

func (s *DefaultPaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultPaymentService) linkTTL() time.Duration {
	if s.LinkTTL > 0 {
		return s.LinkTTL
	}
	return DefaultLinkTTL
}

func (s *DefaultPaymentService) emit(ctx context.Context, name string, payload interface{}) {
	if s.Emitter != nil {
		s.Emitter.Emit(ctx, name, payload)
	}
}

// PriceLines validates line items and totals them with exact decimal arithmetic.
func PriceLines(in []models.ServiceLineInput) ([]models.ServiceLine, decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, decimal.Zero, utils.NewValidationError("services", "at least one service is required")
	}
	total := decimal.Zero
	lines := make([]models.ServiceLine, 0, len(in))
	for i, item := range in {
		name := strings.TrimSpace(item.Name)
		switch {
		case name == "":
			return nil, decimal.Zero, utils.NewValidationError(fmt.Sprintf("services[%d].name", i), "is required")
		case item.Price <= 0:
			return nil, decimal.Zero, utils.NewValidationError(fmt.Sprintf("services[%d].price", i), "must be greater than 0")
		case item.Quantity < 1:
			return nil, decimal.Zero, utils.NewValidationError(fmt.Sprintf("services[%d].quantity", i), "must be at least 1")
		}
		lineTotal := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(item.Quantity)).Round(2)
		total = total.Add(lineTotal)
		lines = append(lines, models.ServiceLine{
			Name:        name,
			Price:       item.Price,
			Quantity:    item.Quantity,
			TotalAmount: lineTotal.InexactFloat64(),
		})
	}
	return lines, total, nil
}

func currency(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		return models.CurrencyINR, nil
	}
	if !lo.Contains(models.Currencies, c) {
		return "", utils.NewValidationError("currency", "must be one of %s", strings.Join(models.Currencies, ", "))
	}
	return c, nil
}

func (s *DefaultPaymentService) loadApplication(ctx context.Context, ref string) (*models.Application, error) {
	app, err := s.Applications.GetByID(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "load application %s", ref)
	}
	if app == nil {
		if app, err = s.Applications.GetByNumber(ctx, ref); err != nil {
			return nil, errors.Wrapf(err, "load application %s", ref)
		}
	}
	if app == nil {
		return nil, utils.NewNotFound("application", ref)
	}
	return app, nil
}

// CreateInvoice records a new invoice for an application and, when asked,
// opens a hosted checkout for it.
func (s *DefaultPaymentService) CreateInvoice(ctx context.Context, applicationRef string, req models.InvoiceRequest) (*models.Payment, error) {
	logger := utils.GetLogger()

	lines, total, err := PriceLines(req.Services)
	if err != nil {
		return nil, err
	}
	cur, err := currency(req.Currency)
	if err != nil {
		return nil, err
	}
	if req.CreateLink && s.Gateway == nil {
		return nil, &utils.UnavailableError{Service: "payment gateway"}
	}
	app, err := s.loadApplication(ctx, applicationRef)
	if err != nil {
		return nil, err
	}
	patient, err := s.Patients.GetByID(ctx, app.PatientID)
	if err != nil {
		return nil, errors.Wrapf(err, "load patient %s", app.PatientID)
	}
	if patient == nil {
		return nil, utils.NewNotFound("patient", app.PatientID)
	}

	now := s.now()
	alloc, err := s.Allocator.Allocate(ctx, sequence.DomainInvoice, now)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:            uuid.NewString(),
		InvoiceNumber: alloc.ID,
		Application:   app.ID,
		Patient:       app.PatientID,
		Doctor:        app.DoctorID,
		Services:      lines,
		TotalAmount:   total.InexactFloat64(),
		Currency:      cur,
		PaymentStatus: models.InvoiceNew,
		Comment:       strings.TrimSpace(req.Comment),
		PaymentURL:    strings.TrimSpace(req.PaymentURL),
		ExpiryDate:    now.Add(s.linkTTL()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if req.CreateLink {
		link, err := s.Gateway.CreateLink(ctx, LinkRequest{
			Amount:        total,
			Currency:      cur,
			LineItems:     lines,
			CustomerEmail: patient.Email,
			Reference:     payment.InvoiceNumber,
			ExpiresAt:     payment.ExpiryDate,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "create payment link for %s", payment.InvoiceNumber)
		}
		payment.PaymentURL = link.URL
		payment.ExternalID = link.ExternalID
		payment.ExpiryDate = link.ExpiresAt
	}

	if err := s.Repo.Create(ctx, payment); err != nil {
		return nil, errors.Wrapf(err, "save invoice %s", payment.InvoiceNumber)
	}
	if err := s.Applications.AddPayment(ctx, app.ID, payment.ID); err != nil {
		return nil, errors.Wrapf(err, "link invoice %s", payment.InvoiceNumber)
	}
	if payment.PaymentURL != "" && app.PaymentStatus == models.PaymentStatusNew {
		if err := s.Applications.SetPaymentStatus(ctx, app.ID, models.PaymentStatusInvoiceSent); err != nil {
			logger.Warn("Failed to mark invoice sent", zap.String("applicationId", app.Number), zap.Error(err))
		}
	}

	logger.Info("Invoice created",
		zap.String("invoiceNumber", payment.InvoiceNumber),
		zap.String("applicationId", app.Number),
		zap.String("total", total.StringFixed(2)),
		zap.String("currency", cur),
	)
	s.emit(ctx, models.EventNewPayment, payment)
	return payment, nil
}

// CreateLink opens a hosted checkout that is not tied to a stored invoice.
func (s *DefaultPaymentService) CreateLink(ctx context.Context, req models.PaymentLinkRequest) (*models.PaymentLink, error) {
	if s.Gateway == nil {
		return nil, &utils.UnavailableError{Service: "payment gateway"}
	}
	lines, total, err := PriceLines(req.Services)
	if err != nil {
		return nil, err
	}
	cur, err := currency(req.Currency)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, utils.NewValidationError("reference", "is required")
	}
	link, err := s.Gateway.CreateLink(ctx, LinkRequest{
		Amount:        total,
		Currency:      cur,
		LineItems:     lines,
		CustomerEmail: req.CustomerEmail,
		Reference:     strings.TrimSpace(req.Reference),
		ExpiresAt:     s.now().Add(s.linkTTL()),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create payment link")
	}
	return &models.PaymentLink{URL: link.URL, ExternalID: link.ExternalID, ExpiresAt: link.ExpiresAt.Unix()}, nil
}

func (s *DefaultPaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get payment %s", id)
	}
	if p == nil {
		if p, err = s.Repo.GetByInvoiceNumber(ctx, id); err != nil {
			return nil, errors.Wrapf(err, "get payment %s", id)
		}
	}
	if p == nil {
		return nil, utils.NewNotFound("payment", id)
	}
	return p, nil
}

func (s *DefaultPaymentService) ListByApplication(ctx context.Context, applicationRef string) ([]models.Payment, error) {
	app, err := s.loadApplication(ctx, applicationRef)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByApplication(ctx, app.ID)
}

// UpdateStatus sets an invoice status by hand. Marking it Paid also marks the
// application paid.
func (s *DefaultPaymentService) UpdateStatus(ctx context.Context, id, status string) (*models.Payment, error) {
	if !lo.Contains(models.InvoiceStatuses, status) {
		return nil, utils.NewValidationError("paymentStatus", "must be one of %s", strings.Join(models.InvoiceStatuses, ", "))
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.SetStatus(ctx, existing.ID, status)
	if err != nil {
		return nil, err
	}
	if mirrored, ok := applicationStatusFor[status]; ok {
		if err := s.Applications.SetPaymentStatus(ctx, p.Application, mirrored); err != nil {
			utils.GetLogger().Warn("Failed to mirror invoice status", zap.String("invoiceNumber", p.InvoiceNumber), zap.Error(err))
		}
	}
	s.emit(ctx, models.EventUpdatePayment, p)
	return p, nil
}

var applicationStatusFor = map[string]string{
	models.InvoicePaid:      models.PaymentStatusPaid,
	models.InvoiceCancelled: models.PaymentStatusCancelled,
	models.InvoiceFree:      models.PaymentStatusFree,
}

// SendLink emails the invoice's payment link to the patient.
func (s *DefaultPaymentService) SendLink(ctx context.Context, id string) error {
	if s.Mailer == nil {
		return &utils.UnavailableError{Service: "email"}
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.PaymentURL == "" {
		return utils.NewValidationError("paymentUrl", "invoice %s has no payment link", p.InvoiceNumber)
	}
	patient, err := s.Patients.GetByID(ctx, p.Patient)
	if err != nil {
		return errors.Wrapf(err, "load patient %s", p.Patient)
	}
	if patient == nil || patient.Email == "" {
		return utils.NewValidationError("email", "patient has no email address")
	}
	return s.Mailer.Send(ctx, paymentLinkMail(patient, p))
}

func paymentLinkMail(patient *models.Patient, p *models.Payment) models.Mail {
	name := models.FullName(patient.FirstName, patient.LastName)
	link := html.EscapeString(p.PaymentURL)
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Please use the following link to pay invoice %s (%s %.2f):</p><p><a href=\"%s\">%s</a></p><p>The link expires on %s.</p>",
		html.EscapeString(name), p.InvoiceNumber, p.Currency, p.TotalAmount, link, link, p.ExpiryDate.Format("02 Jan 2006 15:04 MST"),
	)
	return models.Mail{
		To:      []string{patient.Email},
		Subject: "Your payment link for invoice " + p.InvoiceNumber,
		Body:    body,
		HTML:    true,
	}
}

// HandleWebhook applies a verified gateway callback. Each event id is
// processed at most once; a failed event is forgotten so the retry runs.
func (s *DefaultPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Gateway == nil {
		return &utils.UnavailableError{Service: "payment gateway"}
	}
	logger := utils.GetLogger()

	event, err := s.Gateway.ParseEvent(payload, signature)
	if err != nil {
		return err
	}
	if event.Type != EventCheckoutCompleted || !event.Paid {
		logger.Info("Ignoring payment event", zap.String("eventId", event.ID), zap.String("type", event.Type))
		return nil
	}

	if s.Once != nil {
		first, err := s.Once.MarkOnce(ctx, event.ID)
		if err != nil {
			return errors.Wrap(err, "record webhook delivery")
		}
		if !first {
			logger.Info("Duplicate payment event skipped", zap.String("eventId", event.ID))
			return nil
		}
	}

	if err := s.markPaid(ctx, event); err != nil {
		if s.Once != nil {
			if ferr := s.Once.Forget(ctx, event.ID); ferr != nil {
				logger.Warn("Failed to release webhook event", zap.String("eventId", event.ID), zap.Error(ferr))
			}
		}
		return err
	}
	return nil
}

func (s *DefaultPaymentService) markPaid(ctx context.Context, event *GatewayEvent) error {
	logger := utils.GetLogger()

	p, err := s.Repo.MarkPaid(ctx, event.Reference, event.TransactionID, s.now())
	if err != nil {
		return errors.Wrapf(err, "mark invoice %s paid", event.Reference)
	}
	if p == nil {
		return s.reconcilePaid(ctx, event)
	}
	if err := s.Applications.SetPaymentStatus(ctx, p.Application, models.PaymentStatusPaid); err != nil {
		return errors.Wrapf(err, "mark application %s paid", p.Application)
	}

	logger.Info("Invoice paid",
		zap.String("invoiceNumber", p.InvoiceNumber),
		zap.String("transactionId", event.TransactionID),
	)
	s.emit(ctx, models.EventUpdatePayment, p)
	s.emit(ctx, models.EventUpdateApplication, map[string]string{"_id": p.Application, "paymentStatus": models.PaymentStatusPaid})
	return nil
}

// reconcilePaid handles a redelivery for an invoice that is already paid. A
// previous attempt may have failed between the invoice and the application
// update, so the application is marked again.
func (s *DefaultPaymentService) reconcilePaid(ctx context.Context, event *GatewayEvent) error {
	p, err := s.Repo.GetByInvoiceNumber(ctx, event.Reference)
	if err != nil {
		return errors.Wrapf(err, "load invoice %s", event.Reference)
	}
	if p == nil || p.PaymentStatus != models.InvoicePaid {
		// A link created outside an invoice.
		utils.GetLogger().Info("No unpaid invoice for payment event",
			zap.String("eventId", event.ID),
			zap.String("reference", event.Reference),
		)
		return nil
	}
	if err := s.Applications.SetPaymentStatus(ctx, p.Application, models.PaymentStatusPaid); err != nil {
		return errors.Wrapf(err, "mark application %s paid", p.Application)
	}
	s.emit(ctx, models.EventUpdateApplication, map[string]string{"_id": p.Application, "paymentStatus": models.PaymentStatusPaid})
	return nil
}
