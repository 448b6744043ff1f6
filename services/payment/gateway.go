package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// EventCheckoutCompleted is the only gateway event that changes state.
const EventCheckoutCompleted = "checkout.session.completed"

// LinkRequest describes a hosted checkout for one invoice.
type LinkRequest struct {
	Amount        decimal.Decimal
	Currency      string
	LineItems     []models.ServiceLine
	CustomerEmail string
	Reference     string // invoice number, echoed back on completion
	ExpiresAt     time.Time
}

// Link is a hosted checkout page.
type Link struct {
	URL        string
	ExternalID string
	ExpiresAt  time.Time
}

// GatewayEvent is a verified callback from the gateway.
type GatewayEvent struct {
	ID            string
	Type          string
	Reference     string
	TransactionID string
	Paid          bool
}

// Gateway creates payment links and verifies their callbacks.
type Gateway interface {
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
	ParseEvent(payload []byte, signature string) (*GatewayEvent, error)
}

// StripeConfig holds the account key and redirect targets.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// StripeGateway backs links with Checkout Sessions.
type StripeGateway struct {
	api *client.API
	cfg StripeConfig
}

// NewStripeGateway returns nil when no secret key is configured.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.SecretKey == "" {
		return nil
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{api: api, cfg: cfg}
}

// minorUnits converts an amount to the smallest currency unit.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (g *StripeGateway) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, line := range req.LineItems {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(req.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(minorUnits(decimal.NewFromFloat(line.Price))),
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         items,
		ClientReferenceID: stripe.String(req.Reference),
		SuccessURL:        stripe.String(g.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ExpiresAt:         stripe.Int64(req.ExpiresAt.Unix()),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("invoiceNumber", req.Reference)
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Wrapf(err, "create checkout session for %s", req.Reference)
	}
	return &Link{
		URL:        session.URL,
		ExternalID: session.ID,
		ExpiresAt:  time.Unix(session.ExpiresAt, 0),
	}, nil
}

// ParseEvent verifies the signature. A bad signature is a ValidationError.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, utils.NewValidationError("signature", "webhook verification failed: %v", err)
	}

	out := &GatewayEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, utils.NewValidationError("data", "malformed checkout session: %v", err)
	}
	out.Reference = session.ClientReferenceID
	out.TransactionID = session.ID
	out.Paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	return out, nil
}
