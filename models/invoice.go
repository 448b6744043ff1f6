package models

// ServiceLineInput is a billed item as submitted by the dashboard.
type ServiceLineInput struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Quantity int64   `json:"quantity" binding:"required,min=1"`
}

// InvoiceRequest creates a Payment for an application.
type InvoiceRequest struct {
	Services   []ServiceLineInput `json:"services" binding:"required,min=1,dive"`
	Currency   string             `json:"currency"`
	Comment    string             `json:"comment"`
	CreateLink bool               `json:"createLink"`
	PaymentURL string             `json:"paymentUrl"` // Link generated earlier by the dashboard
}

// PaymentLinkRequest asks the gateway for a standalone checkout link.
type PaymentLinkRequest struct {
	Services      []ServiceLineInput `json:"services" binding:"required,min=1,dive"`
	Currency      string             `json:"currency"`
	CustomerEmail string             `json:"customerEmail" binding:"omitempty,email"`
	Reference     string             `json:"reference" binding:"required"`
}

// PaymentLink is what the gateway hands back.
type PaymentLink struct {
	URL        string `json:"url"`
	ExternalID string `json:"externalId"`
	ExpiresAt  int64  `json:"expiresAt"`
}
