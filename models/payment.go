package models

import "time"

// ServiceLine is one billed item on an invoice.
type ServiceLine struct {
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int64   `bson:"quantity" json:"quantity"`
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"` // Price * Quantity
}

// Payment is an invoice issued for an application.
type Payment struct {
	ID            string        `bson:"_id" json:"_id"`
	InvoiceNumber string        `bson:"invoiceNumber" json:"invoiceNumber"` // e.g. HD-INV-001-02/2025-0001
	Application   string        `bson:"application" json:"application"`
	Patient       string        `bson:"patient" json:"patient"`
	Doctor        string        `bson:"doctor" json:"doctor"`
	Services      []ServiceLine `bson:"services" json:"services"`
	TotalAmount   float64       `bson:"totalAmount" json:"totalAmount"`
	Currency      string        `bson:"currency" json:"currency"`
	PaymentStatus string        `bson:"paymentStatus" json:"paymentStatus"`
	Comment       string        `bson:"comment" json:"comment"`
	PaymentURL    string        `bson:"paymentUrl,omitempty" json:"paymentUrl,omitempty"`
	ExternalID    string        `bson:"externalId,omitempty" json:"externalId,omitempty"` // Gateway session id
	TransactionID string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	ExpiryDate    time.Time     `bson:"expiryDate" json:"expiryDate"`
	PaidAt        *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}
