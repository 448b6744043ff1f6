package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/database"
	"clinicdesk/models"
	"clinicdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentRepository defines methods for invoice data access.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByInvoiceNumber(ctx context.Context, number string) (*models.Payment, error)
	ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.Payment, error)
	SetStatus(ctx context.Context, id, status string) (*models.Payment, error)
	// MarkPaid flips an unpaid invoice to Paid. It returns nil when the invoice
	// was already paid.
	MarkPaid(ctx context.Context, invoiceNumber, transactionID string, paidAt time.Time) (*models.Payment, error)
}

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo creates a new instance of PaymentRepository using MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	repo := &MongoPaymentRepo{coll: database.Collection("payments")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "invoiceNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "application", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		utils.GetLogger().Sugar().Warnf("payments: failed to create indexes: %v", err)
	}
	return repo
}

// Create inserts a new payment.
func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	payment.CreatedAt, payment.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &utils.DuplicateIDError{Domain: "invoice", ID: payment.InvoiceNumber}
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payment models.Payment
	if err := r.coll.FindOne(ctx, filter).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &payment, nil
}

// GetByID returns nil when the payment does not exist.
func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByInvoiceNumber returns nil when no invoice carries number.
func (r *MongoPaymentRepo) GetByInvoiceNumber(ctx context.Context, number string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"invoiceNumber": number})
}

// ExistsByInvoiceNumber reports whether an invoice number is taken.
func (r *MongoPaymentRepo) ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"invoiceNumber": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check invoice number %s: %w", number, err)
	}
	return n > 0, nil
}

// ListByApplication returns an application's invoices, newest first.
func (r *MongoPaymentRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"application": applicationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

// SetStatus updates a payment's status and returns the updated record.
func (r *MongoPaymentRepo) SetStatus(ctx context.Context, id, status string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var payment models.Payment
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"paymentStatus": status, "updatedAt": time.Now()}},
		opts,
	).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFound("payment", id)
		}
		return nil, fmt.Errorf("failed to update payment %s: %w", id, err)
	}
	return &payment, nil
}

// MarkPaid is conditional on the invoice not being paid yet, so replayed
// callbacks do not rewrite paidAt.
func (r *MongoPaymentRepo) MarkPaid(ctx context.Context, invoiceNumber, transactionID string, paidAt time.Time) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"invoiceNumber": invoiceNumber,
		"paymentStatus": bson.M{"$ne": models.InvoicePaid},
	}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.InvoicePaid,
		"transactionId": transactionID,
		"paidAt":        paidAt,
		"updatedAt":     time.Now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var payment models.Payment
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to mark invoice %s paid: %w", invoiceNumber, err)
	}
	return &payment, nil
}
