package applicationRepo

import (
	"context"

	"clinicdesk/models"
)

// ApplicationRepository defines methods for application data access.
// Getters return (nil, nil) when the record does not exist.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	// Replace overwrites the stored document with app.
	Replace(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetByNumber(ctx context.Context, number string) (*models.Application, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int64, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Application, error)

	AddComment(ctx context.Context, id, commentID string) error
	RemoveComment(ctx context.Context, commentID string) error
	AddDocument(ctx context.Context, id, mediaID string) error
	RemoveDocument(ctx context.Context, id, mediaID string) error
	AddPayment(ctx context.Context, id, paymentID string) error
	SetPaymentStatus(ctx context.Context, id, status string) error
}
