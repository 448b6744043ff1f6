package doctorRepo

import (
	"context"

	"clinicdesk/models"
)

// DoctorRepository defines methods for doctor data access.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	Replace(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Doctor, error)
	List(ctx context.Context) ([]models.Doctor, error)
}
