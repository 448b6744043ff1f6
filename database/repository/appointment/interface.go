package appointmentRepo

import (
	"context"

	"clinicdesk/models"
)

// AppointmentRepository stores the calendar projection of applications.
type AppointmentRepository interface {
	// Upsert writes appt keyed by its human-readable id.
	Upsert(ctx context.Context, appt *models.Appointment) error
	// DeleteByID reports whether a projection was removed.
	DeleteByID(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// ListRange returns appointments with from <= date <= to, optionally for one doctor.
	ListRange(ctx context.Context, from, to, doctor string) ([]models.Appointment, error)
	ListByOwnerAndDate(ctx context.Context, doctor, date string) ([]models.Appointment, error)
	ListAll(ctx context.Context) ([]models.Appointment, error)
	DistinctDoctors(ctx context.Context) ([]string, error)
}
