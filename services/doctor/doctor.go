package doctor

import (
	"context"
	"strings"
	"time"

	doctorRepo "clinicdesk/database/repository/doctor"
	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DoctorService manages the clinicians applications are booked against.
type DoctorService interface {
	Create(ctx context.Context, in models.DoctorInput) (*models.Doctor, error)
	Get(ctx context.Context, id string) (*models.Doctor, error)
	List(ctx context.Context) ([]models.Doctor, error)
	FindByName(ctx context.Context, name string) (*models.Doctor, error)
	Update(ctx context.Context, id string, in models.DoctorInput) (*models.Doctor, error)
	Delete(ctx context.Context, id string) error
}

// DefaultDoctorService is the production implementation.
type DefaultDoctorService struct {
	Repo doctorRepo.DoctorRepository
}

var _ DoctorService = (*DefaultDoctorService)(nil)

func normalize(in models.DoctorInput) (models.Doctor, error) {
	d := models.Doctor{
		FirstName:   strings.TrimSpace(in.FirstName),
		MiddleName:  strings.TrimSpace(in.MiddleName),
		LastName:    strings.TrimSpace(in.LastName),
		Specialty:   strings.TrimSpace(in.Specialty),
		ServiceType: lo.Uniq(in.ServiceType),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       strings.TrimSpace(in.Phone),
		Fees:        in.Fees,
	}
	switch {
	case d.FirstName == "":
		return d, utils.NewValidationError("firstName", "is required")
	case d.LastName == "":
		return d, utils.NewValidationError("lastName", "is required")
	case d.Specialty == "":
		return d, utils.NewValidationError("specialty", "is required")
	case len(d.ServiceType) == 0:
		return d, utils.NewValidationError("serviceType", "at least one of %s", strings.Join(models.AppointmentModes, ", "))
	}
	if bad, ok := lo.Find(d.ServiceType, func(t string) bool { return !lo.Contains(models.AppointmentModes, t) }); ok {
		return d, utils.NewValidationError("serviceType", "%q must be one of %s", bad, strings.Join(models.AppointmentModes, ", "))
	}
	if d.Fees.Currency == "" {
		d.Fees.Currency = models.CurrencyRUB
	}
	if !lo.Contains(models.Currencies, d.Fees.Currency) {
		return d, utils.NewValidationError("fees.currency", "must be one of %s", strings.Join(models.Currencies, ", "))
	}
	if d.Fees.Amount != nil && *d.Fees.Amount < 0 {
		return d, utils.NewValidationError("fees.amount", "must not be negative")
	}
	return d, nil
}

func (s *DefaultDoctorService) Create(ctx context.Context, in models.DoctorInput) (*models.Doctor, error) {
	d, err := normalize(in)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	d.ID = uuid.NewString()
	d.CreatedAt, d.UpdatedAt = now, now
	if err := s.Repo.Create(ctx, &d); err != nil {
		return nil, errors.Wrap(err, "create doctor")
	}
	utils.GetLogger().Info("Doctor created", zap.String("doctorId", d.ID), zap.String("specialty", d.Specialty))
	return &d, nil
}

func (s *DefaultDoctorService) Get(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get doctor %s", id)
	}
	if d == nil {
		return nil, utils.NewNotFound("doctor", id)
	}
	return d, nil
}

func (s *DefaultDoctorService) List(ctx context.Context) ([]models.Doctor, error) {
	return s.Repo.List(ctx)
}

// FindByName matches the display name the calendar uses, ignoring case.
func (s *DefaultDoctorService) FindByName(ctx context.Context, name string) (*models.Doctor, error) {
	name = models.FullName(name)
	if name == "" {
		return nil, utils.NewValidationError("name", "is required")
	}
	doctors, err := s.Repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list doctors")
	}
	d, ok := lo.Find(doctors, func(d models.Doctor) bool {
		return strings.EqualFold(models.FullName(d.FirstName, d.MiddleName, d.LastName), name)
	})
	if !ok {
		return nil, utils.NewNotFound("doctor", name)
	}
	return &d, nil
}

func (s *DefaultDoctorService) Update(ctx context.Context, id string, in models.DoctorInput) (*models.Doctor, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := normalize(in)
	if err != nil {
		return nil, err
	}
	d.ID = existing.ID
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now()
	if err := s.Repo.Replace(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DefaultDoctorService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	utils.GetLogger().Info("Doctor deleted", zap.String("doctorId", id))
	return nil
}
