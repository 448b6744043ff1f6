package application

import (
	"context"

	"clinicdesk/models"
	"clinicdesk/services/schedule"
	"clinicdesk/services/sequence"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Create books a new application. Validation and conflict errors are
// returned before anything is written.
func (s *DefaultApplicationService) Create(ctx context.Context, in models.ApplicationInput) (*Outcome, error) {
	logger := utils.GetLogger()

	patient, doctor, err := s.resolveParties(ctx, in.Patient, in.Doctor)
	if err != nil {
		return nil, err
	}

	recordDate, err := ParseRecordDate(in.RecordDate, s.location())
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:                uuid.NewString(),
		PatientID:         patient.ID,
		DoctorID:          doctor.ID,
		RecordDate:        recordDate,
		Date:              recordDate.In(s.location()).Format(utils.DateLayout),
		StartTime:         orDefault(in.StartTime, s.Defaults.StartTime),
		EndTime:           orDefault(in.EndTime, s.Defaults.EndTime),
		ServiceType:       orDefault(in.ServiceType, models.ServiceConsultation),
		Specialty:         orDefault(in.Specialty, doctor.Specialty),
		AppointmentMode:   orDefault(in.AppointmentMode, models.ModeOnline),
		AppointmentStatus: orDefault(in.AppointmentStatus, models.StatusNew),
		PaymentStatus:     orDefault(in.PaymentStatus, models.PaymentStatusNew),
		Documents:         []string{},
		PreviousComments:  []string{},
		Payments:          []string{},
	}
	if err := validateEnums(app); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, app, doctor, ""); err != nil {
		return nil, err
	}

	alloc, err := s.Allocator.Allocate(ctx, sequence.DomainApplication, s.now())
	if err != nil {
		return nil, err
	}
	app.Number = alloc.ID

	if err := s.Repo.Create(ctx, app); err != nil {
		return nil, errors.Wrapf(err, "create application %s", app.Number)
	}
	logger.Info("Application created",
		zap.String("applicationId", app.Number),
		zap.String("doctor", doctor.ID),
		zap.String("date", app.Date),
	)

	failure := s.Sync.OnApplicationCreated(ctx, app)
	view := assemble(app, patient, doctor)
	s.emit(ctx, models.EventNewApplication, view)
	return &Outcome{Application: view, Sync: failure}, nil
}

// Update applies a partial patch. The slot is re-checked, excluding the
// application's own projection, whenever the date, window or doctor change.
func (s *DefaultApplicationService) Update(ctx context.Context, ref string, patch models.ApplicationPatch) (*Outcome, error) {
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	patientID, doctorID := app.PatientID, app.DoctorID
	if patch.Patient != nil {
		patientID = *patch.Patient
	}
	if patch.Doctor != nil {
		doctorID = *patch.Doctor
	}
	patient, doctor, err := s.resolveParties(ctx, patientID, doctorID)
	if err != nil {
		return nil, err
	}

	updated := *app
	updated.PatientID = patient.ID
	updated.DoctorID = doctor.ID
	if patch.RecordDate != nil {
		recordDate, err := ParseRecordDate(*patch.RecordDate, s.location())
		if err != nil {
			return nil, err
		}
		updated.RecordDate = recordDate
		updated.Date = recordDate.In(s.location()).Format(utils.DateLayout)
	}
	if patch.StartTime != nil {
		updated.StartTime = orDefault(*patch.StartTime, s.Defaults.StartTime)
	}
	if patch.EndTime != nil {
		updated.EndTime = orDefault(*patch.EndTime, s.Defaults.EndTime)
	}
	if patch.ServiceType != nil {
		updated.ServiceType = *patch.ServiceType
	}
	if patch.Specialty != nil {
		updated.Specialty = *patch.Specialty
	}
	if patch.AppointmentMode != nil {
		updated.AppointmentMode = *patch.AppointmentMode
	}
	if patch.AppointmentStatus != nil {
		updated.AppointmentStatus = *patch.AppointmentStatus
	}
	if patch.PaymentStatus != nil {
		updated.PaymentStatus = *patch.PaymentStatus
	}
	if err := validateEnums(&updated); err != nil {
		return nil, err
	}

	moved := updated.Date != app.Date ||
		updated.StartTime != app.StartTime ||
		updated.EndTime != app.EndTime ||
		updated.DoctorID != app.DoctorID
	if moved {
		if err := s.checkSlot(ctx, &updated, doctor, app.Number); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Replace(ctx, &updated); err != nil {
		return nil, errors.Wrapf(err, "update application %s", app.Number)
	}
	utils.GetLogger().Info("Application updated",
		zap.String("applicationId", updated.Number),
		zap.Bool("rescheduled", moved),
	)

	failure := s.Sync.OnApplicationUpdated(ctx, &updated)
	view := assemble(&updated, patient, doctor)
	s.emit(ctx, models.EventUpdateApplication, view)
	return &Outcome{Application: view, Sync: failure}, nil
}

// Delete removes the application, then its documents and comments. Cleanup
// after the primary delete is best effort.
func (s *DefaultApplicationService) Delete(ctx context.Context, ref string) (*utils.SyncFailure, error) {
	logger := utils.GetLogger()

	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Delete(ctx, app.ID); err != nil {
		return nil, errors.Wrapf(err, "delete application %s", app.Number)
	}

	media, err := s.Media.ListByApplication(ctx, app.ID)
	if err != nil {
		logger.Warn("Failed to list application documents", zap.String("applicationId", app.Number), zap.Error(err))
	}
	for _, m := range media {
		if m.IsStored() && s.Store != nil {
			if err := s.Store.Delete(ctx, m); err != nil {
				logger.Warn("Failed to delete stored document", zap.String("mediaId", m.ID), zap.Error(err))
			}
		}
	}
	if _, err := s.Media.DeleteByApplication(ctx, app.ID); err != nil {
		logger.Warn("Failed to delete document records", zap.String("applicationId", app.Number), zap.Error(err))
	}
	if _, err := s.Comments.DeleteByApplication(ctx, app.ID); err != nil {
		logger.Warn("Failed to delete comments", zap.String("applicationId", app.Number), zap.Error(err))
	}

	logger.Info("Application deleted", zap.String("applicationId", app.Number))
	failure := s.Sync.OnApplicationDeleted(ctx, app.Number)
	s.emit(ctx, models.EventDeleteApplication, map[string]string{"_id": app.ID, "id": app.Number})
	return failure, nil
}

// load finds an application by internal id, falling back to its number.
func (s *DefaultApplicationService) load(ctx context.Context, ref string) (*models.Application, error) {
	app, err := s.Repo.GetByID(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "load application %s", ref)
	}
	if app == nil {
		if app, err = s.Repo.GetByNumber(ctx, ref); err != nil {
			return nil, errors.Wrapf(err, "load application %s", ref)
		}
	}
	if app == nil {
		return nil, utils.NewNotFound("application", ref)
	}
	return app, nil
}

func (s *DefaultApplicationService) resolveParties(ctx context.Context, patientID, doctorID string) (*models.Patient, *models.Doctor, error) {
	if patientID == "" {
		return nil, nil, utils.NewValidationError("patient", "is required")
	}
	if doctorID == "" {
		return nil, nil, utils.NewValidationError("doctor", "is required")
	}
	patient, err := s.Patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load patient %s", patientID)
	}
	if patient == nil {
		return nil, nil, utils.NewNotFound("patient", patientID)
	}
	doctor, err := s.Doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load doctor %s", doctorID)
	}
	if doctor == nil {
		return nil, nil, utils.NewNotFound("doctor", doctorID)
	}
	return patient, doctor, nil
}

// checkSlot validates app's window and checks it against the doctor's day.
// The calendar knows doctors by display name.
func (s *DefaultApplicationService) checkSlot(ctx context.Context, app *models.Application, doctor *models.Doctor, excludeID string) error {
	slot, err := schedule.NewSlot(app.Number, app.Date, app.StartTime, app.EndTime, doctorName(doctor))
	if err != nil {
		return err
	}
	return s.Calendar.Check(ctx, slot, excludeID)
}
