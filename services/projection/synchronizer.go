package projection

import (
	"context"
	"fmt"

	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

var syncFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clinicdesk_projection_sync_failures_total",
		Help: "Appointment projection writes that failed after the application was saved.",
	},
	[]string{"op"},
)

func init() {
	prometheus.MustRegister(syncFailures)
}

// AppointmentStore is where projections are written.
type AppointmentStore interface {
	Upsert(ctx context.Context, appt *models.Appointment) error
	DeleteByID(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
}

// ApplicationSource loads the source of truth by human-readable id.
type ApplicationSource interface {
	GetByNumber(ctx context.Context, number string) (*models.Application, error)
}

// PatientSource resolves patient display names.
type PatientSource interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
}

// DoctorSource resolves doctor display names.
type DoctorSource interface {
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
}

// Synchronizer keeps the appointment projection in step with applications.
// The application write has already committed when any On* method runs, so a
// failure here is returned as a SyncFailure and never undoes it.
type Synchronizer struct {
	appointments AppointmentStore
	applications ApplicationSource
	patients     PatientSource
	doctors      DoctorSource
	emitter      notification.Emitter
	defaults     Defaults
}

// NewSynchronizer wires the projection's collaborators.
func NewSynchronizer(
	appointments AppointmentStore,
	applications ApplicationSource,
	patients PatientSource,
	doctors DoctorSource,
	emitter notification.Emitter,
	defaults Defaults,
) *Synchronizer {
	if emitter == nil {
		emitter = notification.Nop{}
	}
	return &Synchronizer{
		appointments: appointments,
		applications: applications,
		patients:     patients,
		doctors:      doctors,
		emitter:      emitter,
		defaults:     defaults,
	}
}

// OnApplicationCreated upserts the projection; running it twice leaves one record.
func (s *Synchronizer) OnApplicationCreated(ctx context.Context, app *models.Application) *utils.SyncFailure {
	return s.guard(OpCreate, app.Number, func() error {
		appt, err := s.project(ctx, app)
		if err != nil {
			return err
		}
		s.emitter.Emit(ctx, models.EventNewAppointment, appt)
		return nil
	})
}

// OnApplicationUpdated overwrites the projection, creating it if missing.
func (s *Synchronizer) OnApplicationUpdated(ctx context.Context, app *models.Application) *utils.SyncFailure {
	return s.guard(OpUpdate, app.Number, func() error {
		appt, err := s.project(ctx, app)
		if err != nil {
			return err
		}
		s.emitter.Emit(ctx, models.EventUpdateAppointment, appt)
		return nil
	})
}

// OnApplicationDeleted removes the projection. A missing projection is fine.
func (s *Synchronizer) OnApplicationDeleted(ctx context.Context, number string) *utils.SyncFailure {
	return s.guard(OpDelete, number, func() error {
		removed, err := s.appointments.DeleteByID(ctx, number)
		if err != nil {
			return err
		}
		if removed {
			s.emitter.Emit(ctx, models.EventDeleteAppointment, map[string]string{"id": number})
		}
		return nil
	})
}

// Reconcile rebuilds one projection from its application. Unlike the On*
// hooks it returns errors to the caller.
func (s *Synchronizer) Reconcile(ctx context.Context, number string) (*models.Appointment, error) {
	app, err := s.applications.GetByNumber(ctx, number)
	if err != nil {
		return nil, errors.Wrapf(err, "load application %s", number)
	}
	if app == nil {
		return nil, utils.NewNotFound("application", number)
	}
	appt, err := s.project(ctx, app)
	if err != nil {
		return nil, errors.Wrapf(err, "sync application %s", number)
	}
	s.emitter.Emit(ctx, models.EventUpdateAppointment, appt)
	return appt, nil
}

func (s *Synchronizer) project(ctx context.Context, app *models.Application) (*models.Appointment, error) {
	if app.Number == "" {
		return nil, errors.New("application has no id")
	}

	var (
		patient *models.Patient
		doctor  *models.Doctor
		err     error
	)
	if app.PatientID != "" {
		if patient, err = s.patients.GetByID(ctx, app.PatientID); err != nil {
			return nil, errors.Wrapf(err, "resolve patient %s", app.PatientID)
		}
	}
	if app.DoctorID != "" {
		if doctor, err = s.doctors.GetByID(ctx, app.DoctorID); err != nil {
			return nil, errors.Wrapf(err, "resolve doctor %s", app.DoctorID)
		}
	}

	appt := Derive(app, patient, doctor, s.defaults)
	if err := s.appointments.Upsert(ctx, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// guard turns errors and panics into a logged SyncFailure.
func (s *Synchronizer) guard(op, id string, fn func() error) (failure *utils.SyncFailure) {
	defer func() {
		if r := recover(); r != nil {
			failure = s.fail(op, id, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		return s.fail(op, id, err)
	}
	return nil
}

func (s *Synchronizer) fail(op, id string, err error) *utils.SyncFailure {
	syncFailures.WithLabelValues(op).Inc()
	utils.GetLogger().Warn("Appointment sync failed",
		zap.String("op", op),
		zap.String("applicationId", id),
		zap.Error(err),
	)
	return &utils.SyncFailure{Op: op, ID: id, Err: err}
}
