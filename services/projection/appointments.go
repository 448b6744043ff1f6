package projection

import (
	"context"
	"time"

	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/services/schedule"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// AppointmentReader is the calendar's read side of the projection store.
type AppointmentReader interface {
	AppointmentStore
	ListRange(ctx context.Context, from, to, doctor string) ([]models.Appointment, error)
	ListAll(ctx context.Context) ([]models.Appointment, error)
	DistinctDoctors(ctx context.Context) ([]string, error)
}

// AppointmentService serves the calendar.
type AppointmentService struct {
	store    AppointmentReader
	emitter  notification.Emitter
	location *time.Location
}

func NewAppointmentService(store AppointmentReader, emitter notification.Emitter, loc *time.Location) *AppointmentService {
	if emitter == nil {
		emitter = notification.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{store: store, emitter: emitter, location: loc}
}

// ResolveRange turns a query into inclusive date bounds. A single date wins
// over a range; an empty query covers the month containing now.
func ResolveRange(q models.AppointmentQuery, now time.Time) (string, string, error) {
	switch {
	case q.Date != "":
		if err := schedule.ValidateDate(q.Date); err != nil {
			return "", "", err
		}
		return q.Date, q.Date, nil
	case q.StartDate != "" || q.EndDate != "":
		if q.StartDate == "" || q.EndDate == "" {
			return "", "", utils.NewValidationError("startDate", "startDate and endDate must be given together")
		}
		if err := schedule.ValidateDate(q.StartDate); err != nil {
			return "", "", err
		}
		if err := schedule.ValidateDate(q.EndDate); err != nil {
			return "", "", err
		}
		if q.EndDate < q.StartDate {
			return "", "", utils.NewValidationError("endDate", "endDate must not be before startDate")
		}
		return q.StartDate, q.EndDate, nil
	default:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return first.Format(utils.DateLayout), last.Format(utils.DateLayout), nil
	}
}

// List returns the calendar entries for q. Entries whose times do not parse
// are left out.
func (s *AppointmentService) List(ctx context.Context, q models.AppointmentQuery) ([]models.Appointment, error) {
	from, to, err := ResolveRange(q, time.Now().In(s.location))
	if err != nil {
		return nil, err
	}
	appts, err := s.store.ListRange(ctx, from, to, q.Doctor)
	if err != nil {
		return nil, errors.Wrap(err, "list appointments")
	}
	return lo.Filter(appts, func(a models.Appointment, _ int) bool {
		_, err := schedule.SlotOf(a)
		return err == nil
	}), nil
}

// All returns every projection, valid or not.
func (s *AppointmentService) All(ctx context.Context) ([]models.Appointment, error) {
	return s.store.ListAll(ctx)
}

// Get looks a projection up by application number.
func (s *AppointmentService) Get(ctx context.Context, number string) (*models.Appointment, error) {
	appt, err := s.store.GetByID(ctx, number)
	if err != nil {
		return nil, errors.Wrapf(err, "get appointment %s", number)
	}
	if appt == nil {
		return nil, utils.NewNotFound("appointment", number)
	}
	return appt, nil
}

// Doctors lists the doctor names that appear on the calendar.
func (s *AppointmentService) Doctors(ctx context.Context) ([]string, error) {
	return s.store.DistinctDoctors(ctx)
}

// Delete drops a projection without touching its application.
func (s *AppointmentService) Delete(ctx context.Context, number string) error {
	removed, err := s.store.DeleteByID(ctx, number)
	if err != nil {
		return errors.Wrapf(err, "delete appointment %s", number)
	}
	if !removed {
		return utils.NewNotFound("appointment", number)
	}
	s.emitter.Emit(ctx, models.EventDeleteAppointment, map[string]string{"id": number})
	return nil
}
