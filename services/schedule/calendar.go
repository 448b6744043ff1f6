package schedule

import (
	"context"

	"clinicdesk/models"

	"github.com/cockroachdb/errors"
)

// TaskSource lists the tasks booked against an executor on one day.
type TaskSource interface {
	ListByOwnerAndDate(ctx context.Context, executor, date string) ([]models.Task, error)
}

// AppointmentSource lists the appointments booked against a doctor on one day.
type AppointmentSource interface {
	ListByOwnerAndDate(ctx context.Context, doctor, date string) ([]models.Appointment, error)
}

// Calendar checks candidates against everything on the shared calendar. Tasks
// and appointments compete for the same owner names.
type Calendar struct {
	Tasks        TaskSource
	Appointments AppointmentSource
}

// NewCalendar wires the two interval sources.
func NewCalendar(tasks TaskSource, appointments AppointmentSource) *Calendar {
	return &Calendar{Tasks: tasks, Appointments: appointments}
}

// Siblings loads every interval on candidate's day for candidate's owner.
func (c *Calendar) Siblings(ctx context.Context, candidate Slot) ([]models.BookableInterval, error) {
	var out []models.BookableInterval
	if c.Tasks != nil {
		tasks, err := c.Tasks.ListByOwnerAndDate(ctx, candidate.Owner, candidate.Date)
		if err != nil {
			return nil, errors.Wrap(err, "load tasks for conflict check")
		}
		for _, t := range tasks {
			out = append(out, t)
		}
	}
	if c.Appointments != nil {
		appts, err := c.Appointments.ListByOwnerAndDate(ctx, candidate.Owner, candidate.Date)
		if err != nil {
			return nil, errors.Wrap(err, "load appointments for conflict check")
		}
		for _, a := range appts {
			out = append(out, a)
		}
	}
	return out, nil
}

// Check returns a ConflictError naming the first booked interval candidate
// overlaps. excludeID skips the record being rescheduled.
func (c *Calendar) Check(ctx context.Context, candidate Slot, excludeID string) error {
	siblings, err := c.Siblings(ctx, candidate)
	if err != nil {
		return err
	}
	if other, found := FindConflict(candidate, siblings, excludeID); found {
		return other.Conflict()
	}
	return nil
}
