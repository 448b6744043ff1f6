package task

import (
	"context"
	"sort"
	"strings"
	"time"

	taskRepo "clinicdesk/database/repository/task"
	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/services/schedule"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TaskService manages internal bookings on the shared calendar.
type TaskService interface {
	Create(ctx context.Context, in models.TaskInput) (*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, q models.TaskQuery) ([]models.Task, error)
	Update(ctx context.Context, id string, in models.TaskInput) (*models.Task, error)
	Reschedule(ctx context.Context, id string, r models.TaskReschedule) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	Executors(ctx context.Context) ([]string, error)
	DoctorNames(ctx context.Context) ([]string, error)
}

// ConflictChecker rejects windows that overlap a booked interval.
type ConflictChecker interface {
	Check(ctx context.Context, candidate schedule.Slot, excludeID string) error
}

// DoctorLister supplies the names staff can book tasks against.
type DoctorLister interface {
	List(ctx context.Context) ([]models.Doctor, error)
}

// DefaultTaskService is the production implementation.
type DefaultTaskService struct {
	Repo     taskRepo.TaskRepository
	Doctors  DoctorLister
	Calendar ConflictChecker
	Emitter  notification.Emitter
}

var _ TaskService = (*DefaultTaskService)(nil)

func (s *DefaultTaskService) emit(ctx context.Context, name string, payload interface{}) {
	if s.Emitter != nil {
		s.Emitter.Emit(ctx, name, payload)
	}
}

// Create books a task after checking the executor's day.
func (s *DefaultTaskService) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.TaskTitle)
	if title == "" {
		return nil, utils.NewValidationError("taskTitle", "is required")
	}
	task := &models.Task{
		ID:          uuid.NewString(),
		TaskTitle:   title,
		Description: strings.TrimSpace(in.Description),
		Executor:    strings.TrimSpace(in.Executor),
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
	}
	if err := s.checkSlot(ctx, task); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, task); err != nil {
		return nil, errors.Wrap(err, "create task")
	}
	utils.GetLogger().Info("Task created",
		zap.String("taskId", task.ID),
		zap.String("executor", task.Executor),
		zap.String("date", task.Date),
	)
	s.emit(ctx, models.EventNewTask, task)
	return task, nil
}

func (s *DefaultTaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get task %s", id)
	}
	if task == nil {
		return nil, utils.NewNotFound("task", id)
	}
	return task, nil
}

// List filters by a single date or an inclusive range. With neither, every
// task is returned.
func (s *DefaultTaskService) List(ctx context.Context, q models.TaskQuery) ([]models.Task, error) {
	from, to := "", ""
	switch {
	case q.Date != "":
		if err := schedule.ValidateDate(q.Date); err != nil {
			return nil, err
		}
		from, to = q.Date, q.Date
	case q.StartDate != "" || q.EndDate != "":
		if q.StartDate == "" || q.EndDate == "" {
			return nil, utils.NewValidationError("startDate", "startDate and endDate must be given together")
		}
		for _, d := range []string{q.StartDate, q.EndDate} {
			if err := schedule.ValidateDate(d); err != nil {
				return nil, err
			}
		}
		if q.EndDate < q.StartDate {
			return nil, utils.NewValidationError("endDate", "endDate must not be before startDate")
		}
		from, to = q.StartDate, q.EndDate
	}
	tasks, err := s.Repo.ListRange(ctx, from, to, strings.TrimSpace(q.Executor))
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	return tasks, nil
}

// Update replaces every editable field. The conflict check skips the task itself.
func (s *DefaultTaskService) Update(ctx context.Context, id string, in models.TaskInput) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.TaskTitle)
	if title == "" {
		return nil, utils.NewValidationError("taskTitle", "is required")
	}
	task.TaskTitle = title
	task.Description = strings.TrimSpace(in.Description)
	task.Executor = strings.TrimSpace(in.Executor)
	task.Date = in.Date
	task.StartTime = in.StartTime
	task.EndTime = in.EndTime
	return s.save(ctx, task)
}

// Reschedule moves a task to a new window on the same executor.
func (s *DefaultTaskService) Reschedule(ctx context.Context, id string, r models.TaskReschedule) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Date = r.Date
	task.StartTime = r.StartTime
	task.EndTime = r.EndTime
	return s.save(ctx, task)
}

func (s *DefaultTaskService) save(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := s.checkSlot(ctx, task); err != nil {
		return nil, err
	}
	task.UpdatedAt = time.Now()
	if err := s.Repo.Replace(ctx, task); err != nil {
		return nil, errors.Wrapf(err, "update task %s", task.ID)
	}
	s.emit(ctx, models.EventUpdateTask, task)
	return task, nil
}

func (s *DefaultTaskService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	utils.GetLogger().Info("Task deleted", zap.String("taskId", id))
	s.emit(ctx, models.EventDeleteTask, map[string]string{"_id": id})
	return nil
}

// Executors merges the names tasks were booked against with the doctor list.
func (s *DefaultTaskService) Executors(ctx context.Context) ([]string, error) {
	booked, err := s.Repo.DistinctExecutors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list executors")
	}
	doctors, err := s.DoctorNames(ctx)
	if err != nil {
		return nil, err
	}
	names := lo.Uniq(append(booked, doctors...))
	sort.Strings(names)
	return names, nil
}

// DoctorNames lists doctor display names, the same keys the calendar uses.
func (s *DefaultTaskService) DoctorNames(ctx context.Context) ([]string, error) {
	if s.Doctors == nil {
		return []string{}, nil
	}
	doctors, err := s.Doctors.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list doctors")
	}
	names := lo.FilterMap(doctors, func(d models.Doctor, _ int) (string, bool) {
		n := models.FullName(d.FirstName, d.MiddleName, d.LastName)
		return n, n != ""
	})
	sort.Strings(names)
	return names, nil
}

func (s *DefaultTaskService) checkSlot(ctx context.Context, task *models.Task) error {
	slot, err := schedule.SlotOf(task)
	if err != nil {
		return err
	}
	return s.Calendar.Check(ctx, slot, task.ID)
}
