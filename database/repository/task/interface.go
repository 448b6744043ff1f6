package taskRepo

import (
	"context"

	"clinicdesk/models"
)

// TaskRepository defines methods for task data access.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	Replace(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	// ListRange returns tasks with from <= date <= to; empty bounds are open.
	ListRange(ctx context.Context, from, to, executor string) ([]models.Task, error)
	ListByOwnerAndDate(ctx context.Context, executor, date string) ([]models.Task, error)
	DistinctExecutors(ctx context.Context) ([]string, error)
}
