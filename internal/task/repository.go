package task

import (
	"context"

	"github.com/sprintlane/sprintlane/internal/plan"
)

type Repository interface {
	Create(ctx context.Context, t *plan.Task) error
	Get(ctx context.Context, id int) (*plan.Task, error)
	List(ctx context.Context) ([]*plan.Task, error)
	NextID(ctx context.Context) (int, error)
	Update(ctx context.Context, t *plan.Task) error
	Delete(ctx context.Context, id int) error
}
