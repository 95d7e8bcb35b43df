package sprint

import (
	"context"

	"github.com/sprintlane/sprintlane/internal/plan"
)

type Repository interface {
	Get(ctx context.Context) (*plan.SprintConfig, error)
	Save(ctx context.Context, cfg *plan.SprintConfig) error
}
