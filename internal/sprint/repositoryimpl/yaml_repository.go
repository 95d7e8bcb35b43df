package repositoryimpl

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/pkg/cerr"
	"github.com/sprintlane/sprintlane/pkg/storage"
)

const configPath = "sprint/config.yaml"

// YAMLRepository stores the sprint configuration as a single YAML document.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

// Get returns the stored configuration, or an empty one when nothing has
// been saved yet. Missing fields default to empty; the engine treats them
// as no holidays, no events, no delays.
func (r *YAMLRepository) Get(ctx context.Context) (*plan.SprintConfig, error) {
	data, err := r.storage.Read(ctx, configPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &plan.SprintConfig{}, nil
		}
		return nil, cerr.WrapStorageReadError("sprint config", err)
	}
	var cfg plan.SprintConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal sprint config: %w", err))
	}
	return &cfg, nil
}

func (r *YAMLRepository) Save(ctx context.Context, cfg *plan.SprintConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal sprint config: %w", err))
	}
	if err := r.storage.Write(ctx, configPath, data); err != nil {
		return cerr.WrapStorageWriteError("sprint config", err)
	}
	return nil
}
