package repositoryimpl

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/pkg/cerr"
	"github.com/sprintlane/sprintlane/pkg/storage"
)

const tasksPrefix = "tasks"

// YAMLRepository stores one YAML document per task under tasks/<id>.yaml.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id int) string {
	return fmt.Sprintf("%s/%d.yaml", tasksPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *plan.Task) error {
	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id int) (*plan.Task, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	var t plan.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task: %w", err))
	}
	return &t, nil
}

// List returns every stored task ordered by id.
func (r *YAMLRepository) List(ctx context.Context) ([]*plan.Task, error) {
	paths, err := r.storage.List(ctx, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}

	var all []*plan.Task
	for _, p := range paths {
		if !strings.HasSuffix(p, ".yaml") {
			continue
		}
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var t plan.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			continue
		}
		all = append(all, &t)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// NextID returns the smallest id greater than every stored task's id.
func (r *YAMLRepository) NextID(ctx context.Context) (int, error) {
	paths, err := r.storage.List(ctx, tasksPrefix)
	if err != nil {
		return 0, cerr.WrapStorageReadError("tasks", err)
	}
	max := 0
	for _, p := range paths {
		base := strings.TrimSuffix(strings.TrimPrefix(p, tasksPrefix+"/"), ".yaml")
		if id, err := strconv.Atoi(base); err == nil && id > max {
			max = id
		}
	}
	return max + 1, nil
}

func (r *YAMLRepository) Update(ctx context.Context, t *plan.Task) error {
	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id int) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("task", err)
	}
	return nil
}
