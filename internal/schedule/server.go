package schedule

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/sprintlane/sprintlane/internal/eventbus"
	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/internal/sprint"
	"github.com/sprintlane/sprintlane/internal/task"
	"github.com/sprintlane/sprintlane/pkg/cerr"
	"github.com/sprintlane/sprintlane/pkg/panicerr"
)

// snapshot is one consistent computation over the current task set and
// sprint config. It is rebuilt lazily after any mutation event.
type snapshot struct {
	Predictions plan.PredictionMap
	Cycles      []int
	Velocity    map[string]plan.Velocity
}

type Server struct {
	taskRepo   task.Repository
	sprintRepo sprint.Repository
	eventBus   *eventbus.Bus

	mu   sync.RWMutex
	snap *snapshot
}

func NewServer(taskRepo task.Repository, sprintRepo sprint.Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		taskRepo:   taskRepo,
		sprintRepo: sprintRepo,
		eventBus:   eventBus,
	}
}

func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, cerr.NewError(cerr.InvalidArgument, "task id must be an integer", err)
	}
	return id, nil
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/predictions", s.handlePredictions)
	r.Get("/predictions/{id}/end", s.handleTaskEnd)
	r.Get("/cycles", s.handleCycles)
	r.Get("/velocity", s.handleVelocity)
}

// Start subscribes to mutation events and drops the cached snapshot when
// tasks or the sprint config change. It returns once ctx is done.
func (s *Server) Start(ctx context.Context) error {
	return panicerr.SafeContext(func(ctx context.Context) error {
		id, ch := s.eventBus.Subscribe(16)
		defer s.eventBus.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-ch:
				if !ok {
					return nil
				}
				switch ev.Type {
				case eventbus.EventTaskChanged, eventbus.EventSprintChanged, eventbus.EventPredictionsUpdated:
					s.invalidate()
				}
			}
		}
	})(ctx)
}

func (s *Server) invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

func (s *Server) current(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to list tasks", err)
	}
	cfg, err := s.sprintRepo.Get(ctx)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to load sprint config", err)
	}
	snap = &snapshot{
		Predictions: plan.ComputePredictions(tasks, cfg),
		Cycles:      plan.FindCycles(tasks),
		Velocity:    plan.ComputeVelocity(tasks),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	slog.DebugContext(ctx, "schedule snapshot rebuilt", "tasks", len(tasks))
	return snap, nil
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.current(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, snap.Predictions)
}

func (s *Server) handleTaskEnd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := idParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	snap, err := s.current(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	end, ok := plan.TaskPredictedEnd(id, snap.Predictions)
	if !ok {
		cerr.SetJSONResponse(ctx, map[string]any{"taskId": id, "end": nil})
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"taskId": id, "end": end})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.current(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"cycles": snap.Cycles})
}

func (s *Server) handleVelocity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.current(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, snap.Velocity)
}
