package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sprintlane/sprintlane/internal/eventbus"
	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/pkg/cerr"
)

// BaselineStamper freezes planned end dates after a successful prediction.
// Implemented by the schedule package; injected to avoid a cycle.
type BaselineStamper interface {
	Stamp(ctx context.Context) error
}

type Server struct {
	repo     Repository
	stamper  BaselineStamper
	eventBus *eventbus.Bus
}

func NewServer(repo Repository, stamper BaselineStamper, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		stamper:  stamper,
		eventBus: eventBus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/tasks", s.handleList)
	r.Post("/tasks", s.handleCreate)
	r.Get("/tasks/{id}", s.handleGet)
	r.Put("/tasks/{id}", s.handleUpdate)
	r.Delete("/tasks/{id}", s.handleDelete)
}

func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, cerr.NewError(cerr.InvalidArgument, "task id must be an integer", err)
	}
	return id, nil
}

func validate(t *plan.Task) error {
	if t.Name == "" {
		return cerr.NewError(cerr.InvalidArgument, "task name is required", nil)
	}
	for _, dep := range t.DependsOn {
		if dep == t.ID {
			return cerr.NewError(cerr.InvalidArgument,
				fmt.Sprintf("task %d must not depend on itself", t.ID), nil)
		}
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, tasks)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := idParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var t plan.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid task payload", err)
		return
	}
	if t.ID == 0 {
		id, err := s.repo.NextID(ctx)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		t.ID = id
	}
	if t.Priority == "" {
		t.Priority = plan.PriorityP2
	}
	if t.Status == "" {
		t.Status = plan.StatusPlanned
	}
	// The baseline is only ever stamped by the server, never accepted
	// from the payload.
	t.PlannedEnd = plan.Date{}

	if err := validate(&t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Create(ctx, &t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx, t.ID)
	cerr.SetJSONResponse(ctx, &t)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := idParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	var t plan.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid task payload", err)
		return
	}
	t.ID = id
	// A frozen baseline survives every later edit.
	t.PlannedEnd = existing.PlannedEnd

	if err := validate(&t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Update(ctx, &t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx, id)
	cerr.SetJSONResponse(ctx, &t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := idParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx, id)
	cerr.SetJSONResponse(ctx, map[string]bool{"deleted": true})
}

func (s *Server) afterMutation(ctx context.Context, id int) {
	if err := s.stamper.Stamp(ctx); err != nil {
		slog.WarnContext(ctx, "baseline stamping failed", "error", err)
	}
	s.eventBus.PublishNew(eventbus.EventTaskChanged, strconv.Itoa(id), nil)
}
