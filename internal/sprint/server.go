package sprint

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/sprintlane/sprintlane/internal/eventbus"
	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/pkg/cerr"
)

// BaselineStamper freezes planned end dates after a successful prediction.
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
	r.Get("/sprint", s.handleGet)
	r.Put("/sprint", s.handlePut)
	r.Post("/sprint/events", s.handleAddEvent)
	r.Delete("/sprint/events/{id}", s.handleDeleteEvent)
	r.Post("/sprint/rota", s.handleAddRota)
	r.Post("/sprint/delays", s.handleAddDelay)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, cfg)
}

// handlePut replaces the sprint window and holidays; events and delays are
// managed through their own endpoints and survive the update.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		SprintStart plan.Date   `json:"sprintStart"`
		SprintEnd   plan.Date   `json:"sprintEnd"`
		Holidays    []plan.Date `json:"holidays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid sprint payload", err)
		return
	}
	if in.SprintStart.IsZero() {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "sprintStart is required", nil)
		return
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cfg.SprintStart = in.SprintStart
	cfg.SprintEnd = in.SprintEnd
	cfg.Holidays = in.Holidays

	if err := s.repo.Save(ctx, cfg); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx)
	cerr.SetJSONResponse(ctx, cfg)
}

// hasEvent reports whether an equivalent person/date/type entry already
// exists. Duplicates are rejected here, at the add boundary, not by the
// engine.
func hasEvent(cfg *plan.SprintConfig, e plan.CalendarEvent) bool {
	for _, existing := range cfg.CalendarEvents {
		if existing.Person == e.Person && existing.Date.Equal(e.Date) && existing.Type == e.Type {
			return true
		}
	}
	return false
}

func validEventType(t plan.EventType) bool {
	return t == plan.EventL2 || t == plan.EventPlanned || t == plan.EventUnplanned
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var e plan.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid calendar event payload", err)
		return
	}
	if e.Person == "" || e.Date.IsZero() || !validEventType(e.Type) {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "person, date and a valid type are required", nil)
		return
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if hasEvent(cfg, e) {
		// Same person, day and type is a no-op, not a conflict.
		cerr.SetJSONResponse(ctx, cfg)
		return
	}
	e.ID = ulid.Make().String()
	cfg.CalendarEvents = append(cfg.CalendarEvents, e)

	if err := s.repo.Save(ctx, cfg); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx)
	cerr.SetJSONResponse(ctx, cfg)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	kept := cfg.CalendarEvents[:0]
	found := false
	for _, e := range cfg.CalendarEvents {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "calendar event not found", nil)
		return
	}
	cfg.CalendarEvents = kept

	if err := s.repo.Save(ctx, cfg); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx)
	cerr.SetJSONResponse(ctx, cfg)
}

// handleAddRota expands a weekly rotational-duty assignment into explicit
// l2 events over a date window, skipping days already present.
func (s *Server) handleAddRota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		Person  string    `json:"person"`
		Weekday int       `json:"weekday"` // time.Weekday: 0=Sunday .. 6=Saturday
		From    plan.Date `json:"from"`
		To      plan.Date `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid rota payload", err)
		return
	}
	if in.Person == "" || in.From.IsZero() || in.To.IsZero() || in.Weekday < 0 || in.Weekday > 6 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "person, weekday and a date window are required", nil)
		return
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	added := 0
	for _, e := range plan.L2RotaEvents(in.Person, time.Weekday(in.Weekday), in.From, in.To) {
		if hasEvent(cfg, e) {
			continue
		}
		e.ID = ulid.Make().String()
		cfg.CalendarEvents = append(cfg.CalendarEvents, e)
		added++
	}
	if added > 0 {
		if err := s.repo.Save(ctx, cfg); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		s.afterMutation(ctx)
	}
	slog.DebugContext(ctx, "rota expanded", "person", in.Person, "added", added)
	cerr.SetJSONResponse(ctx, cfg)
}

func (s *Server) handleAddDelay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var d plan.TaskDelay
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid delay payload", err)
		return
	}
	if d.TaskID == 0 || d.EffortDelta == 0 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId and a non-zero effortDelta are required", nil)
		return
	}
	if d.Lane == "" {
		d.Lane = plan.DelayAllLanes
	}
	if d.LoggedAt.IsZero() {
		now := time.Now()
		d.LoggedAt = plan.NewDate(now.Year(), now.Month(), now.Day())
	}
	d.ID = ulid.Make().String()

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cfg.TaskDelays = append(cfg.TaskDelays, d)

	if err := s.repo.Save(ctx, cfg); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.afterMutation(ctx)
	cerr.SetJSONResponse(ctx, cfg)
}

func (s *Server) afterMutation(ctx context.Context) {
	if err := s.stamper.Stamp(ctx); err != nil {
		slog.WarnContext(ctx, "baseline stamping failed", "error", err)
	}
	s.eventBus.PublishNew(eventbus.EventSprintChanged, "sprint", nil)
}
