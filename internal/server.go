package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/sprintlane/sprintlane/internal/config"
	"github.com/sprintlane/sprintlane/internal/eventbus"
	"github.com/sprintlane/sprintlane/internal/schedule"
	"github.com/sprintlane/sprintlane/internal/sprint"
	"github.com/sprintlane/sprintlane/internal/task"
	"github.com/sprintlane/sprintlane/pkg/cerr"
	"github.com/sprintlane/sprintlane/pkg/clog"
)

type Server struct {
	server         *http.Server
	env            *config.Env
	taskServer     *task.Server
	sprintServer   *sprint.Server
	scheduleServer *schedule.Server
	eventBus       *eventbus.Bus
}

func NewServer(
	env *config.Env,
	taskServer *task.Server,
	sprintServer *sprint.Server,
	scheduleServer *schedule.Server,
	eventBus *eventbus.Bus,
) *Server {
	return &Server{
		env:            env,
		taskServer:     taskServer,
		sprintServer:   sprintServer,
		scheduleServer: scheduleServer,
		eventBus:       eventBus,
	}
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext. When ctx
// is cancelled (e.g. on shutdown signal), event stream contexts are also
// cancelled, allowing the server to shut down without waiting for streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		s.taskServer.Routes(r)
		s.sprintServer.Routes(r)
		s.scheduleServer.Routes(r)
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	// The event stream writes incrementally, so it bypasses the buffered
	// JSON response middleware.
	mux.Handle("/events", http.HandlerFunc(s.handleEventStream))

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleEventStream pushes bus events to the client as newline-delimited
// JSON until the client disconnects.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, ch := s.eventBus.Subscribe(64)
	defer s.eventBus.Unsubscribe(id)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := enc.Encode(ev); err != nil {
				slog.DebugContext(ctx, "event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.env.APIKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
