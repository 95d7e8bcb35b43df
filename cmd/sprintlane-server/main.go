package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sprintlane/sprintlane/internal/config"
	"github.com/sprintlane/sprintlane/internal/eventbus"
	"github.com/sprintlane/sprintlane/internal/schedule"
	"github.com/sprintlane/sprintlane/internal/sprint"
	sprintrepo "github.com/sprintlane/sprintlane/internal/sprint/repositoryimpl"
	"github.com/sprintlane/sprintlane/internal/task"
	taskrepo "github.com/sprintlane/sprintlane/internal/task/repositoryimpl"
	"github.com/sprintlane/sprintlane/internal/watch"
	"github.com/sprintlane/sprintlane/pkg/clog"
	"github.com/sprintlane/sprintlane/pkg/storage"

	server "github.com/sprintlane/sprintlane/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	sprintRepo := sprintrepo.NewYAMLRepository(store)

	// Setup servers
	stamper := schedule.NewStamper(taskRepo, sprintRepo)
	taskServer := task.NewServer(taskRepo, stamper, bus)
	sprintServer := sprint.NewServer(sprintRepo, stamper, bus)
	scheduleServer := schedule.NewServer(taskRepo, sprintRepo, bus)

	srv := server.NewServer(
		env,
		taskServer,
		sprintServer,
		scheduleServer,
		bus,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Stamp planned ends for anything added while the server was down.
	if err := stamper.Stamp(ctx); err != nil {
		slog.Warn("initial baseline stamping failed", "error", err)
	}

	go func() {
		if err := scheduleServer.Start(ctx); err != nil {
			slog.Error("schedule cache error", "error", err)
		}
	}()

	if env.Watch {
		if local, ok := store.(*storage.LocalStorage); ok {
			watcher := watch.New(local.BasePath(), time.Duration(env.WatchDebounce)*time.Millisecond, stamper, bus)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					slog.Warn("filesystem watcher stopped", "error", err)
				}
			}()
		}
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
