package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sprintlane/sprintlane/internal/eventbus"
	"github.com/sprintlane/sprintlane/pkg/cerr"
	"github.com/sprintlane/sprintlane/pkg/panicerr"
)

// Recomputer is invoked after the data directory settles.
type Recomputer interface {
	Stamp(ctx context.Context) error
}

// Watcher recomputes predictions when task or sprint files change on disk.
// Edits made outside the API (a text editor, git checkout, rsync) show up in
// the next prediction without a server restart.
type Watcher struct {
	baseDir    string
	debounce   time.Duration
	recomputer Recomputer
	eventBus   *eventbus.Bus
}

func New(baseDir string, debounce time.Duration, recomputer Recomputer, eventBus *eventbus.Bus) *Watcher {
	return &Watcher{
		baseDir:    baseDir,
		debounce:   debounce,
		recomputer: recomputer,
		eventBus:   eventBus,
	}
}

// Run blocks until ctx is done. Watcher errors are logged, not fatal: a
// broken watch degrades to API-driven recomputation only.
func (w *Watcher) Run(ctx context.Context) error {
	return panicerr.SafeContext(w.run)(ctx)
}

func (w *Watcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to create filesystem watcher", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.baseDir); err != nil {
		return err
	}
	slog.InfoContext(ctx, "watching data directory", "dir", w.baseDir)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if skipEvent(event) {
				continue
			}
			// A created directory must be watched too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(watcher, event.Name); err != nil {
						slog.WarnContext(ctx, "failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			// Let rapid bursts settle before recomputing. An atomic save
			// produces a write plus a rename back to back.
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := w.recomputer.Stamp(ctx); err != nil {
				slog.WarnContext(ctx, "recompute after file change failed", "error", err)
				continue
			}
			w.eventBus.PublishNew(eventbus.EventPredictionsUpdated, "predictions", nil)
			slog.DebugContext(ctx, "predictions recomputed after file change")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "filesystem watcher error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return cerr.NewError(cerr.Internal, "failed to walk data directory", err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return cerr.NewError(cerr.Internal, "failed to watch directory", err)
		}
		return nil
	})
}

// skipEvent filters out noise: temp files from atomic writes and events
// that do not change file contents.
func skipEvent(event fsnotify.Event) bool {
	if strings.HasSuffix(event.Name, ".tmp") {
		return true
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0
}
