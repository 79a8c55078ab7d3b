package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long the watcher waits for a burst of file
// events to settle before reloading.
const DefaultWatchDebounce = 100 * time.Millisecond

// DefinitionWatcher reloads the inspector when its definition file changes on disk.
// It watches the file's directory, so saves that replace the file
// (write to a temp file, then rename) are seen as well as in-place writes.
type DefinitionWatcher struct {
	insp     *wizvis.Inspector
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	dir    string
	target string
}

// NewDefinitionWatcher starts watching the currently loaded definition, if any.
// Definitions opened later are picked up through the inspector's notifications.
func NewDefinitionWatcher(insp *wizvis.Inspector, debounce time.Duration, logger *slog.Logger) (*DefinitionWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &DefinitionWatcher{insp: insp, fs: fw, debounce: debounce, logger: logger}
	w.follow()
	return w, nil
}

// follow points the watcher at the loaded definition's directory.
func (w *DefinitionWatcher) follow() {
	def := w.insp.Definition()
	if def == nil || def.Source == "" {
		return
	}
	target, err := filepath.Abs(def.Source)
	if err != nil {
		w.logger.Warn("cannot watch definition", "path", def.Source, "err", err)
		return
	}
	w.target = target

	dir := filepath.Dir(target)
	if dir == w.dir {
		return
	}
	if w.dir != "" {
		_ = w.fs.Remove(w.dir)
	}
	if err := w.fs.Add(dir); err != nil {
		w.logger.Warn("cannot watch directory", "dir", dir, "err", err)
		w.dir = ""
		return
	}
	w.dir = dir
	w.logger.Debug("watching definition", "path", target)
}

// Run reloads on change until ctx is done, then closes the watcher.
// Failed reloads keep the previous chart and are reported on out.
func (w *DefinitionWatcher) Run(ctx context.Context, out io.Writer) {
	defer w.fs.Close()

	loads := w.insp.Watch(ctx)
	w.follow()

	settle := time.NewTimer(w.debounce)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case n, ok := <-loads:
			if !ok {
				return
			}
			if n.Kind == domain.NotifyLoaded {
				w.follow()
			}

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settle.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "err", err)

		case <-settle.C:
			w.reload(ctx, out)
		}
	}
}

func (w *DefinitionWatcher) reload(ctx context.Context, out io.Writer) {
	path := w.target
	w.logger.Info("Change detected, reloading", "path", path)
	if err := w.insp.Reload(ctx); err != nil {
		w.logger.Error("Reload failed", "path", path, "err", err)
		printSystemMessage(out, "Reload of '%s' failed: %v", path, err)
		return
	}
	printSystemMessage(out, "Change detected in '%s', reloaded.", path)
}
