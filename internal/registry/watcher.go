package registry

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wonny/argus/pkg/logger"
)

// Watcher hot-reloads the registry file and swaps the new version into
// the handle. A failed reload keeps the previous version in place.
type Watcher struct {
	handle *Handle
	path   string
	log    *logger.Logger
}

// NewWatcher creates a watcher for a registry file
func NewWatcher(handle *Handle, path string, log *logger.Logger) *Watcher {
	return &Watcher{
		handle: handle,
		path:   path,
		log:    log.WithComponent("registry.watcher"),
	}
}

// Run blocks until ctx is cancelled, reloading on file changes. Editors
// and config deploys often replace the file, so the parent directory is
// watched rather than the file itself.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			reg, err := Load(w.path)
			if err != nil {
				w.log.WithError(err).Error("registry reload failed, keeping current version")
				continue
			}

			w.handle.Swap(reg)
			w.log.WithFields(map[string]interface{}{
				"version":    reg.Version,
				"generation": reg.Generation,
				"entities":   len(reg.Entities()),
			}).Info("registry reloaded")

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("registry watcher error")
		}
	}
}
