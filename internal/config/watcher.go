package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watch starts a file watcher on the config path and reloads on change.
// Reload failures keep the previous configuration; the onChange callback set
// on the loader only fires for configs that parse and validate.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(l.path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					_, _ = l.Reload()
				}
			case <-watcher.Errors:
				// Ignore watcher errors; the stale config stays in effect.
			}
		}
	}()

	return nil
}
