package container

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchPolicy watches the policy file for external edits and reloads the
// container's derived state whenever it changes, so operators can update
// policy.yaml without calling the reload endpoint. Errors from an initial
// watcher setup are logged, not fatal: the explicit reload endpoint still
// works even if the filesystem watch can't be established.
func (c *Container) WatchPolicy(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.Logger.Warn("policy file watcher unavailable", zap.Error(err))
		return
	}

	dir := filepath.Dir(c.Settings.PolicyPath)
	if err := watcher.Add(dir); err != nil {
		c.Logger.Warn("failed to watch policy directory", zap.String("dir", dir), zap.Error(err))
		watcher.Close()
		return
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
				if filepath.Clean(event.Name) != filepath.Clean(c.Settings.PolicyPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := c.ReloadPolicy(ctx); err != nil {
					c.Logger.Warn("policy auto-reload failed", zap.Error(err))
					continue
				}
				c.Logger.Info("policy auto-reloaded from disk change")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.Logger.Warn("policy watcher error", zap.Error(err))
			}
		}
	}()
}
