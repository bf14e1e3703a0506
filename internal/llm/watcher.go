package llm

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a chain when its provider file changes on disk.
type Watcher struct {
	path     string
	chain    *Chain
	registry *Registry
	logger   *zap.Logger
	debounce time.Duration
}

func NewWatcher(path string, chain *Chain, registry *Registry, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		chain:    chain,
		registry: registry,
		logger:   logger,
		debounce: 250 * time.Millisecond,
	}
}

// Run watches until ctx is done. The directory is watched rather than the
// file so that editors replacing the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.logger.Info("Watching provider file", zap.String("path", w.path))

	target := filepath.Clean(w.path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Provider file watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			if err := w.Reload(); err != nil {
				w.logger.Error("Provider file reload failed, keeping current chain", zap.Error(err))
			}
		}
	}
}

// Reload rebuilds the providers from the file and swaps them into the chain.
func (w *Watcher) Reload() error {
	cfg, err := LoadChainConfig(w.path)
	if err != nil {
		return err
	}
	providers, err := w.registry.Build(cfg.Providers)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		return ErrNoProviders
	}
	w.chain.Replace(providers)
	return nil
}
