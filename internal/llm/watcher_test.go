package llm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - name: first\n    kind: canned\n"), 0o600))

	registry := NewDefaultRegistry(nil)
	cfg, err := LoadChainConfig(path)
	require.NoError(t, err)
	chain, err := registry.NewChainFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"first"}, chain.Names())

	w := NewWatcher(path, chain, registry, nil)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - name: second\n    kind: canned\n  - name: third\n    kind: canned\n"), 0o600))

	assert.Eventually(t, func() bool {
		names := chain.Names()
		return len(names) == 2 && names[0] == "second"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_ReloadKeepsChainOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: []\n"), 0o600))

	chain := NewChain([]Provider{NewScienceCanned()})
	w := NewWatcher(path, chain, NewDefaultRegistry(nil), nil)

	assert.ErrorIs(t, w.Reload(), ErrNoProviders)
	assert.Equal(t, []string{"canned"}, chain.Names())
}
