package client

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

type countingClearer struct {
	calls atomic.Int32
}

func (c *countingClearer) ClearAll() {
	c.calls.Add(1)
}

func TestWatchOverrides_ClearsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultOverrideFileName)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clearer := &countingClearer{}
	require.NoError(t, WatchOverrides(ctx, hclog.NewNullLogger(), path, clearer))

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

	require.NoError(t, os.WriteFile(path, []byte(`{"instances":[]}`), 0o644))
	require.Eventually(t, func() bool {
		return clearer.calls.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)

	before := clearer.calls.Load()
	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return clearer.calls.Load() > before
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchOverrides_Validation(t *testing.T) {
	t.Parallel()

	err := WatchOverrides(context.Background(), nil, "x.json", &countingClearer{})
	require.EqualError(t, err, "logger cannot be nil")

	err = WatchOverrides(context.Background(), hclog.NewNullLogger(), "x.json", nil)
	require.EqualError(t, err, "cache cannot be nil")

	err = WatchOverrides(
		context.Background(),
		hclog.NewNullLogger(),
		filepath.Join(t.TempDir(), "missing", DefaultOverrideFileName),
		&countingClearer{},
	)
	require.ErrorContains(t, err, "failed to watch override directory")
}
