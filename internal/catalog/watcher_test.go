package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "alpha", SuiteFile{ID: "alpha", Name: "甲"}, sampleQuestions(), nil)

	c, err := New(root, filepath.Join(root, "ad-config.json"))
	require.NoError(t, err)
	startVersion := c.Snapshot().Version

	var calls atomic.Int32
	w, err := NewWatcher(c,
		WithWatchDebounce(30*time.Millisecond),
		WithReloadFunc(func() (*Snapshot, error) {
			calls.Add(1)
			return c.Reload()
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeSuite(t, root, "alpha", SuiteFile{ID: "alpha", Name: "乙"}, sampleQuestions(), nil)

	require.Eventually(t, func() bool {
		suite, err := c.Suite("alpha")
		return err == nil && suite.Name == "乙"
	}, 3*time.Second, 20*time.Millisecond)
	assert.Greater(t, c.Snapshot().Version, startVersion)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestWatcherKeepsSnapshotOnBrokenEdit(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "alpha", SuiteFile{ID: "alpha"}, sampleQuestions(), nil)

	c, err := New(root, "")
	require.NoError(t, err)
	before := c.Snapshot()

	failures := make(chan error, 4)
	w, err := NewWatcher(c,
		WithWatchDebounce(30*time.Millisecond),
		WithReloadFunc(func() (*Snapshot, error) {
			snap, err := c.Reload()
			if err != nil {
				failures <- err
			}
			return snap, err
		}),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "alpha", questionsFile), []byte("{broken"), 0o644))

	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("reload was not attempted")
	}
	assert.Same(t, before, c.Snapshot())
}

func TestNewWatcherRequiresSuitesDir(t *testing.T) {
	_, err := NewWatcher(nil)
	assert.Error(t, err)

	snap, err := NewSnapshot([]*Suite{mustSuite(t)}, nil)
	require.NoError(t, err)
	_, err = NewWatcher(NewStatic(snap))
	assert.Error(t, err)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "alpha", SuiteFile{ID: "alpha"}, sampleQuestions(), nil)
	c, err := New(root, "")
	require.NoError(t, err)

	w, err := NewWatcher(c)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func mustSuite(t *testing.T) *Suite {
	t.Helper()
	suite, err := NewSuite("solo", SuiteFile{}, sampleQuestions(), nil)
	require.NoError(t, err)
	return suite
}
