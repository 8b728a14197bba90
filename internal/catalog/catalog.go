// Package catalog loads question suites and the ad config from disk and serves them as
// an immutable snapshot that can be swapped atomically on reload.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
)

// Snapshot is one consistent view of the catalog. It is never mutated after creation.
type Snapshot struct {
	Suites   []*Suite
	Default  *Suite
	AdConfig json.RawMessage
	LoadedAt time.Time
	Version  uint64

	byID map[string]*Suite
}

// Suite returns the suite with the given id, or the default suite when id is empty.
func (s *Snapshot) Suite(id string) (*Suite, error) {
	if id == "" {
		return s.Default, nil
	}
	suite, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("suite", id, fmt.Sprintf("套题不存在: %s", id))
	}
	return suite, nil
}

// Summaries lists every suite in load order.
func (s *Snapshot) Summaries() []Summary {
	out := make([]Summary, 0, len(s.Suites))
	for _, suite := range s.Suites {
		out = append(out, suite.Summary())
	}
	return out
}

// NewSnapshot indexes suites and picks the default one.
func NewSnapshot(suites []*Suite, adConfig json.RawMessage) (*Snapshot, error) {
	if len(suites) == 0 {
		return nil, apperrors.NewConfigurationError("未检测到可用套题", nil)
	}
	snap := &Snapshot{
		Suites:   suites,
		Default:  suites[0],
		AdConfig: adConfig,
		LoadedAt: time.Now(),
		byID:     make(map[string]*Suite, len(suites)),
	}
	for _, suite := range suites {
		snap.byID[suite.ID] = suite
	}
	for _, suite := range suites {
		if suite.IsDefault {
			snap.Default = suite
			break
		}
	}
	if snap.AdConfig == nil {
		snap.AdConfig = DefaultAdConfig
	}
	return snap, nil
}

// Catalog owns the current snapshot.
type Catalog struct {
	suitesDir    string
	adConfigPath string

	current   atomic.Pointer[Snapshot]
	version   atomic.Uint64
	reloadMu  sync.Mutex
	listeners []func(*Snapshot)
}

// New loads the catalog. A load failure here is fatal for the caller.
func New(suitesDir, adConfigPath string) (*Catalog, error) {
	c := &Catalog{suitesDir: suitesDir, adConfigPath: adConfigPath}
	if _, err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewStatic wraps an already built snapshot. Reload is not available.
func NewStatic(snap *Snapshot) *Catalog {
	c := &Catalog{}
	c.current.Store(snap)
	return c
}

// Snapshot returns the current snapshot.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Suite resolves a suite against the current snapshot.
func (c *Catalog) Suite(id string) (*Suite, error) {
	return c.Snapshot().Suite(id)
}

// SuitesDir returns the directory suites are loaded from.
func (c *Catalog) SuitesDir() string { return c.suitesDir }

// AdConfigPath returns the ad config file path.
func (c *Catalog) AdConfigPath() string { return c.adConfigPath }

// OnReload registers fn to run after every successful swap.
func (c *Catalog) OnReload(fn func(*Snapshot)) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Reload rebuilds the snapshot from disk and swaps it in. On error the previous snapshot
// stays active.
func (c *Catalog) Reload() (*Snapshot, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	if c.suitesDir == "" {
		return nil, apperrors.NewConfigurationError("catalog has no suites directory", nil)
	}

	suites, err := LoadSuites(c.suitesDir)
	if err != nil {
		return nil, err
	}
	adConfig, err := LoadAdConfig(c.adConfigPath)
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(suites, adConfig)
	if err != nil {
		return nil, err
	}
	snap.Version = c.version.Add(1)

	c.current.Store(snap)
	slog.Info("Catalog loaded",
		"suites", len(snap.Suites),
		"default_suite", snap.Default.ID,
		"version", snap.Version)

	for _, fn := range c.listeners {
		fn(snap)
	}
	return snap, nil
}
