package fractal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/fractalview/internal/logging"
)

// Loader resolves fractal types to loaded modules, caching per type.
//
// On a cache miss the resolution order is: the type's family chunk, then
// the type's individual chunk, then (for any failure on a non-default type)
// the whole procedure again for DefaultType. The recursion is bounded to
// depth 1 by construction: the default type never falls back to itself.
//
// Loader is safe for concurrent use.
type Loader struct {
	mu       sync.Mutex
	registry *Registry
	cache    map[Type]*Module
	loading  int // outstanding Load depth across goroutines
	log      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRegistry makes the loader resolve chunks through reg instead of the
// built-in catalog registry.
func WithRegistry(reg *Registry) LoaderOption {
	return func(l *Loader) { l.registry = reg }
}

// WithLogger sets the loader's logger.
func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader creates a loader backed by the built-in catalog registry.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		registry: defaultRegistry,
		cache:    make(map[Type]*Module),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves t to a render-capable module.
//
// A cache hit returns immediately. On any failure for a non-default type
// the loader retries once with DefaultType; only the default type's own
// failure is returned to the caller.
func (l *Loader) Load(ctx context.Context, t Type) (*Module, error) {
	l.mu.Lock()
	if m, ok := l.cache[t]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.loading++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.loading--
		l.mu.Unlock()
	}()

	m, err := l.resolve(ctx, t)
	if err != nil {
		if t == DefaultType {
			return nil, err
		}
		l.log.Info("fractal load failed, falling back to default",
			"type", string(t), "default", string(DefaultType), "err", err)
		return l.Load(ctx, DefaultType)
	}

	l.mu.Lock()
	l.cache[t] = m
	l.mu.Unlock()
	return m, nil
}

// StateHooks carries the optional state-update callbacks LoadWithState
// applies. Nil fields are skipped.
type StateHooks struct {
	SetCurrentModule func(*Module)
	SetCurrentType   func(Type)
}

// LoadWithState loads t and applies the state hooks before returning, on
// both the cache-hit and cache-miss paths. Callers with no external state
// to keep consistent pass the zero StateHooks.
func (l *Loader) LoadWithState(ctx context.Context, t Type, hooks StateHooks) (*Module, error) {
	m, err := l.Load(ctx, t)
	if err != nil {
		return nil, err
	}
	if hooks.SetCurrentModule != nil {
		hooks.SetCurrentModule(m)
	}
	if hooks.SetCurrentType != nil {
		hooks.SetCurrentType(m.Type)
	}
	return m, nil
}

// resolve runs the family and individual tiers for one type.
func (l *Loader) resolve(ctx context.Context, t Type) (*Module, error) {
	// Tier 1: family chunk. Extraction failure falls through, never fails.
	if family, ok := FamilyOf(t); ok {
		res := l.registry.LoadChunk(ctx, family)
		switch res.Status {
		case ChunkLoaded:
			if def, ok := res.Definitions[t]; ok {
				if m, ok := moduleFromDefinition(t, def); ok {
					return m, nil
				}
			}
			l.log.Debug("family chunk missing type, trying individual load",
				"family", family, "type", string(t))
		default:
			l.log.Debug("family chunk unavailable, trying individual load",
				"family", family, "type", string(t), "status", res.Status.String())
		}
	}

	// Tier 2: individual per-type chunk.
	res := l.registry.LoadSingle(ctx, t)
	if res.Status == ChunkLoaded {
		if def, ok := res.Definitions[t]; ok {
			if m, ok := moduleFromDefinition(t, def); ok {
				return m, nil
			}
		}
		return nil, fmt.Errorf("fractal: chunk for %q lacks a render capability", t)
	}
	return nil, fmt.Errorf("fractal: no loadable chunk for %q (%s)", t, res.Status)
}

// IsLoading reports whether any Load call is currently in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading > 0
}

// IsCached reports whether t has a cached module.
func (l *Loader) IsCached(t Type) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[t]
	return ok
}

// RemoveFromCache drops the cached module for t, if any.
func (l *Loader) RemoveFromCache(t Type) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, t)
}

// ClearCache drops every cached module.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[Type]*Module)
}
