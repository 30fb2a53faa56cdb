// Package occlusion wraps asynchronous GPU visibility queries in a
// poll-based state machine.
//
// The renderer submits one query per tile per frame around the tile's draw
// (BeginQuery/EndQuery) and harvests results over subsequent frames
// (CheckQueryResult/ProcessPendingQueries) without ever blocking. A
// persistent visibility set keeps the last definite answer per tile, so a
// tile does not flicker to "assume invisible" while a fresh query is still
// in flight.
//
// On capability classes without async queries every method degrades to a
// no-op/false/not-ready, so callers need no capability branching of their
// own.
package occlusion

import (
	"log/slog"
	"sync"

	"github.com/gogpu/fractalview/internal/logging"
	"github.com/gogpu/fractalview/render"
)

// phase is the per-tile query lifecycle stage.
type phase int

const (
	// phasePending: the query has begun and not yet ended.
	phasePending phase = iota

	// phaseCompleted: the query has ended; its result may be polled.
	phaseCompleted
)

// query is one tile's in-flight query record. A tile has at most one.
type query struct {
	handle render.QueryHandle
	phase  phase
}

// Coordinator tracks occlusion queries per tile.
//
// Coordinator is safe for concurrent use, though the intended model is a
// single render flow driving it.
type Coordinator struct {
	mu      sync.Mutex
	src     render.QuerySource
	queries map[render.TileID]*query
	visible map[render.TileID]struct{}
	log     *slog.Logger
	debug   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = logging.OrDiscard(log) }
}

// WithDebug enables logging of per-query creation failures. These are
// frequent and harmless on struggling drivers, so they are silent unless
// debugging.
func WithDebug(debug bool) Option {
	return func(c *Coordinator) { c.debug = debug }
}

// NewCoordinator creates a coordinator over the given query source.
// src may be nil, which behaves like an unsupported source.
func NewCoordinator(src render.QuerySource, opts ...Option) *Coordinator {
	c := &Coordinator{
		src:     src,
		queries: make(map[render.TileID]*query),
		visible: make(map[render.TileID]struct{}),
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Supported reports whether the underlying capability class implements
// async visibility queries.
func (c *Coordinator) Supported() bool {
	return c.src != nil && c.src.Supported()
}

// BeginQuery creates and starts a query for a tile.
//
// If a pending or completed query already exists for the tile it is
// forcibly ended and discarded first: a tile never has two live query
// handles. Returns false, leaving state unchanged, on any creation
// failure or when queries are unsupported.
func (c *Coordinator) BeginQuery(tile render.TileID) bool {
	if !c.Supported() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prior, ok := c.queries[tile]; ok {
		c.discardLocked(tile, prior)
	}

	handle, err := c.src.CreateQuery()
	if err != nil {
		if c.debug {
			c.log.Debug("occlusion: query creation failed", "tile", string(tile), "err", err)
		}
		return false
	}
	if err := c.src.Begin(handle); err != nil {
		c.src.Destroy(handle)
		if c.debug {
			c.log.Debug("occlusion: query begin failed", "tile", string(tile), "err", err)
		}
		return false
	}

	c.queries[tile] = &query{handle: handle, phase: phasePending}
	return true
}

// EndQuery transitions a tile's pending query to completed. If ending
// fails the query is discarded rather than left dangling. A no-op when
// the tile has no pending query.
func (c *Coordinator) EndQuery(tile render.TileID) {
	if !c.Supported() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queries[tile]
	if !ok || q.phase != phasePending {
		return
	}
	if err := c.src.End(q.handle); err != nil {
		c.discardLocked(tile, q)
		if c.debug {
			c.log.Debug("occlusion: query end failed", "tile", string(tile), "err", err)
		}
		return
	}
	q.phase = phaseCompleted
}

// CheckQueryResult polls a tile's completed query.
//
// ready is false while the result is not yet available; the query is NOT
// consumed and should be polled again later. A definite result consumes
// the query (handle released, record deleted) and updates the visibility
// set. A read failure is treated as a definite negative with cleanup but
// makes no visibility claim: the last-known visibility is left untouched.
func (c *Coordinator) CheckQueryResult(tile render.TileID) (visible, ready bool) {
	if !c.Supported() {
		return false, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkLocked(tile)
}

// checkLocked implements CheckQueryResult. Caller must hold c.mu.
func (c *Coordinator) checkLocked(tile render.TileID) (visible, ready bool) {
	q, ok := c.queries[tile]
	if !ok || q.phase != phaseCompleted {
		return false, false
	}

	available, err := c.src.ResultAvailable(q.handle)
	if err != nil {
		c.discardLocked(tile, q)
		return false, true
	}
	if !available {
		return false, false
	}

	result, err := c.src.Result(q.handle)
	c.src.Destroy(q.handle)
	delete(c.queries, tile)
	if err != nil {
		// Definite negative, but no visibility claim.
		return false, true
	}

	if result {
		c.visible[tile] = struct{}{}
	} else {
		delete(c.visible, tile)
	}
	return result, true
}

// IsTileVisible reports the last definite visibility result for a tile.
// It is a pure lookup, usable while a fresh query is still pending.
// Unknown tiles report false.
func (c *Coordinator) IsTileVisible(tile render.TileID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.visible[tile]
	return ok
}

// ProcessPendingQueries polls every completed query and returns the subset
// whose result became available this call.
func (c *Coordinator) ProcessPendingQueries() map[render.TileID]bool {
	results := make(map[render.TileID]bool)
	if !c.Supported() {
		return results
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	completed := make([]render.TileID, 0, len(c.queries))
	for tile, q := range c.queries {
		if q.phase == phaseCompleted {
			completed = append(completed, tile)
		}
	}
	for _, tile := range completed {
		if visible, ready := c.checkLocked(tile); ready {
			results[tile] = visible
		}
	}
	return results
}

// Clear force-ends and releases every query and forgets all visibility
// state. Safe to call with already-invalid handles.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for tile, q := range c.queries {
		c.discardLocked(tile, q)
	}
	c.visible = make(map[render.TileID]struct{})
}

// Destroy is Clear; the coordinator holds no other resources.
func (c *Coordinator) Destroy() {
	c.Clear()
}

// discardLocked force-ends (if pending) and releases one query.
// Caller must hold c.mu.
func (c *Coordinator) discardLocked(tile render.TileID, q *query) {
	if q.phase == phasePending {
		// Best-effort: the handle is being thrown away either way.
		_ = c.src.End(q.handle)
	}
	c.src.Destroy(q.handle)
	delete(c.queries, tile)
}
