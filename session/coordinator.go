// Package session defines session boundaries for one fractal/view
// configuration and guarantees deterministic resource teardown at each
// boundary.
//
// A session is a token, not a resource owner: it marks the lifetime of one
// view configuration, and ending it triggers cleanup of resources owned by
// collaborators (worker pool, frame cache, auxiliary caches, registered
// callbacks). This is the single choke point that keeps cache entries,
// worker tasks, and GPU queries from outliving the view that produced
// them, so rapid fractal switching cannot grow memory or flash stale
// frames.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/fractalview/internal/logging"
	"github.com/gogpu/fractalview/render"
)

// TileCanceler cancels in-flight background tile computation.
// A nil or empty slice means cancel everything. Cancellation is
// fire-and-forget: the coordinator does not wait for acknowledgment.
type TileCanceler interface {
	CancelTiles(tiles []render.TileID)
}

// Clearer is a parameterless cache-clearing capability. The frame cache
// and the auxiliary palette/shader caches all satisfy it.
type Clearer interface {
	Clear()
}

// CleanupFunc is an arbitrary teardown callback run at session end.
type CleanupFunc func()

// Coordinator owns the session lifecycle. At most one session is active at
// a time; starting a new one implicitly ends the previous one first.
//
// Coordinator is safe for concurrent use.
type Coordinator struct {
	mu        sync.Mutex
	active    bool
	sessionID string
	startTime time.Time

	workers    TileCanceler
	frameCache Clearer
	auxCaches  []Clearer
	cleanups   []registeredCleanup
	cleanupSeq uint64

	now func() time.Time
	log *slog.Logger
}

// registeredCleanup pairs a callback with a removal identity, since
// functions are not comparable.
type registeredCleanup struct {
	id uint64
	fn CleanupFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithWorkerPool sets the tile-computation collaborator to cancel on
// session end.
func WithWorkerPool(w TileCanceler) Option {
	return func(c *Coordinator) { c.workers = w }
}

// WithFrameCache sets the frame cache cleared on session end.
func WithFrameCache(fc Clearer) Option {
	return func(c *Coordinator) { c.frameCache = fc }
}

// WithAuxCaches sets the auxiliary caches (palette, shader) cleared on
// session end, after the frame cache.
func WithAuxCaches(caches ...Clearer) Option {
	return func(c *Coordinator) { c.auxCaches = caches }
}

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = logging.OrDiscard(log) }
}

// WithClock overrides the session clock; tests pin it.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator creates an idle coordinator. All collaborators are
// optional; absent ones are skipped during teardown.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		now: time.Now,
		log: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession ends any active session, then starts a new one and returns
// its id. The prior session's teardown has fully run before the new id is
// handed out.
func (c *Coordinator) StartSession(sessionType string, fractalType string) string {
	c.EndSession()

	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	c.active = true
	c.startTime = start
	c.sessionID = fmt.Sprintf("%s-%s-%d", sessionType, fractalType, start.UnixMilli())

	c.log.Info("session started", "session", c.sessionID)
	return c.sessionID
}

// EndSession tears down the active session. A no-op when idle.
//
// Teardown order is fixed: cancel workers, clear the frame cache, clear
// auxiliary caches, run registered cleanup callbacks, reset to idle.
// Callbacks therefore observe an already-cancelled, already-cleared state.
// A panicking callback is logged and the remaining callbacks still run.
func (c *Coordinator) EndSession() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	id := c.sessionID
	c.active = false
	c.sessionID = ""
	workers := c.workers
	frameCache := c.frameCache
	aux := c.auxCaches
	cleanups := make([]registeredCleanup, len(c.cleanups))
	copy(cleanups, c.cleanups)
	c.mu.Unlock()

	if workers != nil {
		workers.CancelTiles(nil)
	}
	if frameCache != nil {
		frameCache.Clear()
	}
	for _, cache := range aux {
		if cache != nil {
			cache.Clear()
		}
	}
	for i, rc := range cleanups {
		c.runCleanup(id, i, rc.fn)
	}

	c.log.Info("session ended", "session", id)
}

// runCleanup isolates one callback so its panic cannot block the rest.
func (c *Coordinator) runCleanup(id string, index int, fn CleanupFunc) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("session cleanup callback panicked",
				"session", id, "callback", index, "panic", r)
		}
	}()
	fn()
}

// RegisterCleanup appends a cleanup callback and returns a function that
// unregisters it. Callbacks run in registration order at every session end
// until unregistered; the cleanup list is independent of any particular
// session.
func (c *Coordinator) RegisterCleanup(fn CleanupFunc) (unregister func()) {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupSeq++
	id := c.cleanupSeq
	c.cleanups = append(c.cleanups, registeredCleanup{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, rc := range c.cleanups {
			if rc.id == id {
				c.cleanups = append(c.cleanups[:i], c.cleanups[i+1:]...)
				return
			}
		}
	}
}

// CurrentSessionID returns the active session id.
// ok is false when idle.
func (c *Coordinator) CurrentSessionID() (id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.active
}

// SessionDuration returns how long the active session has been running,
// or 0 when idle.
func (c *Coordinator) SessionDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}
	return c.now().Sub(c.startTime)
}
