package cache

import (
	"container/list"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/fractalview/fractal"
	"github.com/gogpu/fractalview/internal/logging"
	"github.com/gogpu/fractalview/render"
)

// DefaultMaxFrames is the default framebuffer capacity. Cached frames are
// full-viewport GPU textures, so the bound is deliberately small.
const DefaultMaxFrames = 20

// trimFactor is the default Trim target as a fraction of capacity.
const trimFactor = 0.7

// Entry is one cached frame. The cache owns the framebuffer's lifetime:
// removal destroys it.
type Entry struct {
	// Key the entry was stored under.
	Key Key

	// Framebuffer is the rendered frame. Never nil on an entry returned
	// by GetCachedFrame.
	Framebuffer render.Framebuffer

	// Timestamp is the insertion time in milliseconds on the cache clock.
	Timestamp int64
}

// FrameCache is a bounded cache of rendered framebuffers keyed by view
// parameters. Insertion order doubles as recency for capacity eviction;
// Trim and RemoveOldEntries use the per-entry timestamp.
//
// Invariants: Len() <= capacity after every CacheFrame, and an entry is
// never returned with a nil framebuffer.
//
// FrameCache is safe for concurrent use, though the intended model is a
// single render flow writing at a time.
type FrameCache struct {
	mu      sync.Mutex
	entries map[Key]*list.Element // values are *Entry elements of order
	order   *list.List            // front = oldest insert
	maxSize int
	canvas  Canvas // last-known canvas, used only for key derivation
	keyOpts KeyOptions
	now     func() time.Time
	log     *slog.Logger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Option configures a FrameCache.
type Option func(*FrameCache)

// WithMaxSize sets the capacity. Values < 1 keep the default.
func WithMaxSize(n int) Option {
	return func(c *FrameCache) {
		if n >= 1 {
			c.maxSize = n
		}
	}
}

// WithKeyOptions sets the fallback viewport used during key derivation.
func WithKeyOptions(opts KeyOptions) Option {
	return func(c *FrameCache) { c.keyOpts = opts }
}

// WithLogger sets the cache's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *FrameCache) { c.log = logging.OrDiscard(log) }
}

// WithClock overrides the timestamp source. Tests use this to pin entry
// ages.
func WithClock(now func() time.Time) Option {
	return func(c *FrameCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewFrameCache creates a frame cache. canvas may be nil; it can also be
// supplied per call and is remembered for key derivation.
func NewFrameCache(canvas Canvas, opts ...Option) *FrameCache {
	c := &FrameCache{
		entries: make(map[Key]*list.Element),
		order:   list.New(),
		maxSize: DefaultMaxFrames,
		canvas:  canvas,
		now:     time.Now,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateKey derives the key for one view using the given canvas, falling
// back to the last-known canvas when nil.
func (c *FrameCache) GenerateKey(canvas Canvas, fractalType fractal.Type, p Params) (Key, bool) {
	c.mu.Lock()
	if canvas != nil {
		c.canvas = canvas
	} else {
		canvas = c.canvas
	}
	opts := c.keyOpts
	c.mu.Unlock()

	return GenerateKey(canvas, fractalType, p, opts)
}

// GetCachedFrame returns the cached entry for a view, or nil on a miss.
//
// Cache validity is defined purely by key and entry integrity, not by
// GPU-context identity: callers handling device loss clear the cache
// explicitly instead. Entries whose framebuffer is missing are treated as
// misses, never returned.
func (c *FrameCache) GetCachedFrame(canvas Canvas, fractalType fractal.Type, p Params) *Entry {
	key, ok := c.GenerateKey(canvas, fractalType, p)
	if !ok {
		c.misses.Add(1)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	entry := elem.Value.(*Entry)
	if entry.Framebuffer == nil {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return entry
}

// CacheFrame stores a rendered framebuffer under the view's key.
//
// A nil framebuffer or an unobtainable key makes this a no-op. At capacity
// the single oldest entry (by insertion order) is evicted first, its
// framebuffer destroyed best-effort.
func (c *FrameCache) CacheFrame(canvas Canvas, fractalType fractal.Type, p Params, fb render.Framebuffer) {
	if fb == nil {
		return
	}
	key, ok := c.GenerateKey(canvas, fractalType, p)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Overwrite: remove the stale entry first so reinsertion refreshes
	// recency.
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem, "overwrite")
	}

	for len(c.entries) >= c.maxSize {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest, "capacity")
		c.evictions.Add(1)
	}

	entry := &Entry{
		Key:         key,
		Framebuffer: fb,
		Timestamp:   c.now().UnixMilli(),
	}
	c.entries[key] = c.order.PushBack(entry)
}

// Clear destroys every framebuffer best-effort and empties the cache.
// Idempotent; a no-op on an empty cache.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		c.destroyEntry(elem.Value.(*Entry), "clear")
	}
	c.entries = make(map[Key]*list.Element)
	c.order.Init()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Trim evicts oldest entries (by timestamp) until at most targetSize
// remain. targetSize <= 0 means the default target, 70% of capacity.
// A no-op when already at or below the target.
func (c *FrameCache) Trim(targetSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if targetSize <= 0 {
		targetSize = int(math.Floor(float64(c.maxSize) * trimFactor))
	}
	excess := len(c.entries) - targetSize
	if excess <= 0 {
		return
	}

	elems := make([]*list.Element, 0, len(c.entries))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		elems = append(elems, elem)
	}
	sort.SliceStable(elems, func(i, j int) bool {
		return elems[i].Value.(*Entry).Timestamp < elems[j].Value.(*Entry).Timestamp
	})

	for _, elem := range elems[:excess] {
		c.removeLocked(elem, "trim")
		c.evictions.Add(1)
	}
}

// RemoveOldEntries removes every entry older than maxAge and returns the
// count removed.
func (c *FrameCache) RemoveOldEntries(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowMs := c.now().UnixMilli()
	cutoff := maxAge.Milliseconds()

	removed := 0
	var next *list.Element
	for elem := c.order.Front(); elem != nil; elem = next {
		next = elem.Next()
		if nowMs-elem.Value.(*Entry).Timestamp > cutoff {
			c.removeLocked(elem, "age")
			removed++
		}
	}
	return removed
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns current cache statistics.
func (c *FrameCache) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.maxSize,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// removeLocked unlinks an entry and destroys its framebuffer.
// Caller must hold c.mu.
func (c *FrameCache) removeLocked(elem *list.Element, reason string) {
	entry := elem.Value.(*Entry)
	delete(c.entries, entry.Key)
	c.order.Remove(elem)
	c.destroyEntry(entry, reason)
}

// destroyEntry destroys one framebuffer best-effort. One entry's failure
// must not abort a sweep.
func (c *FrameCache) destroyEntry(entry *Entry, reason string) {
	if entry.Framebuffer == nil {
		return
	}
	err := entry.Framebuffer.Destroy()
	logging.BestEffort(c.log, "frame cache: framebuffer destroy failed", err,
		"key", string(entry.Key), "reason", reason)
	entry.Framebuffer = nil
}
