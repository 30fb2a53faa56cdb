// Package cache caches rendered GPU framebuffers keyed by view parameters.
//
// Producing a frame is expensive (shader compile, GPU draw, worker-computed
// tiles), so a view the user has already seen must never be recomputed. The
// FrameCache maps a deterministic stringification of the view parameters to
// the framebuffer that was rendered for it, bounded by a capacity with
// insertion-order eviction.
//
// Eviction is deliberately not touch-on-read LRU: reads never mutate
// ordering, which keeps GetCachedFrame allocation-free on the hot render
// path. Recency hygiene comes instead from the explicit Trim and
// RemoveOldEntries sweeps, which callers run opportunistically at session
// boundaries.
package cache
