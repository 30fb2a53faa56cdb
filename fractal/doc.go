// Package fractal resolves fractal-type identifiers to render-capable
// modules.
//
// Definitions are grouped into independently loadable chunks ("families")
// for footprint reasons, so any chunk can be absent or malformed in
// production. The Loader therefore resolves a type through a bounded
// three-tier fallback: the type's family chunk, then an individual
// per-type chunk, then the always-available default type (Mandelbrot).
// Only the default type's own failure surfaces to the caller; everything
// else degrades silently so the user still sees a fractal instead of a
// blank canvas.
//
// Chunk loading is modeled as a registry of loader functions returning a
// tagged ChunkResult (Loaded, NotFound, or Malformed); the fallback chain
// branches over that tag explicitly rather than via error control flow.
package fractal
