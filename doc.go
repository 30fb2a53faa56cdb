// Package fractalview provides the resource cache and session lifecycle
// layer for an interactive GPU fractal canvas.
//
// # Overview
//
// Rendering a fractal frame is expensive: a per-fractal shader compile, a
// GPU draw, and often many worker-computed tiles. fractalview sits between
// the user-interaction loop and the GPU/worker backends and guarantees
// three things: a frame the user has already seen is never recomputed, no
// GPU or background-compute resource outlives the view/fractal switch that
// produced it, and a fractal that fails to resolve degrades to the default
// type instead of crashing the session.
//
// # Quick Start
//
//	import "github.com/gogpu/fractalview"
//
//	view := fractalview.NewView(canvas)
//	defer view.Close()
//
//	// A fractal switch starts a fresh session, tearing down the old one.
//	module, err := view.SwitchFractal(ctx, "explore", fractal.TypeJulia)
//
//	// The render loop checks the frame cache before drawing.
//	if entry := view.Frames().GetCachedFrame(canvas, typ, params); entry != nil {
//	    present(entry.Framebuffer)
//	}
//
// # Architecture
//
// The library is organized into:
//   - cache: bounded framebuffer cache keyed by view parameters
//   - occlusion: poll-based GPU visibility-query coordinator
//   - fractal: definition loader with a bounded fallback chain
//   - session: session boundaries and ordered resource teardown
//   - render: the GPU boundary (framebuffers, device handle, queries)
//   - worker, palette, shader: tile compute pool and auxiliary caches
//
// A View owns exactly one instance of each per canvas. Views are explicit
// context objects passed by reference; there is no global state beyond the
// optional process-wide logger.
package fractalview
