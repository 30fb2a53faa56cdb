package fractalview

import (
	"github.com/gogpu/fractalview/cache"
	"github.com/gogpu/fractalview/fractal"
	"github.com/gogpu/fractalview/render"
)

// Option configures a View during creation.
//
// Example:
//
//	// CPU-only view with a small frame cache
//	view := fractalview.NewView(canvas, fractalview.WithFrameCacheSize(8))
//
//	// GPU-backed view sharing the host's device
//	view := fractalview.NewView(canvas,
//	    fractalview.WithDevice(host),
//	    fractalview.WithQuerySource(queries),
//	)
type Option func(*viewOptions)

// viewOptions holds optional configuration for View creation.
type viewOptions struct {
	device         render.DeviceHandle
	querySource    render.QuerySource
	frameCacheSize int
	keyOptions     cache.KeyOptions
	workers        int
	registry       *fractal.Registry
	debugQueries   bool
}

// defaultOptions returns the default view options.
func defaultOptions() viewOptions {
	return viewOptions{
		device: render.NullDeviceHandle{},
		// querySource nil: occlusion degrades to unsupported.
		// frameCacheSize 0: cache default.
		// workers 0: GOMAXPROCS.
	}
}

// WithDevice sets the host GPU device the view's framebuffers live on.
// Without it the view runs CPU-only against render.NullDeviceHandle.
func WithDevice(device render.DeviceHandle) Option {
	return func(o *viewOptions) {
		if device != nil {
			o.device = device
		}
	}
}

// WithQuerySource enables occlusion queries through the given source.
// Without it (or with an unsupported source) the occlusion coordinator
// degrades to no-ops.
func WithQuerySource(src render.QuerySource) Option {
	return func(o *viewOptions) { o.querySource = src }
}

// WithFrameCacheSize bounds the frame cache. Values < 1 keep the default.
func WithFrameCacheSize(n int) Option {
	return func(o *viewOptions) { o.frameCacheSize = n }
}

// WithKeyOptions sets the fallback viewport used for cache-key derivation
// when the canvas has no measurable parent.
func WithKeyOptions(opts cache.KeyOptions) Option {
	return func(o *viewOptions) { o.keyOptions = opts }
}

// WithWorkers sets the tile worker count. Values <= 0 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *viewOptions) { o.workers = n }
}

// WithFractalRegistry makes the view's loader resolve definitions through
// reg instead of the built-in catalog. Tests and embedders with custom
// fractal sets use this.
func WithFractalRegistry(reg *fractal.Registry) Option {
	return func(o *viewOptions) { o.registry = reg }
}

// WithDebugQueries logs per-query occlusion failures, which are frequent
// and harmless on struggling drivers and therefore silent by default.
func WithDebugQueries(debug bool) Option {
	return func(o *viewOptions) { o.debugQueries = debug }
}
