package fractalview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gogpu/fractalview/cache"
	"github.com/gogpu/fractalview/fractal"
	"github.com/gogpu/fractalview/occlusion"
	"github.com/gogpu/fractalview/palette"
	"github.com/gogpu/fractalview/render"
	"github.com/gogpu/fractalview/session"
	"github.com/gogpu/fractalview/shader"
	"github.com/gogpu/fractalview/worker"
)

// View owns the render-facing state for one canvas: the frame cache, the
// occlusion coordinator, the session coordinator, the fractal loader, and
// the palette and shader caches.
//
// Each canvas gets its own View. There is no process-wide instance; hosts
// that present several fractal canvases construct several views, and each
// evicts, cancels, and clears independently.
//
// The zero View is not usable; construct with NewView. All methods are safe
// for concurrent use.
type View struct {
	canvas cache.Canvas
	device render.DeviceHandle
	log    *slog.Logger

	frames   *cache.FrameCache
	occ      *occlusion.Coordinator
	sessions *session.Coordinator
	loader   *fractal.Loader
	palettes *palette.Cache
	shaders  *shader.Cache

	// The worker pool spins up goroutines, so it is built on first use
	// rather than at construction. Views that only ever serve cached
	// frames never pay for it.
	poolOnce sync.Once
	pool     *worker.Pool
	workers  int

	mu            sync.Mutex
	currentType   fractal.Type
	currentModule *fractal.Module
	closed        bool
}

// NewView creates a view bound to canvas.
//
// The view captures the package logger at construction; call SetLogger
// before NewView to receive its log output. With no WithDevice option the
// view runs CPU-only, and with no WithQuerySource option occlusion culling
// degrades to rendering every tile.
func NewView(canvas cache.Canvas, opts ...Option) *View {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := Logger()

	v := &View{
		canvas:      canvas,
		device:      o.device,
		log:         log,
		currentType: fractal.DefaultType,
		workers:     o.workers,
		palettes:    palette.NewCache(),
		shaders:     shader.NewCache(),
	}

	v.frames = cache.NewFrameCache(canvas,
		cache.WithMaxSize(o.frameCacheSize),
		cache.WithKeyOptions(o.keyOptions),
		cache.WithLogger(log),
	)

	v.occ = occlusion.NewCoordinator(o.querySource,
		occlusion.WithLogger(log),
		occlusion.WithDebug(o.debugQueries),
	)

	loaderOpts := []fractal.LoaderOption{fractal.WithLogger(log)}
	if o.registry != nil {
		loaderOpts = append(loaderOpts, fractal.WithRegistry(o.registry))
	}
	v.loader = fractal.NewLoader(loaderOpts...)

	v.sessions = session.NewCoordinator(
		session.WithWorkerPool(lazyCanceler{v}),
		session.WithFrameCache(v.frames),
		session.WithAuxCaches(v.palettes, v.shaders),
		session.WithLogger(log),
	)
	// Query state from an ended session must not leak visibility verdicts
	// into the next one.
	v.sessions.RegisterCleanup(v.occ.Clear)

	return v
}

// lazyCanceler forwards tile cancellation to the view's worker pool, but
// only if one was ever constructed. Session teardown on a pool-less view
// must not build a pool just to cancel nothing.
type lazyCanceler struct{ v *View }

func (lc lazyCanceler) CancelTiles(tiles []render.TileID) {
	lc.v.mu.Lock()
	pool := lc.v.pool
	lc.v.mu.Unlock()
	if pool != nil {
		pool.CancelTiles(tiles)
	}
}

// SwitchFractal starts a new session for fractal type t and loads its
// module, falling back per the loader's rules when t cannot be loaded.
//
// The previous session is fully torn down (tiles canceled, caches cleared,
// cleanups run) before the load begins, so stale framebuffers from the old
// fractal never satisfy lookups for the new one. The view's current type
// and module reflect the module actually loaded, which is the default
// type's when fallback occurred.
func (v *View) SwitchFractal(ctx context.Context, sessionType string, t fractal.Type) (*fractal.Module, error) {
	v.sessions.StartSession(sessionType, string(t))

	return v.loader.LoadWithState(ctx, t, fractal.StateHooks{
		SetCurrentModule: func(m *fractal.Module) {
			v.mu.Lock()
			v.currentModule = m
			v.mu.Unlock()
		},
		SetCurrentType: func(loaded fractal.Type) {
			v.mu.Lock()
			v.currentType = loaded
			v.mu.Unlock()
		},
	})
}

// CurrentType returns the fractal type of the most recently loaded module.
// Before any SwitchFractal call it is fractal.DefaultType.
func (v *View) CurrentType() fractal.Type {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentType
}

// CurrentModule returns the most recently loaded module, or nil before the
// first successful SwitchFractal.
func (v *View) CurrentModule() *fractal.Module {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentModule
}

// HandleContextLoss drops all GPU-resident state after the host reports a
// lost device: cached framebuffers and outstanding occlusion queries are
// invalid handles once the context is gone. The session, loader cache, and
// palette ramps survive, since they hold no device resources.
func (v *View) HandleContextLoss() {
	v.log.Warn("GPU context lost, dropping device-resident caches")
	v.frames.Clear()
	v.occ.Clear()
	v.shaders.Clear()
}

// Frames returns the view's frame cache.
func (v *View) Frames() *cache.FrameCache { return v.frames }

// Occlusion returns the view's occlusion coordinator.
func (v *View) Occlusion() *occlusion.Coordinator { return v.occ }

// Sessions returns the view's session coordinator.
func (v *View) Sessions() *session.Coordinator { return v.sessions }

// Loader returns the view's fractal definition loader.
func (v *View) Loader() *fractal.Loader { return v.loader }

// Palettes returns the view's palette ramp cache.
func (v *View) Palettes() *palette.Cache { return v.palettes }

// Shaders returns the view's compiled shader cache.
func (v *View) Shaders() *shader.Cache { return v.shaders }

// Device returns the host device handle the view was constructed with.
func (v *View) Device() render.DeviceHandle { return v.device }

// WorkerPool returns the view's tile worker pool, constructing it on first
// call. Returns nil if the view is already closed.
func (v *View) WorkerPool() *worker.Pool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	v.poolOnce.Do(func() {
		pool := worker.NewPool(v.workers)
		v.mu.Lock()
		v.pool = pool
		v.mu.Unlock()
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pool
}

// Close ends the active session, destroys occlusion state, clears the
// frame cache, and stops the worker pool. The view must not be used after
// Close. Close is idempotent.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	pool := v.pool
	v.mu.Unlock()

	v.sessions.EndSession()
	v.occ.Destroy()
	v.frames.Clear()
	if pool != nil {
		pool.Close()
	}
}
