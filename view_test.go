package fractalview

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/gogpu/fractalview/cache"
	"github.com/gogpu/fractalview/fractal"
	"github.com/gogpu/fractalview/render"
)

// stubCanvas is a fixed-size measurable canvas.
type stubCanvas struct {
	w, h float64
}

func (c *stubCanvas) ViewportSize() (float64, float64, bool) {
	return c.w, c.h, c.w > 0 && c.h > 0
}

// alwaysVisibleSource is a QuerySource whose results are immediately
// available and always report visible.
type alwaysVisibleSource struct{}

func (alwaysVisibleSource) Supported() bool                                  { return true }
func (alwaysVisibleSource) CreateQuery() (render.QueryHandle, error)         { return &struct{}{}, nil }
func (alwaysVisibleSource) Begin(render.QueryHandle) error                   { return nil }
func (alwaysVisibleSource) End(render.QueryHandle) error                     { return nil }
func (alwaysVisibleSource) ResultAvailable(render.QueryHandle) (bool, error) { return true, nil }
func (alwaysVisibleSource) Result(render.QueryHandle) (bool, error)          { return true, nil }
func (alwaysVisibleSource) Destroy(render.QueryHandle)                       {}

func newTestView(t *testing.T, opts ...Option) *View {
	t.Helper()
	v := NewView(&stubCanvas{w: 640, h: 480}, opts...)
	t.Cleanup(v.Close)
	return v
}

func TestNewViewDefaults(t *testing.T) {
	v := newTestView(t)

	if got := v.CurrentType(); got != fractal.DefaultType {
		t.Fatalf("CurrentType = %q, want %q", got, fractal.DefaultType)
	}
	if v.CurrentModule() != nil {
		t.Fatal("CurrentModule should be nil before the first load")
	}
	if v.Occlusion().Supported() {
		t.Fatal("occlusion should be unsupported without a query source")
	}
	if _, ok := v.Sessions().CurrentSessionID(); ok {
		t.Fatal("no session should be active at construction")
	}
}

func TestSwitchFractalUpdatesState(t *testing.T) {
	v := newTestView(t)

	m, err := v.SwitchFractal(context.Background(), "explore", fractal.TypeJulia)
	if err != nil {
		t.Fatalf("SwitchFractal: %v", err)
	}
	if m.Type != fractal.TypeJulia {
		t.Fatalf("loaded module type = %q, want %q", m.Type, fractal.TypeJulia)
	}
	if got := v.CurrentType(); got != fractal.TypeJulia {
		t.Fatalf("CurrentType = %q, want %q", got, fractal.TypeJulia)
	}
	if v.CurrentModule() != m {
		t.Fatal("CurrentModule should be the loaded module")
	}

	id, ok := v.Sessions().CurrentSessionID()
	if !ok {
		t.Fatal("SwitchFractal should leave a session active")
	}
	if id == "" {
		t.Fatal("session id should not be empty")
	}
}

func TestSwitchFractalFallsBackToDefault(t *testing.T) {
	v := newTestView(t)

	m, err := v.SwitchFractal(context.Background(), "explore", fractal.Type("no-such-fractal"))
	if err != nil {
		t.Fatalf("SwitchFractal with unknown type: %v", err)
	}
	if m.Type != fractal.DefaultType {
		t.Fatalf("fallback module type = %q, want %q", m.Type, fractal.DefaultType)
	}
	if got := v.CurrentType(); got != fractal.DefaultType {
		t.Fatalf("CurrentType after fallback = %q, want %q", got, fractal.DefaultType)
	}
}

func TestSwitchFractalClearsPreviousSessionState(t *testing.T) {
	v := newTestView(t, WithQuerySource(alwaysVisibleSource{}))
	ctx := context.Background()

	if _, err := v.SwitchFractal(ctx, "explore", fractal.TypeMandelbrot); err != nil {
		t.Fatalf("first SwitchFractal: %v", err)
	}

	// Populate per-session state: one cached frame and one visible tile.
	params := cache.Params{Zoom: 1, Iterations: 100, ColorScheme: "classic", ScaleX: 1, ScaleY: 1}
	v.Frames().CacheFrame(nil, fractal.TypeMandelbrot, params, render.NewMemoryFramebuffer("f", 64, 64))
	if v.Frames().Len() != 1 {
		t.Fatalf("frame cache len = %d, want 1", v.Frames().Len())
	}

	tile := render.TileIDAt(0, 0)
	if !v.Occlusion().BeginQuery(tile) {
		t.Fatal("BeginQuery should succeed with a supported source")
	}
	v.Occlusion().EndQuery(tile)
	if visible, ready := v.Occlusion().CheckQueryResult(tile); !ready || !visible {
		t.Fatalf("CheckQueryResult = (%v, %v), want (true, true)", visible, ready)
	}
	if !v.Occlusion().IsTileVisible(tile) {
		t.Fatal("tile should be recorded visible")
	}

	if _, err := v.SwitchFractal(ctx, "explore", fractal.TypeJulia); err != nil {
		t.Fatalf("second SwitchFractal: %v", err)
	}

	if v.Frames().Len() != 0 {
		t.Fatalf("frame cache len after switch = %d, want 0", v.Frames().Len())
	}
	if v.Occlusion().IsTileVisible(tile) {
		t.Fatal("visibility from the previous session should not survive a switch")
	}
}

func TestSessionCleanupRunsPerSession(t *testing.T) {
	v := newTestView(t)

	var calls atomic.Int32
	unregister := v.Sessions().RegisterCleanup(func() { calls.Add(1) })
	defer unregister()

	ctx := context.Background()
	if _, err := v.SwitchFractal(ctx, "explore", fractal.TypeMandelbrot); err != nil {
		t.Fatalf("SwitchFractal: %v", err)
	}
	// Starting the first session ends the (inactive) previous one without
	// running cleanups; ending this one runs them.
	v.Sessions().EndSession()
	if got := calls.Load(); got != 1 {
		t.Fatalf("cleanup calls after EndSession = %d, want 1", got)
	}
}

func TestHandleContextLossDropsDeviceState(t *testing.T) {
	v := newTestView(t, WithQuerySource(alwaysVisibleSource{}))

	params := cache.Params{Zoom: 2, Iterations: 50, ColorScheme: "fire", ScaleX: 1, ScaleY: 1}
	v.Frames().CacheFrame(nil, fractal.TypeMandelbrot, params, render.NewMemoryFramebuffer("f", 32, 32))

	tile := render.TileIDAt(1, 1)
	v.Occlusion().BeginQuery(tile)
	v.Occlusion().EndQuery(tile)
	v.Occlusion().CheckQueryResult(tile)

	if _, err := v.Shaders().Compile(fractal.TypeMandelbrot, "fn main() {}"); err == nil {
		// The real compiler may reject the stub source; either way the
		// cache must be empty after context loss.
		if !v.Shaders().IsCached(fractal.TypeMandelbrot) {
			t.Fatal("successful compile should populate the shader cache")
		}
	}

	v.HandleContextLoss()

	if v.Frames().Len() != 0 {
		t.Fatalf("frame cache len after context loss = %d, want 0", v.Frames().Len())
	}
	if v.Occlusion().IsTileVisible(tile) {
		t.Fatal("visibility should not survive context loss")
	}
	if v.Shaders().Len() != 0 {
		t.Fatalf("shader cache len after context loss = %d, want 0", v.Shaders().Len())
	}
}

func TestWorkerPoolLazyConstruction(t *testing.T) {
	v := newTestView(t, WithWorkers(2))

	// Ending a session before the pool exists must not build one.
	v.Sessions().StartSession("explore", string(fractal.DefaultType))
	v.Sessions().EndSession()
	v.mu.Lock()
	built := v.pool != nil
	v.mu.Unlock()
	if built {
		t.Fatal("session teardown should not construct the worker pool")
	}

	p1 := v.WorkerPool()
	if p1 == nil {
		t.Fatal("WorkerPool returned nil on an open view")
	}
	if p2 := v.WorkerPool(); p2 != p1 {
		t.Fatal("WorkerPool should return the same pool")
	}
}

func TestCloseIdempotent(t *testing.T) {
	v := NewView(&stubCanvas{w: 640, h: 480})

	if v.WorkerPool() == nil {
		t.Fatal("WorkerPool before Close should not be nil")
	}

	v.Close()
	v.Close()

	if v.WorkerPool() != nil {
		t.Fatal("WorkerPool after Close should be nil")
	}
}

func TestWithFractalRegistry(t *testing.T) {
	reg := fractal.NewRegistry()
	reg.RegisterSingle(fractal.TypeMandelbrot, func(ctx context.Context) fractal.ChunkResult {
		return fractal.ChunkResult{
			Status: fractal.ChunkLoaded,
			Definitions: map[fractal.Type]fractal.Definition{
				fractal.TypeMandelbrot: {
					Type:   fractal.TypeMandelbrot,
					Shader: "// custom",
				},
			},
		}
	})

	v := newTestView(t, WithFractalRegistry(reg))

	m, err := v.SwitchFractal(context.Background(), "explore", fractal.TypeMandelbrot)
	if err != nil {
		t.Fatalf("SwitchFractal: %v", err)
	}
	if got := m.Program.ShaderSource(); got != "// custom" {
		t.Fatalf("shader source = %q, want the custom registry's", got)
	}

	// A type missing from the custom registry must not fall through to
	// the builtin catalog; it falls back to the already-loaded default.
	m, err = v.SwitchFractal(context.Background(), "explore", fractal.TypeJulia)
	if err != nil {
		t.Fatalf("SwitchFractal(julia): %v", err)
	}
	if m.Type != fractal.DefaultType {
		t.Fatalf("julia should fall back to %q, got %q", fractal.DefaultType, m.Type)
	}
}
