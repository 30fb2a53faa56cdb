package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/fractalview/fractal"
)

// fakeCanvas reports a fixed viewport size.
type fakeCanvas struct {
	w, h       float64
	measurable bool
}

func (c *fakeCanvas) ViewportSize() (float64, float64, bool) {
	return c.w, c.h, c.measurable
}

// countingFramebuffer records Destroy calls.
type countingFramebuffer struct {
	mu        sync.Mutex
	destroyed int
	failWith  error
}

func (f *countingFramebuffer) Label() string { return "test" }

func (f *countingFramebuffer) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	return f.failWith
}

func (f *countingFramebuffer) destroyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

func measuredCanvas() *fakeCanvas { return &fakeCanvas{w: 1024, h: 768, measurable: true} }

func baseParams() Params {
	return Params{
		Zoom: 1, Iterations: 256, ColorScheme: "fire", ScaleX: 1, ScaleY: 1,
	}
}

func TestGenerateKeyNilCanvas(t *testing.T) {
	if _, ok := GenerateKey(nil, fractal.TypeMandelbrot, baseParams(), KeyOptions{}); ok {
		t.Error("nil canvas should yield no key")
	}
}

func TestGenerateKeyDegenerateGeometryFallsBack(t *testing.T) {
	p := baseParams()
	unmeasured := &fakeCanvas{}
	k1, ok := GenerateKey(unmeasured, fractal.TypeMandelbrot, p, KeyOptions{})
	if !ok {
		t.Fatal("degenerate geometry must still yield a key")
	}
	zeroSize := &fakeCanvas{w: 0, h: 0, measurable: true}
	k2, _ := GenerateKey(zeroSize, fractal.TypeMandelbrot, p, KeyOptions{})
	if k1 != k2 {
		t.Error("all degenerate canvases should share the fallback viewport key")
	}

	custom, _ := GenerateKey(unmeasured, fractal.TypeMandelbrot, p, KeyOptions{DefaultWidth: 320, DefaultHeight: 240})
	if custom == k1 {
		t.Error("custom fallback viewport should change the key")
	}
}

func TestKeyDeterminismUnderRounding(t *testing.T) {
	canvas := measuredCanvas()
	a := baseParams()
	b := baseParams()
	// Differences below the rounding tolerances collapse to the same key.
	b.Zoom += 0.0004      // rounded at 1e-3
	b.OffsetX += 0.00004  // rounded at 1e-4
	b.ScaleX += 0.004     // rounded at 1e-2

	ka, _ := GenerateKey(canvas, fractal.TypeMandelbrot, a, KeyOptions{})
	kb, _ := GenerateKey(canvas, fractal.TypeMandelbrot, b, KeyOptions{})
	if ka != kb {
		t.Errorf("keys differ inside rounding tolerance:\n%s\n%s", ka, kb)
	}

	diffs := []func(*Params){
		func(p *Params) { p.Zoom += 0.01 },
		func(p *Params) { p.OffsetX += 0.001 },
		func(p *Params) { p.OffsetY -= 0.001 },
		func(p *Params) { p.Iterations++ },
		func(p *Params) { p.ColorScheme = "ocean" },
		func(p *Params) { p.ScaleX += 0.1 },
		func(p *Params) { p.ScaleY += 0.1 },
	}
	for i, mutate := range diffs {
		p := baseParams()
		mutate(&p)
		k, _ := GenerateKey(canvas, fractal.TypeMandelbrot, p, KeyOptions{})
		if k == ka {
			t.Errorf("mutation %d did not change the key", i)
		}
	}
}

func TestKeyJuliaConstantOnlyForJuliaTypes(t *testing.T) {
	canvas := measuredCanvas()
	p := baseParams()
	p.JuliaRe, p.JuliaIm = -0.8, 0.156

	q := baseParams() // zero Julia constant

	// Non-Julia type: the constant is pinned to zero, so it cannot split keys.
	kp, _ := GenerateKey(canvas, fractal.TypeMandelbrot, p, KeyOptions{})
	kq, _ := GenerateKey(canvas, fractal.TypeMandelbrot, q, KeyOptions{})
	if kp != kq {
		t.Error("julia constant leaked into a non-julia key")
	}

	// Julia type: the constant participates.
	jp, _ := GenerateKey(canvas, fractal.TypeJulia, p, KeyOptions{})
	jq, _ := GenerateKey(canvas, fractal.TypeJulia, q, KeyOptions{})
	if jp == jq {
		t.Error("julia constant ignored for a julia key")
	}
}

func TestCacheFrameAndHit(t *testing.T) {
	canvas := measuredCanvas()
	c := NewFrameCache(canvas)
	p := baseParams()
	fb := &countingFramebuffer{}

	if got := c.GetCachedFrame(canvas, fractal.TypeMandelbrot, p); got != nil {
		t.Fatal("expected miss on empty cache")
	}

	c.CacheFrame(canvas, fractal.TypeMandelbrot, p, fb)
	entry := c.GetCachedFrame(canvas, fractal.TypeMandelbrot, p)
	if entry == nil {
		t.Fatal("expected hit")
	}
	if entry.Framebuffer != fb {
		t.Error("entry holds the wrong framebuffer")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Len != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheFrameNilCanvasNoop(t *testing.T) {
	c := NewFrameCache(nil)
	c.CacheFrame(nil, fractal.TypeMandelbrot, baseParams(), &countingFramebuffer{})
	if c.Len() != 0 {
		t.Error("unobtainable key should make CacheFrame a no-op")
	}
}

func TestCapacityEvictsOldestByInsertionOrder(t *testing.T) {
	canvas := measuredCanvas()
	c := NewFrameCache(canvas, WithMaxSize(2))

	fbs := make([]*countingFramebuffer, 3)
	for i, zoom := range []float64{1, 2, 3} {
		p := baseParams()
		p.Zoom = zoom
		fbs[i] = &countingFramebuffer{}
		c.CacheFrame(canvas, fractal.TypeMandelbrot, p, fbs[i])
	}

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if fbs[0].destroyCount() != 1 {
		t.Errorf("oldest framebuffer destroy count = %d, want 1", fbs[0].destroyCount())
	}
	if fbs[1].destroyCount() != 0 || fbs[2].destroyCount() != 0 {
		t.Error("surviving framebuffers must not be destroyed")
	}

	p := baseParams()
	p.Zoom = 1
	if c.GetCachedFrame(canvas, fractal.TypeMandelbrot, p) != nil {
		t.Error("zoom-1 entry should be gone")
	}
	for _, zoom := range []float64{2, 3} {
		p.Zoom = zoom
		if c.GetCachedFrame(canvas, fractal.TypeMandelbrot, p) == nil {
			t.Errorf("zoom-%v entry should survive", zoom)
		}
	}
}

func TestOverwriteDestroysReplacedFramebuffer(t *testing.T) {
	canvas := measuredCanvas()
	c := NewFrameCache(canvas, WithMaxSize(2))
	p := baseParams()

	old := &countingFramebuffer{}
	c.CacheFrame(canvas, fractal.TypeMandelbrot, p, old)
	c.CacheFrame(canvas, fractal.TypeMandelbrot, p, &countingFramebuffer{})

	if c.Len() != 1 {
		t.Errorf("Len = %d after overwrite, want 1", c.Len())
	}
	if old.destroyCount() != 1 {
		t.Errorf("replaced framebuffer destroy count = %d, want 1", old.destroyCount())
	}
}

func TestClearIsIdempotent(t *testing.T) {
	canvas := measuredCanvas()
	c := NewFrameCache(canvas)
	fb := &countingFramebuffer{failWith: errors.New("context lost")}
	c.CacheFrame(canvas, fractal.TypeMandelbrot, baseParams(), fb)

	c.Clear() // destroy error is swallowed
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
	if fb.destroyCount() != 1 {
		t.Errorf("destroy count = %d, want 1", fb.destroyCount())
	}
	c.Clear() // no-op on empty cache
	if fb.destroyCount() != 1 {
		t.Error("Clear on empty cache must not touch destroyed entries")
	}
}

func TestTrim(t *testing.T) {
	canvas := measuredCanvas()
	clock := time.UnixMilli(0)
	c := NewFrameCache(canvas, WithMaxSize(10), WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}))

	fbs := make([]*countingFramebuffer, 6)
	for i := range fbs {
		p := baseParams()
		p.Zoom = float64(i + 1)
		fbs[i] = &countingFramebuffer{}
		c.CacheFrame(canvas, fractal.TypeMandelbrot, p, fbs[i])
	}

	// Trim to default target: floor(10 * 0.7) = 7 >= 6, so a no-op.
	c.Trim(0)
	if c.Len() != 6 {
		t.Fatalf("Len = %d after no-op Trim, want 6", c.Len())
	}
	for i, fb := range fbs {
		if fb.destroyCount() != 0 {
			t.Fatalf("no-op Trim destroyed framebuffer %d", i)
		}
	}

	// Trim to 3: the three oldest by timestamp go, destroy errors isolated.
	fbs[0].failWith = errors.New("device lost")
	c.Trim(3)
	if c.Len() != 3 {
		t.Fatalf("Len = %d after Trim(3), want 3", c.Len())
	}
	for i := 0; i < 3; i++ {
		if fbs[i].destroyCount() != 1 {
			t.Errorf("framebuffer %d destroy count = %d, want 1", i, fbs[i].destroyCount())
		}
	}
	for i := 3; i < 6; i++ {
		if fbs[i].destroyCount() != 0 {
			t.Errorf("framebuffer %d destroyed by Trim(3)", i)
		}
	}
}

func TestRemoveOldEntries(t *testing.T) {
	canvas := measuredCanvas()
	now := time.UnixMilli(1000)
	c := NewFrameCache(canvas, WithClock(func() time.Time { return now }))

	p1 := baseParams()
	p1.Zoom = 1
	c.CacheFrame(canvas, fractal.TypeMandelbrot, p1, &countingFramebuffer{}) // ts 1000

	now = time.UnixMilli(2000)
	p2 := baseParams()
	p2.Zoom = 2
	c.CacheFrame(canvas, fractal.TypeMandelbrot, p2, &countingFramebuffer{}) // ts 2000

	now = time.UnixMilli(3000)
	if removed := c.RemoveOldEntries(500 * time.Millisecond); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}

	// Entries younger than the cutoff survive.
	c.CacheFrame(canvas, fractal.TypeMandelbrot, p1, &countingFramebuffer{})
	if removed := c.RemoveOldEntries(500 * time.Millisecond); removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestLastKnownCanvasUsedWhenNil(t *testing.T) {
	canvas := measuredCanvas()
	c := NewFrameCache(canvas)
	p := baseParams()

	c.CacheFrame(canvas, fractal.TypeMandelbrot, p, &countingFramebuffer{})
	if c.GetCachedFrame(nil, fractal.TypeMandelbrot, p) == nil {
		t.Error("nil canvas should fall back to the last-known canvas")
	}
}
