package cache

import (
	"fmt"

	"github.com/gogpu/fractalview/fractal"
)

// Default viewport used when the canvas has no measurable parent. These
// match the fallback canvas size of the interaction layer, so keys derived
// before first layout still collide with keys derived after it as long as
// the layout resolves to the same size.
const (
	DefaultViewportWidth  = 800
	DefaultViewportHeight = 600
)

// Key is a deterministic stringification of one view configuration.
//
// Two logically identical views always produce the same key; views that
// differ beyond the documented rounding always produce different ones.
// Rounding precision (zoom 1e-3, pan 1e-4, axis scale 1e-2, Julia constant
// 1e-4) is an accepted precision loss: views inside the same rounding cell
// share a frame.
type Key string

// Canvas supplies the display-viewport geometry keys embed. It reports the
// canvas container's client size in display pixels, not the device-pixel
// render size. ok is false when the canvas has no measurable parent yet.
type Canvas interface {
	ViewportSize() (width, height float64, ok bool)
}

// Params are the view parameters a frame was rendered with.
type Params struct {
	Zoom        float64
	OffsetX     float64
	OffsetY     float64
	Iterations  int
	ColorScheme string
	ScaleX      float64
	ScaleY      float64

	// JuliaRe and JuliaIm are the Julia constant. They participate in the
	// key only for Julia-family fractal types and are pinned to zero for
	// everything else.
	JuliaRe float64
	JuliaIm float64
}

// KeyOptions adjust key derivation.
type KeyOptions struct {
	// DefaultWidth and DefaultHeight replace the viewport size when the
	// canvas geometry is degenerate. Zero values mean 800x600.
	DefaultWidth  int
	DefaultHeight int
}

// GenerateKey derives the cache key for one view.
// ok is false only when canvas is nil: without a canvas there is no
// viewport size to derive, so no key exists. Degenerate geometry is not an
// error; it falls back to the default viewport.
func GenerateKey(canvas Canvas, fractalType fractal.Type, p Params, opts KeyOptions) (Key, bool) {
	if canvas == nil {
		return "", false
	}

	defW := opts.DefaultWidth
	if defW <= 0 {
		defW = DefaultViewportWidth
	}
	defH := opts.DefaultHeight
	if defH <= 0 {
		defH = DefaultViewportHeight
	}

	w, h, measurable := canvas.ViewportSize()
	width, height := defW, defH
	if measurable && w > 0 && h > 0 {
		width = int(w + 0.5)
		height = int(h + 0.5)
	}

	jr, ji := 0.0, 0.0
	if fractal.IsJulia(fractalType) {
		jr, ji = p.JuliaRe, p.JuliaIm
	}

	// %.Nf formatting performs the documented rounding: equal-after-rounding
	// parameter sets stringify identically.
	return Key(fmt.Sprintf("%s|z%.3f|ox%.4f|oy%.4f|it%d|cs%s|sx%.2f|sy%.2f|jr%.4f|ji%.4f|w%d|h%d",
		fractalType, p.Zoom, p.OffsetX, p.OffsetY, p.Iterations, p.ColorScheme,
		p.ScaleX, p.ScaleY, jr, ji, width, height)), true
}
