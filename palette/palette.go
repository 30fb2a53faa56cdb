// Package palette builds and caches the color ramps fractal renderers
// index with the per-pixel iteration count.
//
// Ramps are derived from small sets of named anchor colors and linearly
// interpolated to 256 entries. Building one is cheap but happens per
// color-scheme switch on the render path, so ramps are cached per scheme
// name; the session coordinator clears the cache at session end.
package palette

import (
	"image/color"
	"sync"

	"golang.org/x/image/colornames"
)

// RampSize is the number of entries in every ramp.
const RampSize = 256

// schemes maps color-scheme identifiers to their anchor colors.
// Unknown identifiers fall back to "classic".
var schemes = map[string][]color.RGBA{
	"classic":  {colornames.Black, colornames.Blue, colornames.White, colornames.Orange, colornames.Black},
	"fire":     {colornames.Black, colornames.Darkred, colornames.Orange, colornames.Yellow, colornames.White},
	"ocean":    {colornames.Black, colornames.Navy, colornames.Teal, colornames.Aqua, colornames.White},
	"forest":   {colornames.Black, colornames.Darkgreen, colornames.Limegreen, colornames.Yellowgreen, colornames.White},
	"sunset":   {colornames.Indigo, colornames.Crimson, colornames.Orangered, colornames.Gold, colornames.White},
	"mono":     {colornames.Black, colornames.White},
	"electric": {colornames.Black, colornames.Purple, colornames.Magenta, colornames.Cyan, colornames.White},
}

// DefaultScheme is used for unknown scheme identifiers.
const DefaultScheme = "classic"

// Known reports whether a scheme identifier has its own anchor set.
func Known(scheme string) bool {
	_, ok := schemes[scheme]
	return ok
}

// Schemes returns the known scheme identifiers, in no particular order.
func Schemes() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	return names
}

// Cache caches built ramps per scheme name.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	ramps map[string][]color.RGBA
}

// NewCache creates an empty palette cache.
func NewCache() *Cache {
	return &Cache{ramps: make(map[string][]color.RGBA)}
}

// Ramp returns the cached ramp for a scheme, building it on first use.
// Unknown schemes resolve to DefaultScheme. Callers must not modify the
// returned slice.
func (c *Cache) Ramp(scheme string) []color.RGBA {
	if !Known(scheme) {
		scheme = DefaultScheme
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ramp, ok := c.ramps[scheme]; ok {
		return ramp
	}
	ramp := buildRamp(schemes[scheme])
	c.ramps[scheme] = ramp
	return ramp
}

// Clear empties the cache. Ramps hold no external resources, so this is
// purely a memory release.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ramps = make(map[string][]color.RGBA)
}

// Len returns the number of cached ramps.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ramps)
}

// buildRamp linearly interpolates the anchors into a RampSize-entry ramp.
func buildRamp(anchors []color.RGBA) []color.RGBA {
	ramp := make([]color.RGBA, RampSize)
	if len(anchors) == 0 {
		return ramp
	}
	if len(anchors) == 1 {
		for i := range ramp {
			ramp[i] = anchors[0]
		}
		return ramp
	}

	segments := len(anchors) - 1
	for i := range ramp {
		pos := float64(i) / float64(RampSize-1) * float64(segments)
		seg := int(pos)
		if seg >= segments {
			seg = segments - 1
		}
		t := pos - float64(seg)
		ramp[i] = lerp(anchors[seg], anchors[seg+1], t)
	}
	return ramp
}

// lerp blends two colors component-wise.
func lerp(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t + 0.5),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t + 0.5),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t + 0.5),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t + 0.5),
	}
}
