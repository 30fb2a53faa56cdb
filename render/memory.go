package render

import "sync"

// MemoryFramebuffer is a CPU-resident Framebuffer used when no GPU device is
// available. It holds its pixels in an RGBA byte slice, 4 bytes per pixel,
// row by row.
//
// The frame cache treats it exactly like a GPU framebuffer: Destroy releases
// the pixel storage and is an error the second time.
type MemoryFramebuffer struct {
	mu        sync.Mutex
	label     string
	width     int
	height    int
	pixels    []byte
	destroyed bool
}

// NewMemoryFramebuffer allocates a CPU framebuffer.
func NewMemoryFramebuffer(label string, width, height int) *MemoryFramebuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &MemoryFramebuffer{
		label:  label,
		width:  width,
		height: height,
		pixels: make([]byte, width*height*4),
	}
}

// Label returns the debug label.
func (f *MemoryFramebuffer) Label() string { return f.label }

// Width returns the width in pixels.
func (f *MemoryFramebuffer) Width() int { return f.width }

// Height returns the height in pixels.
func (f *MemoryFramebuffer) Height() int { return f.height }

// Pixels returns the RGBA pixel storage, or nil after Destroy.
func (f *MemoryFramebuffer) Pixels() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return nil
	}
	return f.pixels
}

// Destroy releases the pixel storage.
func (f *MemoryFramebuffer) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrFramebufferDestroyed
	}
	f.destroyed = true
	f.pixels = nil
	return nil
}

// Ensure MemoryFramebuffer implements Framebuffer.
var _ Framebuffer = (*MemoryFramebuffer)(nil)
