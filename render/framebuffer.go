package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

// Framebuffer errors.
var (
	// ErrFramebufferDestroyed is returned when destroying a framebuffer twice.
	ErrFramebufferDestroyed = errors.New("render: framebuffer has been destroyed")

	// ErrNilDevice is returned when creating a framebuffer without a device.
	ErrNilDevice = errors.New("render: HAL device is nil")

	// ErrInvalidFramebufferSize is returned when dimensions are not positive.
	ErrInvalidFramebufferSize = errors.New("render: invalid framebuffer size")
)

// Framebuffer is an opaque GPU-resident render target handle.
//
// It is the unit of value stored per frame-cache entry. The cache owns the
// framebuffer's lifetime: eviction calls Destroy exactly once, and treats a
// Destroy error as a log line, never a reason to abort an eviction sweep.
type Framebuffer interface {
	// Label returns the debug label given at creation. May be empty.
	Label() string

	// Destroy releases the underlying GPU resources.
	// Destroy must be called at most once; subsequent calls return
	// ErrFramebufferDestroyed.
	Destroy() error
}

// TextureDevice is the subset of hal.Device needed to manage framebuffer
// textures. hal.Device satisfies it; tests substitute a fake.
type TextureDevice interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
}

// FramebufferDescriptor describes a framebuffer to create.
type FramebufferDescriptor struct {
	// Label is an optional debug name carried into GPU tooling.
	Label string

	// Width and Height are the render size in device pixels.
	Width, Height int

	// Format is the texture pixel format.
	// Zero value means RGBA8Unorm.
	Format gputypes.TextureFormat
}

// TextureFramebuffer is a Framebuffer backed by a HAL texture.
//
// Destroy is idempotent-guarded: the first call releases the texture via the
// owning device, later calls return ErrFramebufferDestroyed. Safe for
// concurrent use.
type TextureFramebuffer struct {
	mu        sync.Mutex
	device    TextureDevice
	texture   hal.Texture
	label     string
	width     int
	height    int
	destroyed bool
}

// NewTextureFramebuffer creates a framebuffer texture on the given device.
func NewTextureFramebuffer(device TextureDevice, desc FramebufferDescriptor) (*TextureFramebuffer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFramebufferSize, desc.Width, desc.Height)
	}

	halDesc := &hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        convertTextureFormat(desc.Format),
		Usage:         types.TextureUsageCopySrc | types.TextureUsageTextureBinding | types.TextureUsageRenderAttachment,
	}

	texture, err := device.CreateTexture(halDesc)
	if err != nil {
		return nil, fmt.Errorf("render: framebuffer texture creation failed: %w", err)
	}

	return &TextureFramebuffer{
		device:  device,
		texture: texture,
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
	}, nil
}

// Label returns the debug label.
func (f *TextureFramebuffer) Label() string { return f.label }

// Width returns the render width in device pixels.
func (f *TextureFramebuffer) Width() int { return f.width }

// Height returns the render height in device pixels.
func (f *TextureFramebuffer) Height() int { return f.height }

// Texture returns the underlying HAL texture, or nil after Destroy.
func (f *TextureFramebuffer) Texture() hal.Texture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return nil
	}
	return f.texture
}

// Destroy releases the HAL texture through the owning device.
func (f *TextureFramebuffer) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.destroyed {
		return ErrFramebufferDestroyed
	}
	f.destroyed = true

	if f.texture != nil {
		f.device.DestroyTexture(f.texture)
		f.texture = nil
	}
	return nil
}

// Ensure TextureFramebuffer implements Framebuffer.
var _ Framebuffer = (*TextureFramebuffer)(nil)

// convertTextureFormat maps gputypes formats to wgpu HAL formats.
// Unknown formats (including the zero value) map to RGBA8Unorm.
func convertTextureFormat(format gputypes.TextureFormat) types.TextureFormat {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return types.TextureFormatRGBA8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8Unorm
	default:
		return types.TextureFormatRGBA8Unorm
	}
}
