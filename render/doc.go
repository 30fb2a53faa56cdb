// Package render defines the GPU boundary for fractalview.
//
// The resource layer above this package (frame cache, occlusion coordinator,
// session lifecycle) never talks to the GPU directly. It sees three narrow
// capabilities defined here:
//
//   - Framebuffer: an opaque render target handle whose only obligation is
//     Destroy. The frame cache owns framebuffer lifetimes through this
//     interface alone.
//   - QuerySource: the asynchronous occlusion-query primitive, gated by a
//     Supported flag so callers degrade to no-ops on capability classes
//     without it.
//   - DeviceHandle: the shared GPU device supplied by the host application
//     (an alias for gpucontext.DeviceProvider, the same integration point
//     used across the gogpu ecosystem).
//
// Two Framebuffer implementations are provided: TextureFramebuffer wraps a
// HAL texture on a real device, and MemoryFramebuffer is a CPU-resident
// fallback used when no GPU is available (and by tests).
package render
