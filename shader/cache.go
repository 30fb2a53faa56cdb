// Package shader caches compiled fractal shaders per fractal type.
//
// Compilation goes WGSL → SPIR-V through gogpu/naga and is the most
// expensive step of a fractal switch, so compiled words are cached per
// type. The session coordinator clears the cache at session end; a shader
// is recompiled at most once per session.
package shader

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/fractalview/fractal"
)

// CompileFunc compiles WGSL source to SPIR-V bytes.
type CompileFunc func(wgslSource string) ([]byte, error)

// Cache caches compiled SPIR-V per fractal type.
//
// Cache is safe for concurrent use. The compile function is called with
// the lock held so concurrent requests for the same type compile once.
type Cache struct {
	mu      sync.Mutex
	words   map[fractal.Type][]uint32
	compile CompileFunc
}

// Option configures a Cache.
type Option func(*Cache)

// WithCompiler overrides the compiler. Tests use this to avoid invoking
// naga.
func WithCompiler(compile CompileFunc) Option {
	return func(c *Cache) {
		if compile != nil {
			c.compile = compile
		}
	}
}

// NewCache creates a shader cache compiling through naga.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		words:   make(map[fractal.Type][]uint32),
		compile: naga.Compile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile returns the SPIR-V words for a fractal's shader, compiling on
// first use. The source normally comes from the loaded module's Program.
func (c *Cache) Compile(t fractal.Type, wgslSource string) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if words, ok := c.words[t]; ok {
		return words, nil
	}

	spirv, err := c.compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("shader: compiling %q: %w", t, err)
	}
	words := packWords(spirv)
	c.words[t] = words
	return words, nil
}

// IsCached reports whether t has a compiled shader.
func (c *Cache) IsCached(t fractal.Type) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.words[t]
	return ok
}

// Clear drops every compiled shader.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.words = make(map[fractal.Type][]uint32)
}

// Len returns the number of cached shaders.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.words)
}

// packWords converts SPIR-V bytes to little-endian 32-bit words.
func packWords(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words
}
