package fractal

import (
	"context"
	"sync"
)

// ChunkStatus tags the outcome of a chunk load.
type ChunkStatus int

const (
	// ChunkNotFound means no chunk with that name exists or it could not
	// be fetched.
	ChunkNotFound ChunkStatus = iota

	// ChunkMalformed means the chunk was fetched but its shape deviates
	// from what a definition chunk must look like (missing render
	// capability, empty shader source).
	ChunkMalformed

	// ChunkLoaded means the chunk resolved to usable definitions.
	ChunkLoaded
)

// String returns the status name for logs.
func (s ChunkStatus) String() string {
	switch s {
	case ChunkLoaded:
		return "loaded"
	case ChunkMalformed:
		return "malformed"
	default:
		return "not-found"
	}
}

// ChunkResult is the tagged outcome of a ChunkLoader. Definitions is only
// meaningful when Status is ChunkLoaded.
type ChunkResult struct {
	Status      ChunkStatus
	Definitions map[Type]Definition
}

// ChunkLoader fetches one chunk by logical name. Implementations must
// report shape deviations through the result tag, never panic.
type ChunkLoader func(ctx context.Context) ChunkResult

// Registry maps chunk names to loader functions. Family chunks and
// individual per-type chunks live in separate namespaces, matching the two
// middle tiers of the loader's fallback chain.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	chunks  map[string]ChunkLoader
	singles map[Type]ChunkLoader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		chunks:  make(map[string]ChunkLoader),
		singles: make(map[Type]ChunkLoader),
	}
}

// RegisterChunk registers a family chunk loader.
// A loader registered under an existing name replaces it.
func (r *Registry) RegisterChunk(name string, loader ChunkLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[name] = loader
}

// RegisterSingle registers an individual per-type chunk loader.
func (r *Registry) RegisterSingle(t Type, loader ChunkLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.singles[t] = loader
}

// LoadChunk loads a family chunk by name.
// An unregistered name yields ChunkNotFound.
func (r *Registry) LoadChunk(ctx context.Context, name string) ChunkResult {
	r.mu.RLock()
	loader, ok := r.chunks[name]
	r.mu.RUnlock()

	if !ok {
		return ChunkResult{Status: ChunkNotFound}
	}
	return loader(ctx)
}

// LoadSingle loads the individual chunk for one type.
func (r *Registry) LoadSingle(ctx context.Context, t Type) ChunkResult {
	r.mu.RLock()
	loader, ok := r.singles[t]
	r.mu.RUnlock()

	if !ok {
		return ChunkResult{Status: ChunkNotFound}
	}
	return loader(ctx)
}

// defaultRegistry holds the built-in catalog, populated by init functions
// in catalog.go.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry holding the built-in definition
// catalog.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
