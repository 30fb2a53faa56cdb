package render

import "errors"

// ErrQueryUnsupported is returned by query sources that do not implement the
// asynchronous occlusion-query primitive.
var ErrQueryUnsupported = errors.New("render: occlusion queries not supported")

// QueryHandle is an opaque handle to one in-flight occlusion query.
// Only the QuerySource that created it can interpret it.
type QueryHandle interface{}

// QuerySource is the asynchronous GPU visibility-query capability.
//
// The protocol is two-phase: CreateQuery+Begin submit a query around the
// tile's draw, End closes it, and the result is harvested later by polling
// ResultAvailable until it reports true, then reading Result once. A source
// whose Supported reports false may return ErrQueryUnsupported from every
// other method; callers are expected to check Supported first and degrade
// to no-ops.
//
// On WebGL2-class backends this maps onto ANY_SAMPLES_PASSED query objects;
// the wgpu HAL does not expose occlusion queries yet, so GPU-backed sources
// live with their backend integrations, not in this package.
type QuerySource interface {
	// Supported reports whether the backend implements occlusion queries.
	Supported() bool

	// CreateQuery allocates a query object.
	CreateQuery() (QueryHandle, error)

	// Begin starts sample counting under the query.
	Begin(q QueryHandle) error

	// End stops sample counting. The result becomes available some frames
	// later.
	End(q QueryHandle) error

	// ResultAvailable reports whether the query result can be read without
	// stalling the pipeline.
	ResultAvailable(q QueryHandle) (bool, error)

	// Result reads the query outcome: true if any samples passed.
	// Only valid after ResultAvailable has reported true.
	Result(q QueryHandle) (bool, error)

	// Destroy releases the query object. Destroying an already-released or
	// invalid handle must be harmless.
	Destroy(q QueryHandle)
}

// UnsupportedQuerySource is a QuerySource for capability classes without
// async queries. Every operation fails with ErrQueryUnsupported.
type UnsupportedQuerySource struct{}

// Supported reports false.
func (UnsupportedQuerySource) Supported() bool { return false }

// CreateQuery fails with ErrQueryUnsupported.
func (UnsupportedQuerySource) CreateQuery() (QueryHandle, error) { return nil, ErrQueryUnsupported }

// Begin fails with ErrQueryUnsupported.
func (UnsupportedQuerySource) Begin(QueryHandle) error { return ErrQueryUnsupported }

// End fails with ErrQueryUnsupported.
func (UnsupportedQuerySource) End(QueryHandle) error { return ErrQueryUnsupported }

// ResultAvailable fails with ErrQueryUnsupported.
func (UnsupportedQuerySource) ResultAvailable(QueryHandle) (bool, error) {
	return false, ErrQueryUnsupported
}

// Result fails with ErrQueryUnsupported.
func (UnsupportedQuerySource) Result(QueryHandle) (bool, error) {
	return false, ErrQueryUnsupported
}

// Destroy is a no-op.
func (UnsupportedQuerySource) Destroy(QueryHandle) {}

// Ensure UnsupportedQuerySource implements QuerySource.
var _ QuerySource = UnsupportedQuerySource{}
