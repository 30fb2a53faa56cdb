package fractal

// Type identifies a fractal formula. The set of types is closed: every
// value that can appear at runtime is declared below.
type Type string

// Known fractal types.
const (
	// TypeMandelbrot is the distinguished default type. Its definition is
	// compiled into the binary and can always be loaded, which is what
	// bounds the loader's fallback chain.
	TypeMandelbrot Type = "mandelbrot"

	TypeJulia       Type = "julia"
	TypeJuliaCubic  Type = "julia-cubic"
	TypePhoenix     Type = "phoenix"
	TypeBurningShip Type = "burning-ship"
	TypeTricorn     Type = "tricorn"
	TypeMultibrot   Type = "multibrot"
	TypeNewton      Type = "newton"
	TypeNova        Type = "nova"
	TypeLyapunov    Type = "lyapunov"
)

// DefaultType is the terminal fallback of the loader chain.
const DefaultType = TypeMandelbrot

// Family chunk names. A family groups several related definitions into one
// loadable chunk.
const (
	FamilyEscape     = "escape"
	FamilyJulia      = "julia"
	FamilyConvergent = "convergent"
)

// families maps each type to its family chunk. Types absent from this table
// (e.g. Lyapunov) are only loadable individually.
var families = map[Type]string{
	TypeMandelbrot:  FamilyEscape,
	TypeBurningShip: FamilyEscape,
	TypeTricorn:     FamilyEscape,
	TypeMultibrot:   FamilyEscape,
	TypeJulia:       FamilyJulia,
	TypeJuliaCubic:  FamilyJulia,
	TypePhoenix:     FamilyJulia,
	TypeNewton:      FamilyConvergent,
	TypeNova:        FamilyConvergent,
}

// juliaTypes marks the Julia-family variants whose view parameters include
// the Julia constant. The frame cache keys on the constant only for these.
var juliaTypes = map[Type]bool{
	TypeJulia:      true,
	TypeJuliaCubic: true,
	TypePhoenix:    true,
}

// FamilyOf returns the family chunk name for a type.
// ok is false for types loadable only individually.
func FamilyOf(t Type) (family string, ok bool) {
	family, ok = families[t]
	return family, ok
}

// IsJulia reports whether t is a Julia-family variant parameterized by a
// Julia constant.
func IsJulia(t Type) bool {
	return juliaTypes[t]
}

// Known reports whether t is one of the declared types.
func Known(t Type) bool {
	if _, ok := families[t]; ok {
		return true
	}
	return t == TypeLyapunov
}

// Config is the static metadata a loaded module carries.
type Config struct {
	// DisplayName is the human-readable name shown by UI panels.
	DisplayName string

	// DefaultIterations is the iteration count used until the user
	// adjusts it.
	DefaultIterations int

	// MaxZoom bounds how deep the view may zoom before precision runs out.
	MaxZoom float64
}
