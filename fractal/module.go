package fractal

// Program is the render capability a loaded module exposes. The host
// renderer compiles ShaderSource (WGSL) through the shader cache and builds
// its draw calls around it; the loader only guarantees the capability is
// present and non-degenerate.
type Program interface {
	// Type returns the fractal type this program renders.
	Type() Type

	// ShaderSource returns the WGSL source of the fragment stage.
	ShaderSource() string
}

// Definition is one catalog entry inside a chunk: the raw material a
// Module is validated from.
type Definition struct {
	Type   Type
	Shader string
	Config Config
}

// Module is a loaded, render-capable fractal definition, cached by the
// Loader per type.
type Module struct {
	Type    Type
	Program Program
	Config  Config
}

// program is the catalog-backed Program implementation.
type program struct {
	typ    Type
	shader string
}

func (p *program) Type() Type           { return p.typ }
func (p *program) ShaderSource() string { return p.shader }

// moduleFromDefinition validates a definition into a module.
// ok is false when the definition lacks a render capability (empty shader
// source or mismatched type tag).
func moduleFromDefinition(t Type, def Definition) (*Module, bool) {
	if def.Shader == "" || def.Type != t {
		return nil, false
	}
	return &Module{
		Type:    t,
		Program: &program{typ: t, shader: def.Shader},
		Config:  def.Config,
	}, true
}
