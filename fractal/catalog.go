package fractal

import "context"

// Built-in definition catalog. Each family registers its chunk with the
// default registry; every type additionally registers an individual chunk
// so the loader's second tier works even when a family table entry is
// missing or stale.

const mandelbrotWGSL = `
fn iterate(c: vec2<f32>, max_iter: u32) -> u32 {
    var z = vec2<f32>(0.0, 0.0);
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        z = vec2<f32>(z.x * z.x - z.y * z.y, 2.0 * z.x * z.y) + c;
        i = i + 1u;
    }
    return i;
}
`

const juliaWGSL = `
fn iterate(p: vec2<f32>, c: vec2<f32>, max_iter: u32) -> u32 {
    var z = p;
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        z = vec2<f32>(z.x * z.x - z.y * z.y, 2.0 * z.x * z.y) + c;
        i = i + 1u;
    }
    return i;
}
`

const juliaCubicWGSL = `
fn iterate(p: vec2<f32>, c: vec2<f32>, max_iter: u32) -> u32 {
    var z = p;
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        let zz = vec2<f32>(z.x * z.x - z.y * z.y, 2.0 * z.x * z.y);
        z = vec2<f32>(zz.x * z.x - zz.y * z.y, zz.x * z.y + zz.y * z.x) + c;
        i = i + 1u;
    }
    return i;
}
`

const phoenixWGSL = `
fn iterate(p: vec2<f32>, c: vec2<f32>, max_iter: u32) -> u32 {
    var z = p;
    var prev = vec2<f32>(0.0, 0.0);
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        let next = vec2<f32>(z.x * z.x - z.y * z.y + c.x, 2.0 * z.x * z.y) + c.y * prev;
        prev = z;
        z = next;
        i = i + 1u;
    }
    return i;
}
`

const burningShipWGSL = `
fn iterate(c: vec2<f32>, max_iter: u32) -> u32 {
    var z = vec2<f32>(0.0, 0.0);
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        let a = abs(z);
        z = vec2<f32>(a.x * a.x - a.y * a.y, 2.0 * a.x * a.y) + c;
        i = i + 1u;
    }
    return i;
}
`

const tricornWGSL = `
fn iterate(c: vec2<f32>, max_iter: u32) -> u32 {
    var z = vec2<f32>(0.0, 0.0);
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        z = vec2<f32>(z.x * z.x - z.y * z.y, -2.0 * z.x * z.y) + c;
        i = i + 1u;
    }
    return i;
}
`

const multibrotWGSL = `
fn iterate(c: vec2<f32>, power: f32, max_iter: u32) -> u32 {
    var z = vec2<f32>(0.0, 0.0);
    var i: u32 = 0u;
    loop {
        if (i >= max_iter || dot(z, z) > 4.0) { break; }
        let r = pow(length(z), power);
        let theta = atan2(z.y, z.x) * power;
        z = vec2<f32>(r * cos(theta), r * sin(theta)) + c;
        i = i + 1u;
    }
    return i;
}
`

const newtonWGSL = `
fn iterate(p: vec2<f32>, max_iter: u32) -> u32 {
    var z = p;
    var i: u32 = 0u;
    loop {
        if (i >= max_iter) { break; }
        let d = dot(z, z);
        if (d < 1e-6) { break; }
        let z2 = vec2<f32>(z.x * z.x - z.y * z.y, 2.0 * z.x * z.y);
        let z3 = vec2<f32>(z2.x * z.x - z2.y * z.y, z2.x * z.y + z2.y * z.x);
        let num = vec2<f32>(2.0 * z3.x + 1.0, 2.0 * z3.y);
        let den = 3.0 * z2;
        let dd = dot(den, den);
        z = vec2<f32>((num.x * den.x + num.y * den.y) / dd, (num.y * den.x - num.x * den.y) / dd);
        i = i + 1u;
    }
    return i;
}
`

const novaWGSL = `
fn iterate(p: vec2<f32>, max_iter: u32) -> u32 {
    var z = p;
    var i: u32 = 0u;
    loop {
        if (i >= max_iter) { break; }
        let z2 = vec2<f32>(z.x * z.x - z.y * z.y, 2.0 * z.x * z.y);
        let z3 = vec2<f32>(z2.x * z.x - z2.y * z.y, z2.x * z.y + z2.y * z.x);
        let num = vec2<f32>(z3.x - 1.0, z3.y);
        let den = 3.0 * z2;
        let dd = max(dot(den, den), 1e-6);
        let step = vec2<f32>((num.x * den.x + num.y * den.y) / dd, (num.y * den.x - num.x * den.y) / dd);
        z = z - step + p;
        i = i + 1u;
    }
    return i;
}
`

const lyapunovWGSL = `
fn exponent(p: vec2<f32>, max_iter: u32) -> f32 {
    var x: f32 = 0.5;
    var sum: f32 = 0.0;
    var i: u32 = 0u;
    loop {
        if (i >= max_iter) { break; }
        let r = select(p.x, p.y, (i & 1u) == 1u);
        x = r * x * (1.0 - x);
        sum = sum + log(abs(r * (1.0 - 2.0 * x)) + 1e-9);
        i = i + 1u;
    }
    return sum / f32(max_iter);
}
`

// catalog is the full set of built-in definitions.
var catalog = map[Type]Definition{
	TypeMandelbrot: {
		Type:   TypeMandelbrot,
		Shader: mandelbrotWGSL,
		Config: Config{DisplayName: "Mandelbrot", DefaultIterations: 256, MaxZoom: 1e13},
	},
	TypeJulia: {
		Type:   TypeJulia,
		Shader: juliaWGSL,
		Config: Config{DisplayName: "Julia", DefaultIterations: 256, MaxZoom: 1e13},
	},
	TypeJuliaCubic: {
		Type:   TypeJuliaCubic,
		Shader: juliaCubicWGSL,
		Config: Config{DisplayName: "Cubic Julia", DefaultIterations: 256, MaxZoom: 1e12},
	},
	TypePhoenix: {
		Type:   TypePhoenix,
		Shader: phoenixWGSL,
		Config: Config{DisplayName: "Phoenix", DefaultIterations: 256, MaxZoom: 1e12},
	},
	TypeBurningShip: {
		Type:   TypeBurningShip,
		Shader: burningShipWGSL,
		Config: Config{DisplayName: "Burning Ship", DefaultIterations: 256, MaxZoom: 1e13},
	},
	TypeTricorn: {
		Type:   TypeTricorn,
		Shader: tricornWGSL,
		Config: Config{DisplayName: "Tricorn", DefaultIterations: 256, MaxZoom: 1e13},
	},
	TypeMultibrot: {
		Type:   TypeMultibrot,
		Shader: multibrotWGSL,
		Config: Config{DisplayName: "Multibrot", DefaultIterations: 192, MaxZoom: 1e11},
	},
	TypeNewton: {
		Type:   TypeNewton,
		Shader: newtonWGSL,
		Config: Config{DisplayName: "Newton", DefaultIterations: 64, MaxZoom: 1e10},
	},
	TypeNova: {
		Type:   TypeNova,
		Shader: novaWGSL,
		Config: Config{DisplayName: "Nova", DefaultIterations: 64, MaxZoom: 1e10},
	},
	TypeLyapunov: {
		Type:   TypeLyapunov,
		Shader: lyapunovWGSL,
		Config: Config{DisplayName: "Lyapunov", DefaultIterations: 512, MaxZoom: 1e8},
	},
}

// chunkOf builds a loader serving a fixed subset of the catalog.
func chunkOf(types ...Type) ChunkLoader {
	defs := make(map[Type]Definition, len(types))
	for _, t := range types {
		defs[t] = catalog[t]
	}
	return func(context.Context) ChunkResult {
		return ChunkResult{Status: ChunkLoaded, Definitions: defs}
	}
}

func init() {
	r := defaultRegistry

	r.RegisterChunk(FamilyEscape, chunkOf(TypeMandelbrot, TypeBurningShip, TypeTricorn, TypeMultibrot))
	r.RegisterChunk(FamilyJulia, chunkOf(TypeJulia, TypeJuliaCubic, TypePhoenix))
	r.RegisterChunk(FamilyConvergent, chunkOf(TypeNewton, TypeNova))

	for t := range catalog {
		r.RegisterSingle(t, chunkOf(t))
	}
}
