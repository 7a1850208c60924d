package effects

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goartstudio/graphics"
)

// Scalar and vector helpers with GLSL semantics, so kernels read like the
// fragment routines they mirror.

var rgbPhase = mgl32.Vec3{0, 2, 4}

func fract(x float32) float32 { return x - math32.Floor(x) }

// mod is GLSL mod: the result takes the sign of y.
func mod(x, y float32) float32 { return x - y*math32.Floor(x/y) }

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func mix(a, b, t float32) float32 { return a*(1-t) + b*t }

func mix3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{mix(a[0], b[0], t), mix(a[1], b[1], t), mix(a[2], b[2], t)}
}

func smoothstep(e0, e1, x float32) float32 {
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func fract2(v mgl32.Vec2) mgl32.Vec2 { return mgl32.Vec2{fract(v[0]), fract(v[1])} }

func floor2(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{math32.Floor(v[0]), math32.Floor(v[1])}
}

func abs2(v mgl32.Vec2) mgl32.Vec2 { return mgl32.Vec2{math32.Abs(v[0]), math32.Abs(v[1])} }

func addScalar2(v mgl32.Vec2, s float32) mgl32.Vec2 { return mgl32.Vec2{v[0] + s, v[1] + s} }

func mul2(a, b mgl32.Vec2) mgl32.Vec2 { return mgl32.Vec2{a[0] * b[0], a[1] * b[1]} }

func splat3(s float32) mgl32.Vec3 { return mgl32.Vec3{s, s, s} }

func xyx(v mgl32.Vec2) mgl32.Vec3 { return mgl32.Vec3{v[0], v[1], v[0]} }

// rotate applies mat2(cos a, -sin a, sin a, cos a) * v with GLSL column order.
func rotate(v mgl32.Vec2, a float32) mgl32.Vec2 {
	s, c := math32.Sin(a), math32.Cos(a)
	m := mgl32.Mat2{c, -s, s, c}
	return m.Mul2x1(v)
}

// cosWave is 0.5 + 0.5*cos(t + p) per component.
func cosWave(t float32, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		0.5 + 0.5*math32.Cos(t+p[0]),
		0.5 + 0.5*math32.Cos(t+p[1]),
		0.5 + 0.5*math32.Cos(t+p[2]),
	}
}

// hash is the sin-based white noise shared by most effects.
func hash(p mgl32.Vec2) float32 {
	return fract(math32.Sin(p.Dot(mgl32.Vec2{12.9898, 78.233})) * 43758.5453)
}

// viewCoord maps the texture coordinate to aspect-corrected, centred space.
func viewCoord(f *graphics.Fragment) mgl32.Vec2 {
	res := f.Resolution
	m := math32.Min(res[0], res[1])
	c := f.TexCoord.Sub(mgl32.Vec2{0.5, 0.5})
	return mgl32.Vec2{c[0] * res[0] / m, c[1] * res[1] / m}
}

// viewPoint is viewCoord with zoom and offset applied.
func viewPoint(f *graphics.Fragment) mgl32.Vec2 {
	return viewCoord(f).Mul(f.Zoom).Add(f.Offset)
}

func texel(f *graphics.Fragment) mgl32.Vec2 {
	return mgl32.Vec2{1 / f.Resolution[0], 1 / f.Resolution[1]}
}

// sample reads prev_frame; a missing sampler reads as zero.
func sample(f *graphics.Fragment, uv mgl32.Vec2) mgl32.Vec4 {
	if f.Prev == nil {
		return mgl32.Vec4{}
	}
	return f.Prev.Texture(uv)
}

func opaque(c mgl32.Vec3) mgl32.Vec4 { return c.Vec4(1) }
