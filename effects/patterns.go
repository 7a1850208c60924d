package effects

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goartstudio/graphics"
)

func init() {
	registerKernel("Default", defaultGradient)
	registerKernel("Noise", noise)
	registerKernel("Kaleidoscope", kaleidoscope)
	registerKernel("Spiral", spiral)
	registerKernel("Geometric", geometric)
	registerKernel("Cosmic", cosmic)
	registerKernel("Voronoi", voronoi)
}

func defaultGradient(f *graphics.Fragment) mgl32.Vec4 {
	uv := viewPoint(f)
	col := cosWave(f.Time, xyx(uv).Add(rgbPhase))
	return opaque(col.Mul(math32.Exp(-uv.Len() * 2)))
}

func noise(f *graphics.Fragment) mgl32.Vec4 {
	p := addScalar2(viewPoint(f), f.Time*0.1)
	p = fract2(mul2(p, mgl32.Vec2{123.34, 456.21}))
	p = addScalar2(p, p.Dot(addScalar2(p, 45.32)))
	n := fract(p[0] * p[1])
	return opaque(splat3(n))
}

func kaleidoscope(f *graphics.Fragment) mgl32.Vec4 {
	const sides, tau = 6.0, 6.283185
	uv := viewPoint(f)

	r := uv.Len()
	a := math32.Atan2(uv[1], uv[0])
	a = mod(a, tau/sides)
	a = math32.Abs(a - tau/sides/2)
	uv = mgl32.Vec2{math32.Cos(a), math32.Sin(a)}.Mul(r)

	d := math32.Sin(uv[0]*10+f.Time) * math32.Sin(uv[1]*10+f.Time)
	col := cosWave(f.Time, xyx(uv).Add(rgbPhase))
	return opaque(col.Mul(d))
}

func spiral(f *graphics.Fragment) mgl32.Vec4 {
	uv := viewPoint(f)
	r := uv.Len()
	a := math32.Atan2(uv[1], uv[0])

	d := math32.Sin((a + r*5 - f.Time) * 10)
	col := cosWave(f.Time+r, rgbPhase)
	return opaque(col.Mul(smoothstep(0, 0.1, math32.Abs(d))))
}

func geometric(f *graphics.Fragment) mgl32.Vec4 {
	uv := viewPoint(f)
	g := abs2(addScalar2(fract2(uv.Mul(10)), -0.5))
	d := math32.Min(g[0], g[1])

	mask := smoothstep(0.01, 0.02, d)
	col := cosWave(f.Time, xyx(uv).Add(rgbPhase))
	return opaque(col.Mul(1 - mask))
}

func cosmic(f *graphics.Fragment) mgl32.Vec4 {
	uv := viewPoint(f)
	var final mgl32.Vec3
	for i := 0; i < 4; i++ {
		uv = addScalar2(fract2(uv.Mul(1.5)), -0.5)

		d := uv.Len() * math32.Exp(-uv.Len())
		col := cosWave(f.Time, xyx(uv).Mul(2).Add(rgbPhase))

		d = math32.Abs(math32.Sin(d*8+f.Time) / 8)
		d = math32.Pow(0.01/d, 1.2)
		final = final.Add(col.Mul(d))
	}
	return opaque(final)
}

func hash2(p mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		fract(math32.Sin(p.Dot(mgl32.Vec2{127.1, 311.7})) * 43758.5453),
		fract(math32.Sin(p.Dot(mgl32.Vec2{269.5, 183.3})) * 43758.5453),
	}
}

func voronoi(f *graphics.Fragment) mgl32.Vec4 {
	uv := viewPoint(f).Mul(30)
	n := floor2(uv)
	fr := fract2(uv)

	minDist := float32(1)
	var point mgl32.Vec2
	for j := -1; j <= 1; j++ {
		for i := -1; i <= 1; i++ {
			g := mgl32.Vec2{float32(i), float32(j)}
			o := hash2(n.Add(g))
			o = mgl32.Vec2{
				0.5 + 0.5*math32.Sin(f.Time+6.2831*o[0]),
				0.5 + 0.5*math32.Sin(f.Time+6.2831*o[1]),
			}
			r := g.Add(o).Sub(fr)
			if d := r.Dot(r); d < minDist {
				minDist = d
				point = o
			}
		}
	}

	col := cosWave(f.Time, xyx(point).Add(rgbPhase))
	return opaque(col.Mul(1 - smoothstep(0, 0.1, minDist)))
}
