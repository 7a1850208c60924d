package effects

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goartstudio/graphics"
)

func init() {
	registerKernel("Flame", flame)
	registerKernel("GPU Fire", gpuFire)
	registerKernel("Smoke / Ink", smokeInk)
	registerKernel("Droplet Ripples", dropletRipples)
	registerKernel("Flow Field Simulation", flowFieldSimulation)
}

func valueNoise(p mgl32.Vec2) float32 {
	i := floor2(p)
	fr := fract2(p)
	a := hash(i)
	b := hash(i.Add(mgl32.Vec2{1, 0}))
	c := hash(i.Add(mgl32.Vec2{0, 1}))
	d := hash(i.Add(mgl32.Vec2{1, 1}))
	u := mgl32.Vec2{fr[0] * fr[0] * (3 - 2*fr[0]), fr[1] * fr[1] * (3 - 2*fr[1])}
	return mix(a, b, u[0]) + (c-a)*u[1]*(1-u[0]) + (d-b)*u[0]*u[1]
}

func fbm(p mgl32.Vec2) float32 {
	var v float32
	a := float32(0.5)
	for i := 0; i < 5; i++ {
		v += a * valueNoise(p)
		p = p.Mul(2)
		a *= 0.5
	}
	return v
}

// cross4 returns the alpha channel of the four edge neighbours: +x, -x, +y, -y.
func cross4(f *graphics.Fragment, uv mgl32.Vec2) [4]float32 {
	tx := texel(f)
	return [4]float32{
		sample(f, uv.Add(mgl32.Vec2{tx[0], 0}))[3],
		sample(f, uv.Sub(mgl32.Vec2{tx[0], 0}))[3],
		sample(f, uv.Add(mgl32.Vec2{0, tx[1]}))[3],
		sample(f, uv.Sub(mgl32.Vec2{0, tx[1]}))[3],
	}
}

func flame(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord

	n := fbm(uv.Mul(2).Add(mgl32.Vec2{0, -f.Time * 1.2}))
	velocity := mgl32.Vec2{n - 0.5, 1.2 + n*0.4}.Mul(0.006)
	heat := sample(f, uv.Sub(velocity))[3]

	nb := cross4(f, uv)
	avg := (nb[0] + nb[1] + nb[2] + nb[3]) * 0.25
	heat = mix(heat, avg, 0.15)

	heat *= 0.96
	heat -= 0.002 * (1 + uv[1])

	if uv[1] < 0.1 {
		source := fbm(uv.Mul(8).Add(mgl32.Vec2{f.Time * 1.5, 0}))
		source *= smoothstep(0.1, 0.3, uv[0]) * smoothstep(0.9, 0.7, uv[0])
		if source > 0.3 {
			heat = math32.Max(heat, source)
		}
	}
	if hash(addScalar2(uv, f.Time)) > 0.9996 {
		heat = 1
	}
	heat = clamp(heat, 0, 1)

	var col mgl32.Vec3
	col = mix3(col, mgl32.Vec3{0.7, 0.1, 0}, smoothstep(0.1, 0.4, heat))
	col = mix3(col, mgl32.Vec3{1, 0.4, 0}, smoothstep(0.4, 0.7, heat))
	col = mix3(col, mgl32.Vec3{1, 0.8, 0.3}, smoothstep(0.7, 0.9, heat))
	col = mix3(col, mgl32.Vec3{1, 1, 0.8}, smoothstep(0.9, 0.98, heat))
	if uv[1] < 0.15 {
		col = mix3(col, mgl32.Vec3{0.1, 0.2, 0.8}, (1-uv[1]/0.15)*heat*0.5)
	}
	return col.Vec4(heat)
}

func gpuFire(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord

	n := valueNoise(uv.Mul(5).Add(mgl32.Vec2{0, -f.Time * 2}))
	velocity := mgl32.Vec2{n - 0.5, 1 + n*0.5}.Mul(0.005)
	heat := sample(f, uv.Sub(velocity))[3] * 0.96

	if uv[1] < 0.05 && hash(addScalar2(uv, f.Time)) > 0.8 {
		heat = 1
	}

	var col mgl32.Vec3
	col = mix3(col, mgl32.Vec3{1, 0.1, 0}, smoothstep(0.1, 0.4, heat))
	col = mix3(col, mgl32.Vec3{1, 0.6, 0}, smoothstep(0.4, 0.7, heat))
	col = mix3(col, mgl32.Vec3{1, 1, 0.8}, smoothstep(0.7, 0.95, heat))
	return col.Vec4(heat)
}

func smokeInk(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord
	if f.Time < 0.5 {
		return mgl32.Vec4{0, 0, 0, 1}
	}

	density := sample(f, uv)[3]
	nb := cross4(f, uv)
	curl := mgl32.Vec2{nb[2] - nb[3], nb[1] - nb[0]}.Mul(0.01)
	velocity := mgl32.Vec2{0, density * 0.002}.Add(curl)

	next := sample(f, uv.Sub(velocity))[3]
	next = mix(next, (nb[0]+nb[1]+nb[2]+nb[3])*0.25, 0.1)
	next *= 0.99

	if uv.Sub(mgl32.Vec2{0.5, 0.1}).Len() < 0.02 {
		next = 1
	}
	if hash(mgl32.Vec2{f.Time, f.Time}) > 0.98 {
		drop := mgl32.Vec2{hash(mgl32.Vec2{f.Time, 1}), hash(mgl32.Vec2{f.Time, 2})}
		if uv.Sub(drop).Len() < 0.03 {
			next = 1
		}
	}

	col := mix3(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.1, 0.2, 0.4}, next)
	if next < 0.01 {
		col = mgl32.Vec3{0.95, 0.95, 1}
	}
	return col.Vec4(next)
}

func dropletRipples(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord
	tx := texel(f)

	state := sample(f, uv)
	h, hPrev := state[3], state[2]

	nb := cross4(f, uv)
	next := ((nb[0]+nb[1]+nb[2]+nb[3])*0.5 - hPrev) * 0.98

	if hash(mgl32.Vec2{f.Time, f.Time}) > 0.97 {
		drop := mgl32.Vec2{hash(mgl32.Vec2{f.Time, 3}), hash(mgl32.Vec2{f.Time, 4})}
		if uv.Sub(drop).Len() < 0.01 {
			next = 1
		}
	}

	dx := next - sample(f, uv.Add(mgl32.Vec2{tx[0], 0}))[3]
	dy := next - sample(f, uv.Add(mgl32.Vec2{0, tx[1]}))[3]
	normal := mgl32.Vec3{dx, dy, 0.1}.Normalize()
	light := mgl32.Vec3{1, 1, 2}.Normalize()
	diff := math32.Max(0, normal.Dot(light))

	col := mix3(mgl32.Vec3{0, 0.2, 0.5}, mgl32.Vec3{0.5, 0.8, 1}, diff)
	col = col.Add(splat3(math32.Pow(diff, 20)))

	return mgl32.Vec4{col[0], col[1], h, next}
}

func noise3(p mgl32.Vec3) float32 {
	i := mgl32.Vec3{math32.Floor(p[0]), math32.Floor(p[1]), math32.Floor(p[2])}
	fr := p.Sub(i)
	for k := range fr {
		fr[k] = fr[k] * fr[k] * (3 - 2*fr[k])
	}

	n := i[0] + i[1]*157 + 113*i[2]
	h := func(k float32) float32 { return hash(mgl32.Vec2{n + k, 0}) }

	return mix(
		mix(mix(h(0), h(1), fr[0]), mix(h(157), h(158), fr[0]), fr[1]),
		mix(mix(h(113), h(114), fr[0]), mix(h(270), h(271), fr[0]), fr[1]),
		fr[2])
}

func flowFieldSimulation(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord
	tx := texel(f)
	if f.Time < 0.5 {
		return mgl32.Vec4{0, 0, 0, 1}
	}

	var trail float32
	for _, o := range neighbourhood {
		trail += sample(f, uv.Add(mul2(o, tx)))[3]
	}
	trail = trail / 9 * 0.98

	p := uv.Mul(5)
	angle := noise3(mgl32.Vec3{p[0], p[1], f.Time * 0.05}) * 6.2831 * 4
	dir := mgl32.Vec2{math32.Cos(angle), math32.Sin(angle)}
	advected := sample(f, uv.Sub(mul2(dir, tx).Mul(3)))[3]

	var spawn float32
	if hash(addScalar2(uv, f.Time)) > 0.999 {
		spawn = 1
	}
	density := math32.Max(trail, mix(advected, spawn, 0.2))

	col := cosWave(angle+f.Time, rgbPhase).Mul(density)
	col = col.Add(mgl32.Vec3{0.02, 0.01, 0.05})
	return col.Vec4(density)
}
