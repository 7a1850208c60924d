package effects

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goartstudio/graphics"
)

func init() {
	registerKernel("Game of Life", gameOfLife)
	registerKernel("Reaction Diffusion", reactionDiffusion)
	registerKernel("Slime Mold", slimeMold)
}

// neighbourhood is the 3x3 block around the centre texel.
var neighbourhood = [9]mgl32.Vec2{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

func sigmoid(x float32) float32 { return 1 / (1 + math32.Exp(-x*10)) }

func gameOfLife(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord
	tx := texel(f)

	if f.Time < 0.5 || hash(addScalar2(uv, math32.Floor(f.Time*10))) > 0.999 {
		if hash(addScalar2(uv, f.Time)) > 0.995 {
			return mgl32.Vec4{1, 1, 1, 1}
		}
	}

	var neighbors float32
	for _, o := range neighbourhood {
		if o[0] == 0 && o[1] == 0 {
			continue
		}
		neighbors += sample(f, uv.Add(mul2(o, tx)))[3]
	}

	prev := sample(f, uv)
	current := prev[3]

	survival := sigmoid(neighbors-1.5) * (1 - sigmoid(neighbors-3.5))
	birth := sigmoid(neighbors-2.5) * (1 - sigmoid(neighbors-3.5))
	next := mix(birth, survival, current)
	next = mix(current, next, 0.2)

	col := prev.Vec3()
	switch {
	case next > 0.5 && current < 0.5:
		col = cosWave(f.Time, xyx(uv).Add(rgbPhase))
	case next > 0.5:
		col = mix3(prev.Vec3(), cosWave(f.Time*0.1, xyx(uv)), 0.02)
	default:
		col = col.Mul(0.98)
	}
	if neighbors > 0.1 {
		col = col.Add(mgl32.Vec3{0.01, 0.02, 0.03}.Mul(neighbors / 8))
	}
	return col.Vec4(next)
}

// Gray-Scott laplacian weights; the centre is subtracted separately.
var rdStencil = [8]struct {
	offset mgl32.Vec2
	weight float32
}{
	{mgl32.Vec2{-1, 0}, 0.2},
	{mgl32.Vec2{1, 0}, 0.2},
	{mgl32.Vec2{0, -1}, 0.2},
	{mgl32.Vec2{0, 1}, 0.2},
	{mgl32.Vec2{-1, -1}, 0.05},
	{mgl32.Vec2{1, -1}, 0.05},
	{mgl32.Vec2{-1, 1}, 0.05},
	{mgl32.Vec2{1, 1}, 0.05},
}

func reactionDiffusion(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord
	tx := texel(f)

	if f.Time < 0.5 {
		var seed float32
		for i := 0; i < 15; i++ {
			pos := mgl32.Vec2{hash(mgl32.Vec2{float32(i), 1.23}), hash(mgl32.Vec2{float32(i), 4.56})}
			seed += smoothstep(0.04, 0.01, uv.Sub(pos).Len())
		}
		if hash(addScalar2(uv.Mul(13), 7.89)) > 0.98 {
			seed = 1
		}
		return mgl32.Vec4{0, 0, 1, clamp(seed, 0, 1)}
	}

	const du, dv = 0.209, 0.105
	feed := mix(0.015, 0.055, uv[0])
	kill := mix(0.045, 0.068, uv[1])

	state := func(p mgl32.Vec2) mgl32.Vec2 {
		s := sample(f, p)
		return mgl32.Vec2{s[2], s[3]}
	}
	center := state(uv)
	var lap mgl32.Vec2
	for _, s := range rdStencil {
		lap = lap.Add(state(uv.Add(mul2(s.offset, tx))).Mul(s.weight))
	}
	lap = lap.Sub(center)

	u, v := center[0], center[1]
	uvv := u * v * v
	nextU := clamp(u+du*lap[0]-uvv+feed*(1-u), 0, 1)
	nextV := clamp(v+dv*lap[1]+uvv-(feed+kill)*v, 0, 1)

	val := clamp(nextU-nextV, 0, 1)
	col := mix3(mgl32.Vec3{0.05, 0.02, 0.1}, cosWave(f.Time*0.2+val*3, rgbPhase), smoothstep(0.1, 0.4, val))
	col = mix3(col, mgl32.Vec3{1, 1, 0.9}, smoothstep(0.4, 0.8, nextV))

	return mgl32.Vec4{col[0], col[1], nextU, nextV}
}

// Slime Mold keeps the trail level and the agent heading together in alpha:
// the integer part is the trail quantised to 1/1023, the fraction the heading
// in turns scaled by 0.999.

func packTrail(trail, heading float32) float32 {
	return math32.Floor(trail*1023+0.5) + fract(heading)*0.999
}

func unpackTrail(a float32) (trail, heading float32) {
	return math32.Floor(a) / 1023, fract(a) / 0.999
}

func slimeMold(f *graphics.Fragment) mgl32.Vec4 {
	uv := f.TexCoord
	tx := texel(f)

	if f.Time < 0.5 {
		var agent float32
		if hash(uv) > 0.99 {
			agent = 1
		}
		return mgl32.Vec4{0, 0, agent, packTrail(0, hash(addScalar2(uv, 1.23)))}
	}

	trailAt := func(p mgl32.Vec2) float32 {
		t, _ := unpackTrail(sample(f, p)[3])
		return t
	}

	var trail float32
	for _, o := range neighbourhood {
		trail += trailAt(uv.Add(mul2(o, tx)))
	}
	trail = trail / 9 * 0.97

	state := sample(f, uv)
	_, nextHeading := unpackTrail(state[3])
	heading := nextHeading * 6.2831

	const sa, sd = 0.6, 15.0
	sensor := func(a float32) float32 {
		return trailAt(uv.Add(mul2(mgl32.Vec2{math32.Cos(a), math32.Sin(a)}, tx).Mul(sd)))
	}
	c, l, r := sensor(heading), sensor(heading-sa), sensor(heading+sa)

	switch {
	case c > l && c > r:
	case c < l && c < r:
		nextHeading += (hash(addScalar2(uv, f.Time)) - 0.5) * 0.15
	case l > r:
		nextHeading -= 0.07
	case r > l:
		nextHeading += 0.07
	}

	dir := mgl32.Vec2{math32.Cos(nextHeading * 6.2831), math32.Sin(nextHeading * 6.2831)}
	nextAgent := sample(f, uv.Sub(mul2(dir, tx).Mul(2)))[2]
	nextTrail := clamp(trail+nextAgent*0.4, 0, 1)

	if hash(addScalar2(uv, -f.Time*0.2)) > 0.9998 {
		nextAgent = 1
	}

	col := mix3(mgl32.Vec3{0.01, 0, 0.04}, mgl32.Vec3{0, 0.6, 1}, nextTrail)
	col = mix3(col, mgl32.Vec3{0.8, 1, 0.5}, nextAgent)

	return mgl32.Vec4{col[0], col[1], nextAgent, packTrail(nextTrail, nextHeading)}
}
