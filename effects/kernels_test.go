package effects

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goartstudio/graphics"
)

type constSampler mgl32.Vec4

func (c constSampler) Texture(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4(c) }

func TestKernelCoverage(t *testing.T) {
	lib := newLibrary(t)
	withKernel := []string{
		"Default", "Mandelbrot", "Julia", "Burning Ship", "Noise", "Kaleidoscope", "Spiral",
		"Geometric", "Cosmic", "Voronoi", "Game of Life", "Reaction Diffusion", "Flame",
		"GPU Fire", "Smoke / Ink", "Droplet Ripples", "Flow Field Simulation", "Slime Mold",
	}
	for _, name := range withKernel {
		e, err := lib.Get(name)
		require.NoError(t, err)
		assert.NotNil(t, e.Kernel, name)
	}
	for name := range kernels {
		_, err := lib.Get(name)
		assert.NoError(t, err, "kernel registered for unknown effect %q", name)
	}
}

func TestDefaultKernelCentre(t *testing.T) {
	got := defaultGradient(&graphics.Fragment{
		TexCoord:   mgl32.Vec2{0.5, 0.5},
		Resolution: mgl32.Vec2{800, 600},
		Zoom:       1,
	})
	assert.InDelta(t, 1.0, got[0], 1e-6)
	assert.InDelta(t, 0.5+0.5*math32.Cos(2), got[1], 1e-6)
	assert.InDelta(t, 0.5+0.5*math32.Cos(4), got[2], 1e-6)
	assert.Equal(t, float32(1), got[3])
}

func TestSinglePassKernelsAreOpaque(t *testing.T) {
	lib := newLibrary(t)
	for _, name := range lib.Names() {
		e, _ := lib.Get(name)
		if e.Kernel == nil || e.Meta.UsesFeedback {
			continue
		}
		for _, tc := range []mgl32.Vec2{{0.1, 0.2}, {0.5, 0.5}, {0.9, 0.7}} {
			c := e.Kernel(&graphics.Fragment{TexCoord: tc, Time: 1.5, Resolution: mgl32.Vec2{64, 48}, Zoom: 1})
			assert.Equal(t, float32(1), c[3], name)
		}
	}
}

func TestReactionDiffusionRestState(t *testing.T) {
	// U = 1, V = 0 everywhere is a fixed point: no reaction and a flat laplacian.
	f := &graphics.Fragment{
		TexCoord:   mgl32.Vec2{0.3, 0.6},
		Time:       1,
		Resolution: mgl32.Vec2{32, 32},
		Prev:       constSampler{0.2, 0.4, 1, 0},
	}
	got := reactionDiffusion(f)
	assert.InDelta(t, 1.0, got[2], 1e-6)
	assert.InDelta(t, 0.0, got[3], 1e-6)
}

func TestReactionDiffusionSeed(t *testing.T) {
	f := &graphics.Fragment{TexCoord: mgl32.Vec2{0.5, 0.5}, Resolution: mgl32.Vec2{32, 32}}
	got := reactionDiffusion(f)
	assert.Equal(t, float32(1), got[2])
	assert.GreaterOrEqual(t, got[3], float32(0))
	assert.LessOrEqual(t, got[3], float32(1))
}

func TestDropletRipplesShiftsHeight(t *testing.T) {
	f := &graphics.Fragment{
		TexCoord:   mgl32.Vec2{0.25, 0.25},
		Time:       2,
		Resolution: mgl32.Vec2{16, 16},
		Prev:       constSampler{0, 0, 0.25, 0.5},
	}
	got := dropletRipples(f)
	// B carries the current height forward as the previous one
	assert.Equal(t, float32(0.5), got[2])
	if got[3] != 1 {
		assert.InDelta(t, (4*0.5*0.5-0.25)*0.98, got[3], 1e-6)
	}
}

func TestSlimeMoldPacking(t *testing.T) {
	for _, trail := range []float32{0, 0.25, 0.5, 1} {
		for _, heading := range []float32{0, 0.1, 0.5, 0.93} {
			a := packTrail(trail, heading)
			gotTrail, gotHeading := unpackTrail(a)
			assert.InDelta(t, trail, gotTrail, 1.0/1023)
			assert.InDelta(t, heading, gotHeading, 1e-3)
		}
	}
	// headings wrap into [0, 1)
	_, h := unpackTrail(packTrail(0.5, -0.07))
	assert.InDelta(t, 0.93, h, 1e-3)
}

func TestSlimeMoldSeed(t *testing.T) {
	f := &graphics.Fragment{TexCoord: mgl32.Vec2{0.4, 0.6}, Resolution: mgl32.Vec2{32, 32}}
	got := slimeMold(f)
	assert.Equal(t, float32(0), got[0])
	assert.Equal(t, float32(0), got[1])
	trail, _ := unpackTrail(got[3])
	assert.Equal(t, float32(0), trail)
}

func TestFeedbackKernelsStayFinite(t *testing.T) {
	lib := newLibrary(t)
	for _, name := range feedbackEffects {
		e, _ := lib.Get(name)
		if e.Kernel == nil {
			continue
		}
		for _, tm := range []float32{0, 1, 7.5} {
			c := e.Kernel(&graphics.Fragment{
				TexCoord:   mgl32.Vec2{0.5, 0.05},
				Time:       tm,
				Resolution: mgl32.Vec2{32, 32},
				Prev:       constSampler{0.1, 0.2, 0.3, 0.4},
			})
			for i := range c {
				assert.False(t, math32.IsNaN(c[i]) || math32.IsInf(c[i], 0), "%s component %d at t=%v", name, i, tm)
			}
		}
	}
}
