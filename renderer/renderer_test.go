package renderer

import (
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goartstudio/effects"
	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/softgpu"
)

const testFeedbackSize = 16

const counterSource = `#version 300 es
precision highp float;
uniform sampler2D prev_frame;
in vec2 v_texcoord;
out vec4 f_color;
void main() {
    vec4 prev = texture(prev_frame, v_texcoord);
    f_color = vec4(0.1, 0.2, 0.3, prev.a + 1.0);
}
`

// counter adds one to the alpha state every frame and paints a fixed color.
func counter(f *graphics.Fragment) mgl32.Vec4 {
	prev := f.Prev.Texture(f.TexCoord)
	return mgl32.Vec4{0.1, 0.2, 0.3, prev[3] + 1}
}

func newRenderer(t *testing.T) (*Renderer, *softgpu.Device) {
	t.Helper()
	dev := softgpu.New()
	r, err := New(dev, WithFeedbackSize(testFeedbackSize))
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, dev
}

func useEffect(t *testing.T, r *Renderer, name string) *effects.Effect {
	t.Helper()
	lib, err := effects.NewLibrary()
	require.NoError(t, err)
	e, err := lib.Get(name)
	require.NoError(t, err)
	require.NoError(t, r.SetProgram(e.ProgramSource()))
	return e
}

func TestRenderWithoutProgramIsNoop(t *testing.T) {
	r, dev := newRenderer(t)
	fb := softgpu.NewFramebuffer(4, 4)
	r.Render(1, [2]int{4, 4}, 1, mgl32.Vec2{}, fb, true)
	r.Render(1, [2]int{4, 4}, 1, mgl32.Vec2{}, fb, false)

	assert.Equal(t, 0, r.CurrentSlot())
	px, err := dev.ReadPixels(fb, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 4*4*3), px)
}

func TestSinglePassIsDeterministic(t *testing.T) {
	r, _ := newRenderer(t)
	useEffect(t, r, "Mandelbrot")

	a, b := softgpu.NewFramebuffer(40, 30), softgpu.NewFramebuffer(40, 30)
	r.Render(2.5, [2]int{40, 30}, 1.2, mgl32.Vec2{0.1, -0.2}, a, false)
	r.Render(2.5, [2]int{40, 30}, 1.2, mgl32.Vec2{0.1, -0.2}, b, false)

	pa, err := r.ReadPresentedPixels(a, 40, 30)
	require.NoError(t, err)
	pb, err := r.ReadPresentedPixels(b, 40, 30)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestDefaultEffectCentrePixel(t *testing.T) {
	r, _ := newRenderer(t)
	useEffect(t, r, "Default")

	fb := softgpu.NewFramebuffer(800, 600)
	r.Render(0, [2]int{800, 600}, 1, mgl32.Vec2{}, fb, false)
	px, err := r.ReadPresentedPixels(fb, 800, 600)
	require.NoError(t, err)
	require.Len(t, px, 800*600*3)

	i := (300*800 + 400) * 3
	want := [3]float32{1, 0.5 + 0.5*math32.Cos(2), 0.5 + 0.5*math32.Cos(4)}
	for c := 0; c < 3; c++ {
		assert.InDelta(t, want[c]*255, float32(px[i+c]), 2, "channel %d", c)
	}
}

func TestSinglePassUsesTargetResolution(t *testing.T) {
	r, _ := newRenderer(t)
	var mu sync.Mutex
	var got mgl32.Vec2
	src := graphics.Source{
		Name: "res",
		Code: "#version 300 es\nprecision highp float;\nuniform vec2 resolution;\nout vec4 c;\nvoid main() { c = vec4(resolution, 0.0, 1.0); }",
		Kernel: func(f *graphics.Fragment) mgl32.Vec4 {
			mu.Lock()
			got = f.Resolution
			mu.Unlock()
			return mgl32.Vec4{}
		},
	}
	require.NoError(t, r.SetProgram(src))

	fb := softgpu.NewFramebuffer(1, 1)
	r.Render(0, [2]int{320, 200}, 1, mgl32.Vec2{}, fb, false)
	assert.Equal(t, mgl32.Vec2{320, 200}, got)

	r.Render(0, [2]int{320, 200}, 1, mgl32.Vec2{}, fb, true)
	assert.Equal(t, mgl32.Vec2{testFeedbackSize, testFeedbackSize}, got)
}

func TestSlotAlternation(t *testing.T) {
	r, _ := newRenderer(t)
	require.NoError(t, r.SetProgram(graphics.Source{Name: "counter", Code: counterSource, Kernel: counter}))

	fb := softgpu.NewFramebuffer(8, 8)
	for n := 1; n <= 9; n++ {
		r.Render(float32(n), [2]int{8, 8}, 1, mgl32.Vec2{}, fb, true)
		assert.Equal(t, n%2, r.CurrentSlot(), "after %d frames", n)
	}
}

func TestSixtyFeedbackFramesEndOnSlotZero(t *testing.T) {
	r, _ := newRenderer(t)
	useEffect(t, r, "Game of Life")

	fb := softgpu.NewFramebuffer(8, 8)
	flips := 0
	for n := 0; n < 60; n++ {
		before := r.CurrentSlot()
		r.Render(float32(n)/60, [2]int{8, 8}, 1, mgl32.Vec2{}, fb, true)
		if r.CurrentSlot() != before {
			flips++
		}
	}
	assert.Equal(t, 60, flips)
	assert.Equal(t, 0, r.CurrentSlot())
}

func TestStateChannelSurvivesHundredFrames(t *testing.T) {
	r, _ := newRenderer(t)
	require.NoError(t, r.SetProgram(graphics.Source{Name: "counter", Code: counterSource, Kernel: counter}))

	fb := softgpu.NewFramebuffer(8, 8)
	const frames = 120
	for n := 0; n < frames; n++ {
		r.Render(float32(n), [2]int{8, 8}, 1, mgl32.Vec2{}, fb, true)
	}

	state, err := r.ReadFeedbackState()
	require.NoError(t, err)
	require.Len(t, state, testFeedbackSize*testFeedbackSize*4)
	for i := 0; i < testFeedbackSize*testFeedbackSize; i++ {
		require.Equal(t, float32(frames), state[i*4+3], "texel %d", i)
	}

	// the copy pass presents RGB only, with alpha forced opaque
	px, err := r.ReadPresentedPixels(fb, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{26, 51, 77}, px[:3])
}

func TestDropletRipplesCarriesHeightForward(t *testing.T) {
	r, _ := newRenderer(t)
	useEffect(t, r, "Droplet Ripples")

	fb := softgpu.NewFramebuffer(4, 4)
	prev, err := r.ReadFeedbackState()
	require.NoError(t, err)
	for n := 0; n < 100; n++ {
		r.Render(1+float32(n)/60, [2]int{4, 4}, 1, mgl32.Vec2{}, fb, true)
		state, err := r.ReadFeedbackState()
		require.NoError(t, err)
		for i := 0; i < len(state)/4; i++ {
			// B of this frame is A of the previous frame
			require.Equal(t, prev[i*4+3], state[i*4+2], "frame %d texel %d", n, i)
		}
		prev = state
	}
}

func TestReactionDiffusionStateStaysBounded(t *testing.T) {
	r, _ := newRenderer(t)
	useEffect(t, r, "Reaction Diffusion")

	fb := softgpu.NewFramebuffer(4, 4)
	for n := 0; n < 100; n++ {
		r.Render(float32(n)/60, [2]int{4, 4}, 1, mgl32.Vec2{}, fb, true)
	}
	state, err := r.ReadFeedbackState()
	require.NoError(t, err)
	for i := 0; i < len(state)/4; i++ {
		u, v := state[i*4+2], state[i*4+3]
		assert.True(t, u >= 0 && u <= 1, "U out of range at %d: %v", i, u)
		assert.True(t, v >= 0 && v <= 1, "V out of range at %d: %v", i, v)
	}
}

func TestFeedbackWithoutPrevFrameStillAdvances(t *testing.T) {
	r, dev := newRenderer(t)
	useEffect(t, r, "Default")

	fb := softgpu.NewFramebuffer(4, 4)
	r.Render(0, [2]int{4, 4}, 1, mgl32.Vec2{}, fb, true)
	assert.Equal(t, 1, r.CurrentSlot())

	px, err := dev.ReadPixels(fb, 4, 4)
	require.NoError(t, err)
	assert.NotEqual(t, make([]byte, len(px)), px)
}

func TestCompileFailureKeepsPreviousProgram(t *testing.T) {
	r, _ := newRenderer(t)
	useEffect(t, r, "Default")
	before := r.Program()

	fb1 := softgpu.NewFramebuffer(16, 16)
	r.Render(1, [2]int{16, 16}, 1, mgl32.Vec2{}, fb1, false)

	err := r.SetProgram(graphics.Source{
		Name:   "Broken",
		Code:   "#version 300 es\nprecision highp float;\nout vec4 c;\nvoid main() { c = vec4(1.0 }\n",
		Kernel: counter,
	})
	require.Error(t, err)
	assert.True(t, graphics.IsCompileError(err))
	assert.Same(t, before, r.Program())

	fb2 := softgpu.NewFramebuffer(16, 16)
	r.Render(1, [2]int{16, 16}, 1, mgl32.Vec2{}, fb2, false)
	p1, _ := r.ReadPresentedPixels(fb1, 16, 16)
	p2, _ := r.ReadPresentedPixels(fb2, 16, 16)
	assert.Equal(t, p1, p2)
}

func TestSetProgramSourceWithoutKernelFailsOnSoftware(t *testing.T) {
	r, _ := newRenderer(t)
	err := r.SetProgramSource(counterSource)
	require.Error(t, err)
	assert.ErrorIs(t, err, softgpu.ErrNoKernel)
	assert.Nil(t, r.Program())
}

func TestResetFeedback(t *testing.T) {
	r, _ := newRenderer(t)
	require.NoError(t, r.SetProgram(graphics.Source{Name: "counter", Code: counterSource, Kernel: counter}))
	fb := softgpu.NewFramebuffer(2, 2)
	for n := 0; n < 3; n++ {
		r.Render(1, [2]int{2, 2}, 1, mgl32.Vec2{}, fb, true)
	}
	require.Equal(t, 1, r.CurrentSlot())

	r.ResetFeedback()
	assert.Equal(t, 0, r.CurrentSlot())
	state, err := r.ReadFeedbackState()
	require.NoError(t, err)
	assert.Equal(t, make([]float32, testFeedbackSize*testFeedbackSize*4), state)
}

func TestDefaultFeedbackSize(t *testing.T) {
	r, err := New(softgpu.New())
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, DefaultFeedbackSize, r.FeedbackSize())

	_, err = New(softgpu.New(), WithFeedbackSize(0))
	assert.Error(t, err)
}
