package softgpu

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Surface is a 4×float32 texture, rows stored bottom to top.
type Surface struct {
	w, h int
	pix  []float32
}

func newSurface(w, h int) *Surface {
	return &Surface{w: w, h: h, pix: make([]float32, w*h*4)}
}

func (s *Surface) Size() (int, int) { return s.w, s.h }

func (s *Surface) Release() { s.pix = nil }

func (s *Surface) load(i int) mgl32.Vec4 {
	p := s.pix[i*4 : i*4+4 : i*4+4]
	return mgl32.Vec4{p[0], p[1], p[2], p[3]}
}

func (s *Surface) store(i int, c mgl32.Vec4) {
	copy(s.pix[i*4:i*4+4], c[:])
}

func (s *Surface) clone() *Surface {
	c := newSurface(s.w, s.h)
	copy(c.pix, s.pix)
	return c
}

// sampler reads the surface with linear filtering and repeat wrapping.
func (s *Surface) sampler() *sampler {
	return &sampler{s: s}
}

// Framebuffer is an 8-bit RGBA presentation target, the software stand-in
// for a window's default framebuffer.
type Framebuffer struct {
	w, h int
	pix  []uint8
}

// NewFramebuffer allocates a cleared framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

func (fb *Framebuffer) Size() (int, int) { return fb.w, fb.h }

// Resize reallocates the framebuffer; contents are discarded.
func (fb *Framebuffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	fb.w, fb.h = width, height
	fb.pix = make([]uint8, width*height*4)
}

func (fb *Framebuffer) load(i int) mgl32.Vec4 {
	p := fb.pix[i*4 : i*4+4 : i*4+4]
	return mgl32.Vec4{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func (fb *Framebuffer) store(i int, c mgl32.Vec4) {
	p := fb.pix[i*4 : i*4+4 : i*4+4]
	for k := range p {
		p[k] = unorm8(c[k])
	}
}

// unorm8 converts a color component the way a fixed-point render target does.
func unorm8(v float32) uint8 {
	if math32.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math32.Floor(v*255 + 0.5))
}

// Sample positions within snapEpsilon of a texel centre read that texel
// exactly, so neighbourhood lookups at ±1 texel return stored state unchanged.
const snapEpsilon = 1e-3

type sampler struct {
	s *Surface
}

type zeroSampler struct{}

func (zeroSampler) Texture(mgl32.Vec2) mgl32.Vec4 { return mgl32.Vec4{} }

func snap(v float32) (int, float32) {
	f := math32.Floor(v)
	fr := v - f
	switch {
	case fr < snapEpsilon:
		return int(f), 0
	case fr > 1-snapEpsilon:
		return int(f) + 1, 0
	}
	return int(f), fr
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (sm *sampler) texel(x, y int) mgl32.Vec4 {
	s := sm.s
	return s.load(wrap(y, s.h)*s.w + wrap(x, s.w))
}

// Texture samples at uv with bilinear filtering and repeat wrapping.
func (sm *sampler) Texture(uv mgl32.Vec2) mgl32.Vec4 {
	x0, fx := snap(uv[0]*float32(sm.s.w) - 0.5)
	y0, fy := snap(uv[1]*float32(sm.s.h) - 0.5)

	c00 := sm.texel(x0, y0)
	if fx == 0 && fy == 0 {
		return c00
	}
	if fy == 0 {
		return lerp4(c00, sm.texel(x0+1, y0), fx)
	}
	if fx == 0 {
		return lerp4(c00, sm.texel(x0, y0+1), fy)
	}
	bottom := lerp4(c00, sm.texel(x0+1, y0), fx)
	top := lerp4(sm.texel(x0, y0+1), sm.texel(x0+1, y0+1), fx)
	return lerp4(bottom, top, fy)
}

func lerp4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
