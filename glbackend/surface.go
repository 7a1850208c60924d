package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// framebuffer is any target this device can bind for drawing.
type framebuffer interface {
	Size() (int, int)
	fbo() uint32
}

// Surface is a feedback surface: an RGBA32F texture behind its own FBO,
// sampled with linear filtering and repeat wrapping.
type Surface struct {
	fb      uint32
	texture uint32
	width   int
	height  int
}

func (s *Surface) Size() (int, int) { return s.width, s.height }
func (s *Surface) fbo() uint32       { return s.fb }

func (s *Surface) Release() {
	if s.fb != 0 {
		gl.DeleteFramebuffers(1, &s.fb)
		gl.DeleteTextures(1, &s.texture)
		s.fb, s.texture = 0, 0
	}
}

// Offscreen is an 8-bit RGBA render target for headless recording.
type Offscreen struct {
	fb      uint32
	texture uint32
	width   int
	height  int
}

func (o *Offscreen) Size() (int, int) { return o.width, o.height }
func (o *Offscreen) fbo() uint32       { return o.fb }

func (o *Offscreen) Release() {
	if o.fb != 0 {
		gl.DeleteFramebuffers(1, &o.fb)
		gl.DeleteTextures(1, &o.texture)
		o.fb, o.texture = 0, 0
	}
}

// Screen is the window's default framebuffer. Its size follows the
// framebuffer-size notifications of the window.
type Screen struct {
	width  int
	height int
}

func NewScreen(width, height int) *Screen {
	return &Screen{width: width, height: height}
}

func (s *Screen) Size() (int, int) { return s.width, s.height }
func (s *Screen) fbo() uint32       { return 0 }

// Resize records the new physical framebuffer size.
func (s *Screen) Resize(width, height int) {
	s.width, s.height = width, height
}

// newColorTarget allocates a texture of the given format with an FBO
// attached to it.
func newColorTarget(width, height int, internalFormat int32, pixelType uint32, wrap int32) (fbo, texture uint32, err error) {
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(width), int32(height), 0, gl.RGBA, pixelType, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		gl.DeleteTextures(1, &texture)
		return 0, 0, fmt.Errorf("framebuffer is not complete: %s", framebufferStatus(status))
	}
	return fbo, texture, nil
}

func framebufferStatus(status uint32) string {
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return "complete"
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return "incomplete attachment"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return "missing attachment"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return "unsupported format"
	}
	return fmt.Sprintf("status 0x%x", status)
}
