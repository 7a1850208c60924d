// Package glbackend implements graphics.Device on OpenGL 4.1 core. Every
// call must come from the thread that owns the current GL context.
package glbackend

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/shader"
	"github.com/richinsley/goartstudio/translator"
)

var (
	initOnce sync.Once
	initErr  error
)

// initGL loads the GL entry points. It needs a current context.
func initGL() error {
	initOnce.Do(func() {
		initErr = gl.Init()
	})
	return initErr
}

// Two triangles covering clip space.
var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

type Device struct {
	logger  *zap.Logger
	gles    bool
	quadVAO uint32
	quadVBO uint32

	copyProgram uint32
	copyTexLoc  int32
}

type Option func(*Device)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) { d.logger = logger }
}

// WithGLES selects ESSL output from the translator and ES vertex stages.
func WithGLES(gles bool) Option {
	return func(d *Device) { d.gles = gles }
}

// New creates the shared quad and the copy program on the current context.
func New(opts ...Option) (*Device, error) {
	d := &Device{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	if err := initGL(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d.logger.Info("OpenGL initialized", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	gl.GenVertexArrays(1, &d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindVertexArray(d.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	var err error
	d.copyProgram, err = newProgram(shader.GenerateVertexShader(d.gles), shader.GetCopyFragmentShader(d.gles))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create copy program: %w", err)
	}
	d.copyTexLoc = uniformLocation(d.copyProgram, shader.CopyTextureUniform)
	return d, nil
}

var _ graphics.Device = (*Device)(nil)

// Close releases the quad and the copy program.
func (d *Device) Close() {
	if d.copyProgram != 0 {
		gl.DeleteProgram(d.copyProgram)
		d.copyProgram = 0
	}
	if d.quadVBO != 0 {
		gl.DeleteBuffers(1, &d.quadVBO)
		d.quadVBO = 0
	}
	if d.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &d.quadVAO)
		d.quadVAO = 0
	}
}

// CompileProgram translates the WebGL2 fragment text for this context,
// links it with the quad vertex stage and resolves the uniform locations of
// the named inputs.
func (d *Device) CompileProgram(src graphics.Source) (graphics.Program, error) {
	frag, err := translator.TranslateFragment(src.Name, src.Code, d.gles)
	if err != nil {
		return nil, err
	}
	id, err := newProgram(shader.GenerateVertexShaderFor(frag.Texcoord, d.gles), frag.Code)
	if err != nil {
		return nil, &graphics.CompileError{Program: src.Name, Log: err.Error()}
	}

	p := &program{
		name:   src.Name,
		id:     id,
		inputs: frag.Inputs,
		loc:    make(map[graphics.Input]int32, len(frag.Mapped)),
	}
	for in, mapped := range frag.Mapped {
		p.loc[in] = uniformLocation(id, mapped)
	}
	d.logger.Debug("program compiled", zap.String("name", p.name), zap.Stringer("inputs", p.inputs))
	return p, nil
}

func (d *Device) NewFloatSurface(width, height int) (graphics.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	fbo, tex, err := newColorTarget(width, height, gl.RGBA32F, gl.FLOAT, gl.REPEAT)
	if err != nil {
		return nil, err
	}
	return &Surface{fb: fbo, texture: tex, width: width, height: height}, nil
}

// NewOffscreen allocates an RGBA8 target for rendering without a window.
func (d *Device) NewOffscreen(width, height int) (*Offscreen, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	fbo, tex, err := newColorTarget(width, height, gl.RGBA8, gl.UNSIGNED_BYTE, gl.CLAMP_TO_EDGE)
	if err != nil {
		return nil, err
	}
	return &Offscreen{fb: fbo, texture: tex, width: width, height: height}, nil
}

func (d *Device) ClearSurface(s graphics.Surface) {
	d.Clear(s, graphics.Color{})
}

func (d *Device) Clear(t graphics.Target, c graphics.Color) {
	d.bind(t)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Draw runs p over the full-screen quad into t. Only uniforms the program
// declares are set; prev is bound to texture unit 0 as prev_frame.
func (d *Device) Draw(t graphics.Target, p graphics.Program, u graphics.Uniforms, prev graphics.Surface) {
	prog, ok := p.(*program)
	if !ok || prog.id == 0 {
		d.logger.Warn("draw with a program this device did not compile")
		return
	}
	d.bind(t)
	gl.UseProgram(prog.id)

	if l := prog.location(graphics.InputTime); l >= 0 {
		gl.Uniform1f(l, u.Time)
	}
	if l := prog.location(graphics.InputResolution); l >= 0 {
		gl.Uniform2f(l, u.Resolution[0], u.Resolution[1])
	}
	if l := prog.location(graphics.InputZoom); l >= 0 {
		gl.Uniform1f(l, u.Zoom)
	}
	if l := prog.location(graphics.InputOffset); l >= 0 {
		gl.Uniform2f(l, u.Offset[0], u.Offset[1])
	}
	bound := false
	if l := prog.location(graphics.InputPrevFrame); l >= 0 && prev != nil {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, mustSurface(prev).texture)
		gl.Uniform1i(l, 0)
		bound = true
	}

	d.drawQuad()

	if bound {
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.UseProgram(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Copy presents src's RGB channels into t with alpha forced to one.
func (d *Device) Copy(t graphics.Target, src graphics.Surface) {
	d.bind(t)
	gl.UseProgram(d.copyProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, mustSurface(src).texture)
	gl.Uniform1i(d.copyTexLoc, 0)

	d.drawQuad()

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadPixels reads the lower-left width×height region of t as RGB bytes,
// bottom row first. ES contexts only guarantee RGBA reads from 8-bit color
// buffers, so they read RGBA and drop alpha.
func (d *Device) ReadPixels(t graphics.Target, width, height int) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid read size %dx%d", width, height)
	}
	pixels := make([]byte, width*height*3)
	if len(pixels) == 0 {
		return pixels, nil
	}
	clearErrors()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, mustFramebuffer(t).fbo())
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	if d.gles {
		rgba := make([]byte, width*height*4)
		gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&rgba[0]))
		packRGB(pixels, rgba)
	} else {
		gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("glReadPixels failed: 0x%x", e)
	}
	return pixels, nil
}

// packRGB copies the RGB channels of rgba into rgb.
func packRGB(rgb, rgba []byte) {
	for i, j := 0, 0; j+3 < len(rgba) && i+2 < len(rgb); i, j = i+3, j+4 {
		rgb[i], rgb[i+1], rgb[i+2] = rgba[j], rgba[j+1], rgba[j+2]
	}
}

// clearErrors drops errors left by earlier calls so the next check reports
// only the read.
func clearErrors() {
	for i := 0; i < 8 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

// ReadSurface reads through the surface's framebuffer so it also works on
// ES contexts, which lack glGetTexImage.
func (d *Device) ReadSurface(s graphics.Surface) ([]float32, error) {
	sf := mustSurface(s)
	out := make([]float32, sf.width*sf.height*4)
	clearErrors()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, sf.fbo())
	gl.ReadPixels(0, 0, int32(sf.width), int32(sf.height), gl.RGBA, gl.FLOAT, gl.Ptr(&out[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("glReadPixels(GL_FLOAT) failed: 0x%x", e)
	}
	return out, nil
}

func (d *Device) bind(t graphics.Target) {
	fb := mustFramebuffer(t)
	w, h := fb.Size()
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo())
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (d *Device) drawQuad() {
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

func mustFramebuffer(t graphics.Target) framebuffer {
	fb, ok := t.(framebuffer)
	if !ok {
		panic(fmt.Sprintf("glbackend: target %T was not created by this device", t))
	}
	return fb
}

func mustSurface(s graphics.Surface) *Surface {
	sf, ok := s.(*Surface)
	if !ok {
		panic(fmt.Sprintf("glbackend: surface %T was not created by this device", s))
	}
	return sf
}
