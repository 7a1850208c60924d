// Package softgpu is a CPU implementation of graphics.Device. It runs the
// kernel attached to each program instead of its fragment text, which makes
// rendering available without a GPU context: headless recording and tests.
package softgpu

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/translator"
)

// ErrNoKernel is returned by CompileProgram for sources without a CPU kernel.
var ErrNoKernel = errors.New("no CPU kernel")

// canvas is the storage behind every target this device can draw into.
type canvas interface {
	graphics.Target
	load(i int) mgl32.Vec4
	store(i int, c mgl32.Vec4)
}

// Device renders on the CPU, one goroutine per row batch.
type Device struct {
	logger  *zap.Logger
	workers int
}

// Option configures a Device.
type Option func(*Device)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) { d.logger = logger }
}

// WithWorkers bounds the number of rows shaded concurrently.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// New returns a software device.
func New(opts ...Option) *Device {
	d := &Device{
		logger:  zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ graphics.Device = (*Device)(nil)

type program struct {
	name   string
	inputs graphics.InputSet
	kernel graphics.Kernel
}

func (p *program) Name() string               { return p.name }
func (p *program) Inputs() graphics.InputSet { return p.inputs }
func (p *program) Release()                   { p.kernel = nil }

// CompileProgram validates the fragment text with the shader translator,
// takes its named inputs from the translation and binds the CPU kernel.
func (d *Device) CompileProgram(src graphics.Source) (graphics.Program, error) {
	frag, err := translator.TranslateFragment(src.Name, src.Code, true)
	if err != nil {
		return nil, err
	}
	if src.Kernel == nil {
		return nil, fmt.Errorf("%w: %w", ErrNoKernel, &graphics.CompileError{
			Program: src.Name,
			Log:     "effect is GPU-only",
		})
	}
	p := &program{
		name:   src.Name,
		inputs: frag.Inputs,
		kernel: src.Kernel,
	}
	d.logger.Debug("program compiled", zap.String("name", p.name), zap.Stringer("inputs", p.inputs))
	return p, nil
}

func (d *Device) NewFloatSurface(width, height int) (graphics.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	return newSurface(width, height), nil
}

func (d *Device) ClearSurface(s graphics.Surface) {
	d.Clear(s, graphics.Color{})
}

func (d *Device) Clear(t graphics.Target, c graphics.Color) {
	cv := mustCanvas(t)
	w, h := cv.Size()
	col := mgl32.Vec4(c)
	for i := 0; i < w*h; i++ {
		cv.store(i, col)
	}
}

// Draw shades every pixel of t with p's kernel. Uniforms the program does not
// declare are left zero.
func (d *Device) Draw(t graphics.Target, p graphics.Program, u graphics.Uniforms, prev graphics.Surface) {
	prog, ok := p.(*program)
	if !ok || prog.kernel == nil {
		d.logger.Warn("draw with a program this device did not compile")
		return
	}
	cv := mustCanvas(t)
	w, h := cv.Size()

	base := graphics.Fragment{}
	in := prog.inputs
	if in.Has(graphics.InputTime) {
		base.Time = u.Time
	}
	if in.Has(graphics.InputResolution) {
		base.Resolution = mgl32.Vec2(u.Resolution)
	}
	if in.Has(graphics.InputZoom) {
		base.Zoom = u.Zoom
	}
	if in.Has(graphics.InputOffset) {
		base.Offset = mgl32.Vec2(u.Offset)
	}
	if in.Has(graphics.InputPrevFrame) {
		base.Prev = zeroSampler{}
		if prev != nil {
			s := mustSurface(prev)
			if canvas(s) == cv {
				s = s.clone()
			}
			base.Prev = s.sampler()
		}
	}

	d.shade(cv, w, h, func(x, y int) mgl32.Vec4 {
		f := base
		f.TexCoord = texCoord(x, y, w, h)
		return prog.kernel(&f)
	})
}

// Copy presents the RGB channels of src into t with alpha forced to one.
func (d *Device) Copy(t graphics.Target, src graphics.Surface) {
	cv := mustCanvas(t)
	w, h := cv.Size()
	smp := mustSurface(src).sampler()
	d.shade(cv, w, h, func(x, y int) mgl32.Vec4 {
		c := smp.Texture(texCoord(x, y, w, h))
		return mgl32.Vec4{c[0], c[1], c[2], 1}
	})
}

func (d *Device) shade(cv canvas, w, h int, fn func(x, y int) mgl32.Vec4) {
	var g errgroup.Group
	g.SetLimit(d.workers)
	for y := 0; y < h; y++ {
		g.Go(func() error {
			row := y * w
			for x := 0; x < w; x++ {
				cv.store(row+x, fn(x, y))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ReadPixels returns the lower-left width×height region of t as RGB bytes,
// bottom row first. Pixels outside t read as zero.
func (d *Device) ReadPixels(t graphics.Target, width, height int) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid read size %dx%d", width, height)
	}
	cv := mustCanvas(t)
	tw, th := cv.Size()
	out := make([]byte, width*height*3)
	for y := 0; y < height && y < th; y++ {
		for x := 0; x < width && x < tw; x++ {
			c := cv.load(y*tw + x)
			o := (y*width + x) * 3
			out[o] = unorm8(c[0])
			out[o+1] = unorm8(c[1])
			out[o+2] = unorm8(c[2])
		}
	}
	return out, nil
}

func (d *Device) ReadSurface(s graphics.Surface) ([]float32, error) {
	src := mustSurface(s)
	out := make([]float32, len(src.pix))
	copy(out, src.pix)
	return out, nil
}

// texCoord is the texture coordinate at the centre of pixel (x, y).
func texCoord(x, y, w, h int) mgl32.Vec2 {
	return mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
}

func mustCanvas(t graphics.Target) canvas {
	cv, ok := t.(canvas)
	if !ok {
		panic(fmt.Sprintf("softgpu: target %T was not created by this device", t))
	}
	return cv
}

func mustSurface(s graphics.Surface) *Surface {
	sf, ok := s.(*Surface)
	if !ok {
		panic(fmt.Sprintf("softgpu: surface %T was not created by this device", s))
	}
	return sf
}
