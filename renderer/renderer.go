// Package renderer is the frame driver: it owns the active effect program and
// the feedback surfaces, and renders one frame per call in either single-pass
// or feedback mode.
package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/graphics"
)

// DefaultFeedbackSize is the edge length of the square feedback surfaces.
const DefaultFeedbackSize = 1024

// ClearColor fills the target before a single-pass draw.
var ClearColor = graphics.Color{0.1, 0.2, 0.3, 1.0}

type options struct {
	feedbackSize int
	logger       *zap.Logger
}

// Option configures a Renderer.
type Option func(*options)

// WithFeedbackSize overrides the feedback surface size. The size is fixed for
// the lifetime of the renderer.
func WithFeedbackSize(size int) Option {
	return func(o *options) { o.feedbackSize = size }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Renderer drives a graphics.Device. It is not safe for concurrent use; all
// calls come from the render thread.
type Renderer struct {
	device   graphics.Device
	logger   *zap.Logger
	program  graphics.Program
	feedback *FeedbackPair
}

// New allocates the feedback pair on device. No program is active until
// SetProgram succeeds.
func New(device graphics.Device, opts ...Option) (*Renderer, error) {
	o := options{
		feedbackSize: DefaultFeedbackSize,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.feedbackSize <= 0 {
		return nil, fmt.Errorf("invalid feedback size %d", o.feedbackSize)
	}

	pair, err := NewFeedbackPair(device, o.feedbackSize)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		device:   device,
		logger:   o.logger,
		feedback: pair,
	}, nil
}

// SetProgram compiles src and makes it the active program. On failure the
// previous program stays active and the *graphics.CompileError is returned.
func (r *Renderer) SetProgram(src graphics.Source) error {
	p, err := r.device.CompileProgram(src)
	if err != nil {
		r.logger.Warn("program compile failed, keeping previous program",
			zap.String("name", src.Name), zap.Error(err))
		return err
	}
	if r.program != nil {
		r.program.Release()
	}
	r.program = p
	r.logger.Info("program active", zap.String("name", p.Name()), zap.Stringer("inputs", p.Inputs()))
	return nil
}

// SetProgramSource compiles bare fragment text.
func (r *Renderer) SetProgramSource(code string) error {
	return r.SetProgram(graphics.Source{Code: code})
}

// Program returns the active program, or nil.
func (r *Renderer) Program() graphics.Program { return r.program }

// Render draws one frame into target. In single-pass mode the program runs
// directly over the cleared target with the target resolution. In feedback
// mode it runs into the non-current feedback slot, sampling the current one
// as prev_frame at the feedback resolution, and the result is presented
// through the copy pass before the slots swap. The mode is the caller's
// decision and is not inferred from the program.
func (r *Renderer) Render(time float32, resolution [2]int, zoom float32, offset mgl32.Vec2, target graphics.Target, isFeedback bool) {
	if r.program == nil {
		r.logger.Debug("render skipped, no program")
		return
	}

	u := graphics.Uniforms{
		Time:   time,
		Zoom:   zoom,
		Offset: [2]float32(offset),
	}

	if !isFeedback {
		u.Resolution = [2]float32{float32(resolution[0]), float32(resolution[1])}
		r.device.Clear(target, ClearColor)
		r.device.Draw(target, r.program, u, nil)
		return
	}

	size := float32(r.feedback.Size())
	u.Resolution = [2]float32{size, size}
	next := r.feedback.Write()
	r.device.Draw(next, r.program, u, r.feedback.Read())
	r.device.Copy(target, next)
	r.feedback.Swap()
}

// ReadPresentedPixels returns width×height×3 RGB bytes from target, bottom row
// first.
func (r *Renderer) ReadPresentedPixels(target graphics.Target, width, height int) ([]byte, error) {
	return r.device.ReadPixels(target, width, height)
}

// CurrentSlot is the feedback slot holding the most recent feedback frame.
func (r *Renderer) CurrentSlot() int { return r.feedback.Current() }

func (r *Renderer) FeedbackSize() int { return r.feedback.Size() }

// ResetFeedback zeroes both feedback surfaces and makes slot 0 current.
func (r *Renderer) ResetFeedback() {
	r.feedback.Reset(r.device)
}

// ReadFeedbackState returns the raw RGBA texels of the current slot, bottom
// row first.
func (r *Renderer) ReadFeedbackState() ([]float32, error) {
	return r.device.ReadSurface(r.feedback.Read())
}

// Close releases the program and the feedback surfaces.
func (r *Renderer) Close() {
	if r.program != nil {
		r.program.Release()
		r.program = nil
	}
	r.feedback.Release()
}
