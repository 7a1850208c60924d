// Package viewer owns the parameter and mode state of the interactive
// viewer and turns it into one rendered frame per tick.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
	"github.com/richinsley/goartstudio/effects"
	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/recording"
	"github.com/richinsley/goartstudio/renderer"
)

// TickInterval is the fixed frame interval of Run.
const TickInterval = time.Second / 60

// State is the user-controlled view state. Setters take effect at the next
// tick.
type State struct {
	Effect      string
	IsFeedback  bool
	Zoom        float32
	Offset      mgl32.Vec2
	AutoAnimate bool
	Recording   bool
	Width       int
	Height      int
}

// resizable targets follow viewport changes.
type resizable interface {
	Resize(width, height int)
}

type Viewer struct {
	logger   *zap.Logger
	lib      *effects.Library
	renderer *renderer.Renderer
	target   graphics.Target
	session  *recording.Session
	now      func() time.Time

	state     State
	startTime time.Time
	frames    int

	reloads chan string
	watch   *watcher
}

type options struct {
	logger       *zap.Logger
	cfg          *config.Config
	now          func() time.Time
	feedbackSize int
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConfig sets the initial effect and view parameters.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithFeedbackSize overrides the feedback surface size, which is otherwise
// renderer.DefaultFeedbackSize.
func WithFeedbackSize(size int) Option {
	return func(o *options) { o.feedbackSize = size }
}

// New builds a viewer drawing into target and selects the configured
// effect.
func New(device graphics.Device, target graphics.Target, lib *effects.Library, opts ...Option) (*Viewer, error) {
	o := options{
		logger: zap.NewNop(),
		cfg:    config.DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	session := recording.NewSession(
		recording.WithLogger(o.logger),
		recording.WithFPS(o.cfg.Record.FPS),
		recording.WithFFmpegPath(o.cfg.Record.FFmpegPath))

	ropts := []renderer.Option{renderer.WithLogger(o.logger)}
	if o.feedbackSize != 0 {
		ropts = append(ropts, renderer.WithFeedbackSize(o.feedbackSize))
	}
	r, err := renderer.New(device, ropts...)
	if err != nil {
		return nil, err
	}

	w, h := target.Size()
	v := &Viewer{
		logger:   o.logger,
		lib:      lib,
		renderer: r,
		target:   target,
		session:  session,
		now:      o.now,
		state: State{
			Zoom:        clampZoom(o.cfg.Zoom),
			Offset:      clampOffset(mgl32.Vec2(o.cfg.Offset)),
			AutoAnimate: o.cfg.AutoAnimate,
			Width:       w,
			Height:      h,
		},
		reloads: make(chan string, 16),
	}
	v.startTime = v.now()

	if ok, msg := v.SelectEffect(o.cfg.Effect); !ok {
		r.Close()
		return nil, fmt.Errorf("failed to select %q: %s", o.cfg.Effect, msg)
	}
	return v, nil
}

// State returns a copy of the current view state.
func (v *Viewer) State() State { return v.state }

func (v *Viewer) Renderer() *renderer.Renderer { return v.renderer }

func (v *Viewer) Session() *recording.Session { return v.session }

// Elapsed is the effect time at now.
func (v *Viewer) Elapsed(now time.Time) float32 {
	return float32(now.Sub(v.startTime).Seconds())
}

// SelectEffect compiles the named effect and makes it active. Feedback
// effects restart at time zero from a cleared state. On failure the
// previous effect keeps running and the diagnostic is returned.
func (v *Viewer) SelectEffect(name string) (bool, string) {
	e, err := v.lib.Get(name)
	if err != nil {
		v.logger.Warn("effect selection failed", zap.String("effect", name), zap.Error(err))
		return false, err.Error()
	}
	return v.SetProgram(e.ProgramSource(), e.Meta.UsesFeedback)
}

// SetProgram compiles src and makes it the current effect, running in
// feedback mode when isFeedback is set. Feedback programs restart at time
// zero from a cleared state. On failure nothing changes and the diagnostic
// is returned.
func (v *Viewer) SetProgram(src graphics.Source, isFeedback bool) (bool, string) {
	if err := v.renderer.SetProgram(src); err != nil {
		v.logger.Warn("program compile failed", zap.String("effect", src.Name), zap.Error(err))
		return false, err.Error()
	}
	v.state.Effect = src.Name
	v.state.IsFeedback = isFeedback
	if isFeedback {
		v.startTime = v.now()
		v.renderer.ResetFeedback()
	}
	v.logger.Info("effect selected", zap.String("effect", src.Name), zap.Bool("feedback", isFeedback))
	return true, ""
}

func (v *Viewer) SetZoom(zoom float32) { v.state.Zoom = clampZoom(zoom) }

func (v *Viewer) SetOffset(offset mgl32.Vec2) { v.state.Offset = clampOffset(offset) }

func (v *Viewer) SetAutoAnimate(on bool) { v.state.AutoAnimate = on }

// Resize sets the viewport size in physical pixels.
func (v *Viewer) Resize(width, height int) {
	if width == v.state.Width && height == v.state.Height {
		return
	}
	v.state.Width, v.state.Height = width, height
	if r, ok := v.target.(resizable); ok {
		r.Resize(width, height)
	}
	v.logger.Debug("viewport resized", zap.Int("width", width), zap.Int("height", height))
}

// Tick applies queued reloads and renders one frame for now. While
// recording, the presented frame is read back and captured.
func (v *Viewer) Tick(now time.Time) {
	v.applyReloads()

	t := v.Elapsed(now)
	zoom, offset := v.state.Zoom, v.state.Offset
	if v.state.AutoAnimate {
		zoom, offset = renderer.Animate(zoom, offset, t)
	}
	w, h := v.state.Width, v.state.Height
	v.renderer.Render(t, [2]int{w, h}, zoom, offset, v.target, v.state.IsFeedback)
	v.frames++

	if !v.session.Active() {
		return
	}
	pixels, err := v.renderer.ReadPresentedPixels(v.target, w, h)
	if err != nil {
		v.logger.Warn("frame readback failed", zap.Error(err))
		return
	}
	if v.session.Capture(pixels, w, h) && v.session.Len()%60 == 0 {
		v.logger.Info("recording", zap.Int("frames", v.session.Len()))
	}
}

func (v *Viewer) StartRecording() {
	v.session.Start()
	v.state.Recording = true
}

func (v *Viewer) StopRecording() {
	v.session.Stop()
	v.state.Recording = false
}

// SaveRecording exports the captured frames to path.
func (v *Viewer) SaveRecording(ctx context.Context, path string) error {
	return v.session.Save(ctx, path)
}

// Run ticks at TickInterval until the window closes or ctx is done.
func (v *Viewer) Run(ctx context.Context, win graphics.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for !win.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		v.Resize(win.GetFramebufferSize())
		v.Tick(v.now())
		win.EndFrame()
	}
	return nil
}

// Close stops watching and releases the renderer.
func (v *Viewer) Close() {
	if v.watch != nil {
		v.watch.close()
		v.watch = nil
	}
	v.renderer.Close()
}
