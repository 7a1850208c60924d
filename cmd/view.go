package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
	"github.com/richinsley/goartstudio/glbackend"
	"github.com/richinsley/goartstudio/glfwcontext"
	"github.com/richinsley/goartstudio/viewer"
)

var viewFlags struct {
	effect  string
	width   int
	height  int
	animate bool
	output  string
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "open the interactive viewer",
		Long: `Open the interactive viewer.

Keys:
  Right/Left      next / previous effect
  + / -           zoom in / out
  W A S D         pan
  0               reset zoom and offset
  Space           toggle auto-animate
  R               start / stop recording
  E               stop and export the recording
  Esc             quit`,
		RunE: runView,
	}
	f := cmd.Flags()
	f.StringVar(&viewFlags.effect, "effect", "", "initial effect")
	f.IntVar(&viewFlags.width, "width", config.DefaultWidth, "window width")
	f.IntVar(&viewFlags.height, "height", config.DefaultHeight, "window height")
	f.BoolVar(&viewFlags.animate, "animate", false, "start with auto-animate on")
	f.StringVar(&viewFlags.output, "output", "", "recording export path")
	return cmd
}

var keyActions = []struct {
	key    glfw.Key
	action viewer.Action
	repeat bool
}{
	{glfw.KeyRight, viewer.NextEffect, false},
	{glfw.KeyLeft, viewer.PreviousEffect, false},
	{glfw.KeyEqual, viewer.ZoomIn, true},
	{glfw.KeyKPAdd, viewer.ZoomIn, true},
	{glfw.KeyMinus, viewer.ZoomOut, true},
	{glfw.KeyKPSubtract, viewer.ZoomOut, true},
	{glfw.KeyA, viewer.PanLeft, true},
	{glfw.KeyD, viewer.PanRight, true},
	{glfw.KeyW, viewer.PanUp, true},
	{glfw.KeyS, viewer.PanDown, true},
	{glfw.Key0, viewer.ResetView, false},
	{glfw.KeySpace, viewer.ToggleAutoAnimate, false},
	{glfw.KeyR, viewer.ToggleRecording, false},
	{glfw.KeyE, viewer.SaveRecording, false},
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("effect") {
		cfg.Effect = viewFlags.effect
	}
	if f.Changed("width") {
		cfg.Window.Width = viewFlags.width
	}
	if f.Changed("height") {
		cfg.Window.Height = viewFlags.height
	}
	if f.Changed("animate") {
		cfg.AutoAnimate = viewFlags.animate
	}
	if f.Changed("output") {
		cfg.Record.Output = viewFlags.output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, lib, err := setup(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := glfwcontext.InitGraphics(logger); err != nil {
		return err
	}
	defer glfwcontext.TerminateGraphics(logger)

	win, err := glfwcontext.New(cfg.Window, true)
	if err != nil {
		return err
	}
	defer win.Shutdown()
	win.MakeCurrent()
	glfw.SwapInterval(1)

	dev, err := glbackend.New(glbackend.WithLogger(logger))
	if err != nil {
		return err
	}
	defer dev.Close()

	screen := glbackend.NewScreen(win.GetFramebufferSize())
	v, err := viewer.New(dev, screen, lib, viewer.WithConfig(cfg), viewer.WithLogger(logger))
	if err != nil {
		return err
	}
	defer v.Close()

	if cfg.EffectsDir != "" {
		if err := v.Watch(cfg.EffectsDir); err != nil {
			logger.Warn("hot reload disabled", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	title := func() {
		st := v.State()
		t := cfg.Window.Title + " - " + st.Effect
		if st.Recording {
			t += " [REC]"
		}
		win.SetTitle(t)
	}
	for _, ka := range keyActions {
		action := ka.action
		fn := func() {
			v.Apply(ctx, action, cfg.Record.Output)
			title()
		}
		if ka.repeat {
			win.RegisterRepeatingKeyCallback(ka.key, fn)
		} else {
			win.RegisterKeyCallback(ka.key, fn)
		}
	}
	title()

	logger.Info("viewer running", zap.String("effect", v.State().Effect))
	if err := v.Run(ctx, win); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
