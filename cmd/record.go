package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
	"github.com/richinsley/goartstudio/encoder"
	"github.com/richinsley/goartstudio/glbackend"
	"github.com/richinsley/goartstudio/glfwcontext"
	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/headless"
	"github.com/richinsley/goartstudio/softgpu"
	"github.com/richinsley/goartstudio/viewer"
)

var recordFlags struct {
	effect     string
	duration   float64
	fps        int
	width      int
	height     int
	output     string
	backend    string
	ffmpegPath string
	animate    bool
	zoom       float32
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "render an effect without a window and encode it to a video file",
		RunE:  runRecord,
	}
	f := cmd.Flags()
	f.StringVar(&recordFlags.effect, "effect", config.DefaultEffect, "effect to record")
	f.Float64Var(&recordFlags.duration, "duration", config.DefaultDuration, "duration in seconds")
	f.IntVar(&recordFlags.fps, "fps", config.DefaultFPS, "frames per second")
	f.IntVar(&recordFlags.width, "width", config.DefaultWidth, "output width")
	f.IntVar(&recordFlags.height, "height", config.DefaultHeight, "output height")
	f.StringVarP(&recordFlags.output, "output", "o", config.DefaultOutput, "output file")
	f.StringVar(&recordFlags.backend, "backend", config.BackendSoftware, "render backend (software, gl, egl)")
	f.StringVar(&recordFlags.ffmpegPath, "ffmpeg", "", "path to the ffmpeg executable")
	f.BoolVar(&recordFlags.animate, "animate", false, "auto-animate zoom and offset")
	f.Float32Var(&recordFlags.zoom, "zoom", 1.0, "zoom")
	return cmd
}

func applyRecordFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("effect") {
		cfg.Effect = recordFlags.effect
	}
	if f.Changed("duration") {
		cfg.Record.Duration = recordFlags.duration
	}
	if f.Changed("fps") {
		cfg.Record.FPS = recordFlags.fps
	}
	if f.Changed("width") {
		cfg.Record.Width = recordFlags.width
	}
	if f.Changed("height") {
		cfg.Record.Height = recordFlags.height
	}
	if f.Changed("output") {
		cfg.Record.Output = recordFlags.output
	}
	if f.Changed("backend") {
		cfg.Record.Backend = recordFlags.backend
	}
	if f.Changed("ffmpeg") {
		cfg.Record.FFmpegPath = recordFlags.ffmpegPath
	}
	if f.Changed("animate") {
		cfg.AutoAnimate = recordFlags.animate
	}
	if f.Changed("zoom") {
		cfg.Zoom = recordFlags.zoom
	}
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRecordFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, lib, err := setup(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := cfg.Record
	var (
		dev    graphics.Device
		target graphics.Target
	)
	switch rc.Backend {
	case config.BackendGL:
		if err := glfwcontext.InitGraphics(logger); err != nil {
			return err
		}
		defer glfwcontext.TerminateGraphics(logger)
		win, err := glfwcontext.New(config.WindowConfig{Width: rc.Width, Height: rc.Height, Title: cfg.Window.Title}, false)
		if err != nil {
			return err
		}
		defer win.Shutdown()
		win.MakeCurrent()

		gldev, err := glbackend.New(glbackend.WithLogger(logger))
		if err != nil {
			return err
		}
		defer gldev.Close()
		off, err := gldev.NewOffscreen(rc.Width, rc.Height)
		if err != nil {
			return err
		}
		defer off.Release()
		dev, target = gldev, off
	case config.BackendEGL:
		pbuf, err := headless.New(rc.Width, rc.Height, logger)
		if err != nil {
			return err
		}
		defer pbuf.Shutdown()

		gldev, err := glbackend.New(glbackend.WithLogger(logger), glbackend.WithGLES(true))
		if err != nil {
			return err
		}
		defer gldev.Close()
		off, err := gldev.NewOffscreen(rc.Width, rc.Height)
		if err != nil {
			return err
		}
		defer off.Release()
		dev, target = gldev, off
	default:
		dev = softgpu.New(softgpu.WithLogger(logger))
		target = softgpu.NewFramebuffer(rc.Width, rc.Height)
	}

	v, err := viewer.New(dev, target, lib, viewer.WithConfig(cfg), viewer.WithLogger(logger))
	if err != nil {
		return err
	}
	defer v.Close()

	enc, err := encoder.Start(ctx, encoder.Options{
		Output:     rc.Output,
		Width:      rc.Width,
		Height:     rc.Height,
		FPS:        rc.FPS,
		FFmpegPath: rc.FFmpegPath,
	}, logger)
	if err != nil {
		return err
	}

	frames := rc.Frames()
	logger.Info("recording",
		zap.String("effect", v.State().Effect),
		zap.String("backend", rc.Backend),
		zap.Int("frames", frames))
	if err := v.RecordTo(ctx, frames, rc.FPS, enc); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", frames, rc.Output)
	return nil
}
