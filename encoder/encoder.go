// Package encoder streams raw BGR frames into an ffmpeg process.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

const (
	DefaultFPS   = 60
	DefaultCodec = "mpeg4"
	DefaultTag   = "mp4v"
)

// ErrFrameSize is returned by WriteFrame for a buffer that is not
// width*height*3 bytes.
var ErrFrameSize = errors.New("frame size mismatch")

// Options describe one output file.
type Options struct {
	Output     string
	Width      int
	Height     int
	FPS        int
	Codec      string
	Tag        string
	FFmpegPath string
}

func (o Options) withDefaults() Options {
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Codec == "" {
		o.Codec = DefaultCodec
		if o.Tag == "" {
			o.Tag = DefaultTag
		}
	}
	return o
}

func (o Options) validate() error {
	if o.Output == "" {
		return errors.New("no output path")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", o.Width, o.Height)
	}
	return nil
}

// FrameSize is the byte length of one bgr24 frame.
func (o Options) FrameSize() int { return o.Width * o.Height * 3 }

func (o Options) getArgs() (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "bgr24",
		"s":       fmt.Sprintf("%dx%d", o.Width, o.Height),
		"r":       strconv.Itoa(o.FPS),
	}
	outputArgs = ffmpeg.KwArgs{
		"c:v":     o.Codec,
		"pix_fmt": "yuv420p",
	}
	if o.Tag != "" {
		outputArgs["tag:v"] = o.Tag
	}
	return
}

func (o Options) stream(in io.Reader) *ffmpeg.Stream {
	inputArgs, outputArgs := o.getArgs()
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(o.Output, outputArgs).
		OverWriteOutput().WithInput(in)
	if o.FFmpegPath != "" {
		cmd = cmd.SetFfmpegPath(o.FFmpegPath)
	}
	return cmd
}

// Encoder owns one running ffmpeg process. Frames must be written from a
// single goroutine.
type Encoder struct {
	opts   Options
	logger *zap.Logger
	pw     *io.PipeWriter
	stderr bytes.Buffer
	done   chan error
	frames int
}

// Start launches ffmpeg for opts. The process is killed when ctx is done.
func Start(ctx context.Context, opts Options, logger *zap.Logger) (*Encoder, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pr, pw := io.Pipe()
	e := &Encoder{
		opts:   opts,
		logger: logger,
		pw:     pw,
		done:   make(chan error, 1),
	}
	cmd := opts.stream(pr).Compile()
	cmd.Stderr = &e.stderr
	if err := cmd.Start(); err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	logger.Info("encoder started",
		zap.String("output", opts.Output),
		zap.String("args", strings.Join(cmd.Args, " ")))

	go func() {
		stop := context.AfterFunc(ctx, func() { _ = cmd.Process.Kill() })
		err := cmd.Wait()
		stop()
		pr.CloseWithError(errExited)
		e.done <- err
	}()
	return e, nil
}

var errExited = errors.New("ffmpeg exited")

// WriteFrame sends one top-down bgr24 frame.
func (e *Encoder) WriteFrame(bgr []byte) error {
	if len(bgr) != e.opts.FrameSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(bgr), e.opts.FrameSize())
	}
	if _, err := e.pw.Write(bgr); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", e.frames, err)
	}
	e.frames++
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	e.pw.Close()
	if err := <-e.done; err != nil {
		return e.exitError(err)
	}
	e.logger.Info("encoder finished", zap.String("output", e.opts.Output), zap.Int("frames", e.frames))
	return nil
}

func (e *Encoder) exitError(err error) error {
	var exitErr *exec.ExitError
	msg := strings.TrimSpace(e.stderr.String())
	if errors.As(err, &exitErr) && msg != "" {
		lines := strings.Split(msg, "\n")
		return fmt.Errorf("ffmpeg failed writing %s: %w: %s", e.opts.Output, err, lines[len(lines)-1])
	}
	return fmt.Errorf("ffmpeg failed writing %s: %w", e.opts.Output, err)
}
