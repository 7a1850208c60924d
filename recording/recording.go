// Package recording keeps the frames captured while recording is active and
// exports them as a video file.
package recording

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/encoder"
)

// ErrNoFrames is returned by Save when nothing has been captured.
var ErrNoFrames = errors.New("no frames recorded")

// Frame is one captured RGB frame, bottom row first.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
}

// FrameWriter consumes top-down BGR frames.
type FrameWriter interface {
	WriteFrame(bgr []byte) error
	Close() error
}

// OpenFunc starts a FrameWriter for one output file.
type OpenFunc func(ctx context.Context, opts encoder.Options) (FrameWriter, error)

// Session is the recording state of a viewer. It is used from the render
// thread only.
type Session struct {
	logger     *zap.Logger
	open       OpenFunc
	fps        int
	ffmpegPath string

	active bool
	frames []Frame
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithFPS sets the frame rate written to the file.
func WithFPS(fps int) Option {
	return func(s *Session) { s.fps = fps }
}

func WithFFmpegPath(path string) Option {
	return func(s *Session) { s.ffmpegPath = path }
}

// WithOpener replaces the ffmpeg encoder.
func WithOpener(open OpenFunc) Option {
	return func(s *Session) { s.open = open }
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		logger: zap.NewNop(),
		fps:    encoder.DefaultFPS,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.open == nil {
		logger := s.logger
		s.open = func(ctx context.Context, o encoder.Options) (FrameWriter, error) {
			return encoder.Start(ctx, o, logger)
		}
	}
	return s
}

// Start drops any previous frames and begins capturing.
func (s *Session) Start() {
	s.frames = nil
	s.active = true
	s.logger.Info("recording started")
}

// Stop ends capturing. Captured frames are kept until Save succeeds or the
// next Start.
func (s *Session) Stop() {
	if !s.active {
		return
	}
	s.active = false
	s.logger.Info("recording stopped", zap.Int("frames", len(s.frames)))
}

func (s *Session) Active() bool { return s.active }

func (s *Session) Len() int { return len(s.frames) }

// FPS is the frame rate Save writes.
func (s *Session) FPS() int { return s.fps }

// Frames returns the captured frames in capture order.
func (s *Session) Frames() []Frame { return s.frames }

// Capture appends pixels while the session is active. A buffer that is not
// width*height*3 bytes is dropped. The session keeps pixels without copying.
func (s *Session) Capture(pixels []byte, width, height int) bool {
	if !s.active {
		return false
	}
	if width <= 0 || height <= 0 || len(pixels) != width*height*3 {
		s.logger.Debug("frame discarded, size mismatch",
			zap.Int("bytes", len(pixels)), zap.Int("width", width), zap.Int("height", height))
		return false
	}
	s.frames = append(s.frames, Frame{Pixels: pixels, Width: width, Height: height})
	return true
}

// Save encodes the captured frames to path at the size of the first frame.
// Frames of a different size are skipped. The frames are cleared on success
// and kept on failure so the export can be retried.
func (s *Session) Save(ctx context.Context, path string) error {
	if len(s.frames) == 0 {
		return ErrNoFrames
	}
	first := s.frames[0]
	w, err := s.open(ctx, encoder.Options{
		Output:     path,
		Width:      first.Width,
		Height:     first.Height,
		FPS:        s.fps,
		FFmpegPath: s.ffmpegPath,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	written := 0
	for i, f := range s.frames {
		if f.Width != first.Width || f.Height != first.Height {
			s.logger.Debug("frame skipped, size differs from first frame", zap.Int("frame", i))
			continue
		}
		if err := ctx.Err(); err != nil {
			w.Close()
			return err
		}
		if err := w.WriteFrame(ToBGRTopDown(f.Pixels, f.Width, f.Height)); err != nil {
			w.Close()
			return err
		}
		written++
	}
	if err := w.Close(); err != nil {
		return err
	}

	s.logger.Info("recording saved", zap.String("path", path), zap.Int("frames", written))
	s.frames = nil
	return nil
}

// ToBGRTopDown converts a bottom-row-first RGB buffer into a top-row-first
// BGR buffer.
func ToBGRTopDown(rgb []byte, width, height int) []byte {
	stride := width * 3
	out := make([]byte, len(rgb))
	for y := 0; y < height; y++ {
		src := rgb[(height-1-y)*stride : (height-y)*stride]
		dst := out[y*stride : (y+1)*stride]
		for x := 0; x < stride; x += 3 {
			dst[x], dst[x+1], dst[x+2] = src[x+2], src[x+1], src[x]
		}
	}
	return out
}
