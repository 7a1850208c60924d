package recording

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goartstudio/encoder"
)

type fakeWriter struct {
	opts     encoder.Options
	frames   [][]byte
	failOn   int
	closeErr error
	closed   bool
}

func (w *fakeWriter) WriteFrame(bgr []byte) error {
	if w.failOn > 0 && len(w.frames)+1 == w.failOn {
		return errors.New("disk full")
	}
	w.frames = append(w.frames, bgr)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func newSession(w *fakeWriter) *Session {
	return NewSession(WithOpener(func(_ context.Context, o encoder.Options) (FrameWriter, error) {
		w.opts = o
		return w, nil
	}))
}

func frame(w, h int, v byte) []byte {
	p := make([]byte, w*h*3)
	for i := range p {
		p[i] = v
	}
	return p
}

func TestCaptureOnlyWhileActive(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Capture(frame(2, 2, 1), 2, 2))
	assert.Equal(t, 0, s.Len())

	s.Start()
	assert.True(t, s.Active())
	assert.True(t, s.Capture(frame(2, 2, 1), 2, 2))
	s.Stop()
	assert.False(t, s.Capture(frame(2, 2, 1), 2, 2))
	assert.Equal(t, 1, s.Len())
}

func TestCaptureResolutionMismatchAppendsNothing(t *testing.T) {
	s := NewSession()
	s.Start()
	assert.False(t, s.Capture(frame(2, 2, 1), 3, 2))
	assert.False(t, s.Capture(nil, 0, 0))
	assert.Equal(t, 0, s.Len())
}

func TestStartClearsFrames(t *testing.T) {
	s := NewSession()
	s.Start()
	s.Capture(frame(1, 1, 1), 1, 1)
	s.Capture(frame(1, 1, 2), 1, 1)
	require.Equal(t, 2, s.Len())

	s.Start()
	assert.Equal(t, 0, s.Len())
}

func TestSaveEmpty(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.Save(context.Background(), "out.mp4"), ErrNoFrames)
}

func TestSaveWritesAndClears(t *testing.T) {
	w := &fakeWriter{}
	s := newSession(w)
	s.Start()
	s.Capture(frame(4, 3, 10), 4, 3)
	s.Capture(frame(2, 2, 20), 2, 2)
	s.Capture(frame(4, 3, 30), 4, 3)
	s.Stop()

	require.NoError(t, s.Save(context.Background(), "out.mp4"))
	assert.Equal(t, "out.mp4", w.opts.Output)
	assert.Equal(t, 4, w.opts.Width)
	assert.Equal(t, 3, w.opts.Height)
	assert.Equal(t, encoder.DefaultFPS, w.opts.FPS)
	require.Len(t, w.frames, 2)
	assert.Equal(t, byte(10), w.frames[0][0])
	assert.Equal(t, byte(30), w.frames[1][0])
	assert.True(t, w.closed)
	assert.Equal(t, 0, s.Len())
}

func TestSaveFailurePreservesFrames(t *testing.T) {
	w := &fakeWriter{failOn: 2}
	s := newSession(w)
	s.Start()
	for i := 0; i < 3; i++ {
		s.Capture(frame(2, 2, byte(i)), 2, 2)
	}
	s.Stop()

	require.Error(t, s.Save(context.Background(), "out.mp4"))
	assert.True(t, w.closed)
	assert.Equal(t, 3, s.Len())

	w = &fakeWriter{closeErr: errors.New("muxer failed")}
	s.open = func(context.Context, encoder.Options) (FrameWriter, error) { return w, nil }
	require.Error(t, s.Save(context.Background(), "out.mp4"))
	assert.Equal(t, 3, s.Len())
}

func TestSaveMissingEncoderPreservesFrames(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(WithFFmpegPath(filepath.Join(dir, "missing-ffmpeg")))
	s.Start()
	s.Capture(frame(2, 2, 5), 2, 2)
	s.Stop()

	require.Error(t, s.Save(context.Background(), filepath.Join(dir, "out.mp4")))
	assert.Equal(t, 1, s.Len())
}

func TestSaveCancelled(t *testing.T) {
	w := &fakeWriter{}
	s := newSession(w)
	s.Start()
	s.Capture(frame(1, 1, 1), 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, "out.mp4"), context.Canceled)
	assert.Equal(t, 1, s.Len())
}

func TestToBGRTopDown(t *testing.T) {
	// 2x2, bottom row first: bottom = (1,2,3)(4,5,6), top = (7,8,9)(10,11,12)
	rgb := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	got := ToBGRTopDown(rgb, 2, 2)
	assert.Equal(t, []byte{9, 8, 7, 12, 11, 10, 3, 2, 1, 6, 5, 4}, got)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, rgb)
}
