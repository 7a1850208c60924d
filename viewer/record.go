package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/recording"
)

// RecordTo renders frames at a fixed rate starting from effect time zero and
// streams every presented frame to w. The caller closes w.
func (v *Viewer) RecordTo(ctx context.Context, frames, fps int, w recording.FrameWriter) error {
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %d", fps)
	}
	start := v.startTime
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.Tick(start.Add(time.Duration(i) * time.Second / time.Duration(fps)))

		width, height := v.state.Width, v.state.Height
		pixels, err := v.renderer.ReadPresentedPixels(v.target, width, height)
		if err != nil {
			return fmt.Errorf("failed to read frame %d: %w", i, err)
		}
		if err := w.WriteFrame(recording.ToBGRTopDown(pixels, width, height)); err != nil {
			return err
		}
		if (i+1)%fps == 0 {
			v.logger.Info("rendered", zap.Int("frames", i+1), zap.Int("total", frames))
		}
	}
	return nil
}
