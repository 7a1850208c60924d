package viewer

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
)

// Slider ranges of the control panel. Zoom is slider/100 and each offset
// axis is slider/50.
const (
	ZoomSliderMin   = 1
	ZoomSliderMax   = 1000
	OffsetSliderMax = 100

	zoomStep   = 10
	offsetStep = 5
)

func ZoomFromSlider(v int) float32 {
	return float32(clampInt(v, ZoomSliderMin, ZoomSliderMax)) / 100
}

func OffsetFromSlider(v int) float32 {
	return float32(clampInt(v, -OffsetSliderMax, OffsetSliderMax)) / 50
}

func zoomSlider(zoom float32) int {
	return int(math32.Floor(zoom*100 + 0.5))
}

func offsetSlider(offset float32) int {
	return int(math32.Floor(offset*50 + 0.5))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampZoom(z float32) float32 {
	return mgl32.Clamp(z, config.MinZoom, config.MaxZoom)
}

func clampOffset(o mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		mgl32.Clamp(o[0], -config.MaxOffset, config.MaxOffset),
		mgl32.Clamp(o[1], -config.MaxOffset, config.MaxOffset),
	}
}

// Action is a control-panel command bound to a key.
type Action int

const (
	ZoomIn Action = iota
	ZoomOut
	PanLeft
	PanRight
	PanUp
	PanDown
	ResetView
	ToggleAutoAnimate
	ToggleRecording
	SaveRecording
	NextEffect
	PreviousEffect
)

var actionNames = map[Action]string{
	ZoomIn:            "zoom in",
	ZoomOut:           "zoom out",
	PanLeft:           "pan left",
	PanRight:          "pan right",
	PanUp:             "pan up",
	PanDown:           "pan down",
	ResetView:         "reset view",
	ToggleAutoAnimate: "toggle auto-animate",
	ToggleRecording:   "toggle recording",
	SaveRecording:     "save recording",
	NextEffect:        "next effect",
	PreviousEffect:    "previous effect",
}

func (a Action) String() string { return actionNames[a] }

// Apply performs a control-panel action. Zoom and pan move the virtual
// sliders by one step. SaveRecording writes to output.
func (v *Viewer) Apply(ctx context.Context, a Action, output string) {
	switch a {
	case ZoomIn:
		v.SetZoom(ZoomFromSlider(zoomSlider(v.state.Zoom) + zoomStep))
	case ZoomOut:
		v.SetZoom(ZoomFromSlider(zoomSlider(v.state.Zoom) - zoomStep))
	case PanLeft:
		v.panSlider(-offsetStep, 0)
	case PanRight:
		v.panSlider(offsetStep, 0)
	case PanUp:
		v.panSlider(0, offsetStep)
	case PanDown:
		v.panSlider(0, -offsetStep)
	case ResetView:
		v.SetZoom(1)
		v.SetOffset(mgl32.Vec2{})
	case ToggleAutoAnimate:
		v.SetAutoAnimate(!v.state.AutoAnimate)
	case ToggleRecording:
		if v.state.Recording {
			v.StopRecording()
		} else {
			v.StartRecording()
		}
	case SaveRecording:
		if v.state.Recording {
			v.StopRecording()
		}
		if err := v.SaveRecording(ctx, output); err != nil {
			v.logger.Error("failed to save recording", zap.String("path", output), zap.Error(err))
		}
	case NextEffect:
		v.stepEffect(1)
	case PreviousEffect:
		v.stepEffect(-1)
	}
}

func (v *Viewer) panSlider(dx, dy int) {
	o := v.state.Offset
	v.SetOffset(mgl32.Vec2{
		OffsetFromSlider(offsetSlider(o[0]) + dx),
		OffsetFromSlider(offsetSlider(o[1]) + dy),
	})
}

// stepEffect moves through the menu, skipping effects that fail to compile.
func (v *Viewer) stepEffect(dir int) {
	names := v.lib.Names()
	cur := 0
	for i, n := range names {
		if n == v.state.Effect {
			cur = i
			break
		}
	}
	for k := 1; k < len(names); k++ {
		i := ((cur+dir*k)%len(names) + len(names)) % len(names)
		ok, msg := v.SelectEffect(names[i])
		if ok {
			return
		}
		v.logger.Debug("skipping effect", zap.String("effect", names[i]), zap.String("reason", msg))
	}
}
