package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Animate returns the auto-animated view for elapsed time t: the zoom
// breathes around its base and the offset drifts on a small Lissajous path.
func Animate(baseZoom float32, baseOffset mgl32.Vec2, t float32) (float32, mgl32.Vec2) {
	zoom := baseZoom * (1 + 0.5*math32.Sin(t*0.5))
	offset := baseOffset.Add(mgl32.Vec2{
		0.2 * math32.Cos(t*0.3),
		0.2 * math32.Sin(t*0.4),
	})
	return zoom, offset
}
