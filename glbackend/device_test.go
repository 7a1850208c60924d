package glbackend

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"

	"github.com/richinsley/goartstudio/graphics"
)

// These tests need no GL context.

func TestQuadCoversClipSpace(t *testing.T) {
	assert.Len(t, quadVertices, 12)
	corners := map[[2]float32]bool{}
	for i := 0; i < len(quadVertices); i += 2 {
		corners[[2]float32{quadVertices[i], quadVertices[i+1]}] = true
	}
	for _, c := range [][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		assert.True(t, corners[c], "corner %v", c)
	}
}

func TestProgramLocation(t *testing.T) {
	p := &program{
		inputs: graphics.InputSet(0).With(graphics.InputTime).With(graphics.InputZoom),
		loc:    map[graphics.Input]int32{graphics.InputTime: 3, graphics.InputOffset: 7},
	}
	assert.Equal(t, int32(3), p.location(graphics.InputTime))
	// declared but not resolved
	assert.Equal(t, int32(-1), p.location(graphics.InputZoom))
	// resolved but not declared
	assert.Equal(t, int32(-1), p.location(graphics.InputOffset))
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(800, 600)
	s.Resize(1600, 1200)
	w, h := s.Size()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1200, h)
	assert.Zero(t, s.fbo())
}

func TestDiagnosticText(t *testing.T) {
	assert.Equal(t, "ERROR: 0:3: syntax error", trimLog("ERROR: 0:3: syntax error\n\x00"))
	assert.Equal(t, "fragment", stageName(gl.FRAGMENT_SHADER))
	assert.Equal(t, "unsupported format", framebufferStatus(gl.FRAMEBUFFER_UNSUPPORTED))
}

func TestPackRGBDropsAlpha(t *testing.T) {
	rgba := []byte{1, 2, 3, 255, 4, 5, 6, 128, 7, 8, 9, 0}
	rgb := make([]byte, 9)
	packRGB(rgb, rgba)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, rgb)
}
