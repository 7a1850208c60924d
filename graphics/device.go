package graphics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a linear RGBA color.
type Color [4]float32

// Uniforms carries the per-frame values for the named inputs. A device only
// forwards the ones the program declared.
type Uniforms struct {
	Time       float32
	Resolution [2]float32
	Zoom       float32
	Offset     [2]float32
}

// Sampler reads a texture with normalized coordinates.
type Sampler interface {
	Texture(uv mgl32.Vec2) mgl32.Vec4
}

// Fragment is the per-pixel invocation state handed to a CPU kernel. Inputs the
// program does not declare are left zero. Prev is nil unless the program
// declares prev_frame; with no surface bound it reads as zero.
type Fragment struct {
	TexCoord   mgl32.Vec2
	Time       float32
	Resolution mgl32.Vec2
	Zoom       float32
	Offset     mgl32.Vec2
	Prev       Sampler
}

// Kernel is the CPU twin of an effect's fragment routine, executed by the
// software device.
type Kernel func(f *Fragment) mgl32.Vec4

// Source is an uncompiled effect program.
type Source struct {
	Name   string
	Code   string
	Kernel Kernel
}

// Resource is anything a device allocates and must release.
type Resource interface {
	Release()
}

// Program is a compiled effect program.
type Program interface {
	Resource
	Name() string
	// Inputs reports which named inputs the program declares.
	Inputs() InputSet
}

// Target is anything a draw can be directed at.
type Target interface {
	Size() (int, int)
}

// Surface is an offscreen 4×float32 color surface that can be drawn into and
// sampled as a texture.
type Surface interface {
	Target
	Resource
}

// Device is the GPU as seen by the frame driver.
type Device interface {
	// CompileProgram builds src together with the shared full-screen-quad
	// vertex stage. Failures are reported as *CompileError.
	CompileProgram(src Source) (Program, error)
	NewFloatSurface(width, height int) (Surface, error)
	// ClearSurface zeroes every texel of s.
	ClearSurface(s Surface)
	Clear(t Target, c Color)
	// Draw runs p over a full-screen quad into t. prev, when non-nil, is bound
	// as the prev_frame texture.
	Draw(t Target, p Program, u Uniforms, prev Surface)
	// Copy presents the RGB channels of src into t with alpha forced opaque.
	Copy(t Target, src Surface)
	// ReadPixels returns width*height*3 RGB bytes, bottom row first.
	ReadPixels(t Target, width, height int) ([]byte, error)
	// ReadSurface returns the raw RGBA texels of s, bottom row first.
	ReadSurface(s Surface) ([]float32, error)
}

// CompileError is returned when an effect program fails to build.
type CompileError struct {
	Program string
	Log     string
}

func (e *CompileError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("shader compile failed: %s", e.Log)
	}
	return fmt.Sprintf("shader %q compile failed: %s", e.Program, e.Log)
}

// IsCompileError reports whether err wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
