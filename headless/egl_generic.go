//go:build !linux

package headless

import (
	"errors"

	"go.uber.org/zap"
)

// ErrUnsupported is returned on platforms without EGL pbuffer support.
var ErrUnsupported = errors.New("egl headless rendering is only supported on linux")

// Context is unavailable on this platform.
type Context struct{}

func New(width, height int, logger *zap.Logger) (*Context, error) {
	return nil, ErrUnsupported
}

func (c *Context) MakeCurrent()                   {}
func (c *Context) Shutdown()                      {}
func (c *Context) ShouldClose() bool              { return true }
func (c *Context) EndFrame()                      {}
func (c *Context) GetFramebufferSize() (int, int) { return 0, 0 }
