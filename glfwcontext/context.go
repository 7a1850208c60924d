package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
	"github.com/richinsley/goartstudio/graphics"
)

// Context is a GLFW window with a GL 4.1 core context.
type Context struct {
	window *glfw.Window
	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()
	// Keys whose callbacks also fire on auto-repeat.
	repeatable map[glfw.Key]bool
}

var _ graphics.Context = (*Context)(nil)

// New creates a window and its context. A hidden window serves as the
// context for headless rendering.
func New(cfg config.WindowConfig, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
		glfw.WindowHint(glfw.Visible, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
		repeatable:   make(map[glfw.Key]bool),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	return c, nil
}

// RegisterKeyCallback calls f when key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

// RegisterRepeatingKeyCallback calls f on press and while key is held.
func (c *Context) RegisterRepeatingKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
	c.repeatable[key] = true
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
	if action == glfw.Press || (action == glfw.Repeat && c.repeatable[key]) {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

// GetFramebufferSize returns the size in physical pixels.
func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// SetTitle updates the window title, used to show the active effect.
func (c *Context) SetTitle(title string) {
	c.window.SetTitle(title)
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics(logger *zap.Logger) error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	logger.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics(logger *zap.Logger) {
	glfw.Terminate()
	logger.Debug("GLFW terminated")
}
