//go:build linux

package headless

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/graphics"
)

/*
#cgo LDFLAGS: -lEGL -lGLESv2
#include <EGL/egl.h>
#include <EGL/eglext.h>

static PFNEGLQUERYDEVICESEXTPROC query_devices_fn = NULL;
static PFNEGLGETPLATFORMDISPLAYEXTPROC platform_display_fn = NULL;

static void load_extensions() {
    query_devices_fn = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    platform_display_fn = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
}

static EGLDisplay platform_display(EGLenum platform, void *native_display) {
    if (platform_display_fn) {
        return platform_display_fn(platform, native_display, NULL);
    }
    return EGL_NO_DISPLAY;
}

static EGLBoolean query_devices(EGLint max_devices, EGLDeviceEXT *devices, EGLint *num_devices) {
    if (query_devices_fn) {
        return query_devices_fn(max_devices, devices, num_devices);
    }
    return EGL_FALSE;
}
*/
import "C"

// Context is an OpenGL ES 3 context backed by an EGL pbuffer. It needs no
// display server, so the gl record backend can run on render nodes.
type Context struct {
	logger  *zap.Logger
	display C.EGLDisplay
	context C.EGLContext
	surface C.EGLSurface
	width   int
	height  int
}

var _ graphics.Context = (*Context)(nil)

// display picks the first enumerated EGL device and falls back to
// EGL_DEFAULT_DISPLAY when device enumeration is unavailable.
func display(logger *zap.Logger) (C.EGLDisplay, error) {
	C.load_extensions()

	var n C.EGLint
	if C.query_devices(0, nil, &n) == C.EGL_FALSE || n == 0 {
		logger.Warn("EGL device enumeration unavailable, using the default display")
		d := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
		if d == C.EGLDisplay(C.EGL_NO_DISPLAY) {
			return d, fmt.Errorf("eglGetDisplay(EGL_DEFAULT_DISPLAY) failed")
		}
		return d, nil
	}

	devices := make([]C.EGLDeviceEXT, n)
	if C.query_devices(n, &devices[0], &n) == C.EGL_FALSE {
		return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("failed to query EGL devices")
	}
	for i := 0; i < int(n); i++ {
		d := C.platform_display(C.EGL_PLATFORM_DEVICE_EXT, unsafe.Pointer(devices[i]))
		if d != C.EGLDisplay(C.EGL_NO_DISPLAY) {
			logger.Debug("EGL display selected", zap.Int("device", i), zap.Int("devices", int(n)))
			return d, nil
		}
	}
	return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("no EGL device produced a display")
}

// New creates a width x height pbuffer context and makes it current on the
// calling thread. The GL function pointers are loaded by glbackend.New.
func New(width, height int, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Context{
		logger:  logger,
		context: C.EGLContext(C.EGL_NO_CONTEXT),
		surface: C.EGLSurface(C.EGL_NO_SURFACE),
		width:   width,
		height:  height,
	}

	var err error
	if c.display, err = display(logger); err != nil {
		return nil, err
	}
	var major, minor C.EGLint
	if C.eglInitialize(c.display, &major, &minor) == C.EGL_FALSE {
		return nil, fmt.Errorf("failed to initialize EGL")
	}
	logger.Info("EGL initialized", zap.Int("major", int(major)), zap.Int("minor", int(minor)))

	configAttribs := []C.EGLint{
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_ALPHA_SIZE, 8,
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_ES3_BIT,
		C.EGL_NONE,
	}
	var cfg C.EGLConfig
	var numConfig C.EGLint
	if C.eglChooseConfig(c.display, &configAttribs[0], &cfg, 1, &numConfig) == C.EGL_FALSE || numConfig == 0 {
		c.Shutdown()
		return nil, fmt.Errorf("no EGL config supports ES3 pbuffers")
	}

	pbufferAttribs := []C.EGLint{
		C.EGL_WIDTH, C.EGLint(width),
		C.EGL_HEIGHT, C.EGLint(height),
		C.EGL_NONE,
	}
	c.surface = C.eglCreatePbufferSurface(c.display, cfg, &pbufferAttribs[0])
	if c.surface == C.EGLSurface(C.EGL_NO_SURFACE) {
		c.Shutdown()
		return nil, fmt.Errorf("failed to create %dx%d pbuffer surface", width, height)
	}

	contextAttribs := []C.EGLint{
		C.EGL_CONTEXT_CLIENT_VERSION, 3,
		C.EGL_NONE,
	}
	c.context = C.eglCreateContext(c.display, cfg, C.EGLContext(C.EGL_NO_CONTEXT), &contextAttribs[0])
	if c.context == C.EGLContext(C.EGL_NO_CONTEXT) {
		c.Shutdown()
		return nil, fmt.Errorf("failed to create EGL context")
	}
	c.MakeCurrent()
	return c, nil
}

func (c *Context) MakeCurrent() {
	C.eglMakeCurrent(c.display, c.surface, c.surface, c.context)
}

func (c *Context) Shutdown() {
	if c.display == C.EGLDisplay(C.EGL_NO_DISPLAY) {
		return
	}
	C.eglMakeCurrent(c.display, C.EGLSurface(C.EGL_NO_SURFACE), C.EGLSurface(C.EGL_NO_SURFACE), C.EGLContext(C.EGL_NO_CONTEXT))
	if c.context != C.EGLContext(C.EGL_NO_CONTEXT) {
		C.eglDestroyContext(c.display, c.context)
	}
	if c.surface != C.EGLSurface(C.EGL_NO_SURFACE) {
		C.eglDestroySurface(c.display, c.surface)
	}
	C.eglTerminate(c.display)
	c.display = C.EGLDisplay(C.EGL_NO_DISPLAY)
}

// ShouldClose is always false; a pbuffer has no user to close it.
func (c *Context) ShouldClose() bool { return false }

func (c *Context) EndFrame() {
	C.eglSwapBuffers(c.display, c.surface)
}

func (c *Context) GetFramebufferSize() (int, int) { return c.width, c.height }
