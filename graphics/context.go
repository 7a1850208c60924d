package graphics

// Context defines the interface for a windowed OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	// GetFramebufferSize returns the physical pixel size of the window surface,
	// which differs from the logical window size on high-DPI displays.
	GetFramebufferSize() (int, int)
}
