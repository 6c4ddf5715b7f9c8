package platform

import "github.com/mj1618/dslr-remote/internal/model"

// Reader enumerates the remote app's windows and reads control captions.
type Reader interface {
	// FindWindows returns top-level windows whose title equals title exactly.
	FindWindows(title string) ([]model.ControlHandle, error)

	// EnumChildren returns every descendant of root, each paired with its
	// parent, in OS enumeration order.
	EnumChildren(root model.ControlHandle) ([]model.ChildWindow, error)

	// WindowText returns the caption of a control.
	WindowText(h model.ControlHandle) (string, error)

	// IsWindow reports whether the handle still refers to a live window.
	IsWindow(h model.ControlHandle) bool

	// WindowBounds returns the screen rectangle of a window.
	WindowBounds(h model.ControlHandle) (Bounds, error)
}

// Inputter posts synthetic mouse input to a control.
type Inputter interface {
	// Click posts a primary-button down then up at the control's origin.
	Click(h model.ControlHandle) error

	// ClickAt posts count primary-button clicks at client coordinates x, y.
	ClickAt(h model.ControlHandle, x, y, count int) error
}

// Launcher starts the remote app.
type Launcher interface {
	Launch(path string) error
}

// Screenshotter captures screenshots.
type Screenshotter interface {
	// CaptureWindow captures a window, or the full screen when h is zero.
	// Returns the image bytes in the requested format.
	CaptureWindow(h model.ControlHandle, opts ScreenshotOptions) ([]byte, error)
}
