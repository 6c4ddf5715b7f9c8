//go:build windows

package win32

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
	"golang.org/x/sys/windows"
)

// Reader implements platform.Reader with user32.
type Reader struct{}

// NewReader creates a new Windows reader.
func NewReader() *Reader {
	return &Reader{}
}

// FindWindows returns top-level windows whose title equals title exactly.
func (r *Reader) FindWindows(title string) ([]model.ControlHandle, error) {
	var found []model.ControlHandle
	id, release := acquireEnum(func(hwnd uintptr) bool {
		if windowTitle(hwnd) == title {
			found = append(found, model.ControlHandle(hwnd))
		}
		return true
	})
	defer release()

	if ret, _, err := procEnumWindows.Call(enumProc, id); ret == 0 {
		if err != nil && err != syscall.Errno(0) {
			return nil, fmt.Errorf("EnumWindows: %w", err)
		}
		return nil, errors.New("EnumWindows failed")
	}
	return found, nil
}

// EnumChildren returns every descendant of root paired with its parent.
func (r *Reader) EnumChildren(root model.ControlHandle) ([]model.ChildWindow, error) {
	var children []model.ChildWindow
	id, release := acquireEnum(func(hwnd uintptr) bool {
		parent, _, _ := procGetParent.Call(hwnd)
		children = append(children, model.ChildWindow{
			Handle: model.ControlHandle(hwnd),
			Parent: model.ControlHandle(parent),
		})
		return true
	})
	defer release()

	// EnumChildWindows returns zero both on failure and for windows with no
	// children, so only the liveness of root is checked.
	procEnumChildWindows.Call(uintptr(root), enumProc, id)
	if !r.IsWindow(root) {
		return nil, fmt.Errorf("%w: %#x closed during enumeration", model.ErrWindowGone, uintptr(root))
	}
	return children, nil
}

// WindowText reads a control caption with WM_GETTEXT, which the system
// marshals across process boundaries.
func (r *Reader) WindowText(h model.ControlHandle) (string, error) {
	var length uintptr
	ret, _, err := procSendMessageTimeoutW.Call(uintptr(h), wmGetTextLength, 0, 0,
		smtoAbortIfHung, sendTimeoutMs, uintptr(unsafe.Pointer(&length)))
	if ret == 0 {
		return "", fmt.Errorf("WM_GETTEXTLENGTH %#x: %w", uintptr(h), err)
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]uint16, length+1)
	var copied uintptr
	ret, _, err = procSendMessageTimeoutW.Call(uintptr(h), wmGetText, uintptr(len(buf)),
		uintptr(unsafe.Pointer(&buf[0])), smtoAbortIfHung, sendTimeoutMs, uintptr(unsafe.Pointer(&copied)))
	if ret == 0 {
		return "", fmt.Errorf("WM_GETTEXT %#x: %w", uintptr(h), err)
	}
	return windows.UTF16ToString(buf), nil
}

// IsWindow reports whether h is still a live window.
func (r *Reader) IsWindow(h model.ControlHandle) bool {
	ret, _, _ := procIsWindow.Call(uintptr(h))
	return ret != 0
}

// WindowBounds returns the screen rectangle of h.
func (r *Reader) WindowBounds(h model.ControlHandle) (platform.Bounds, error) {
	var rc rect
	ret, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rc)))
	if ret == 0 {
		return platform.Bounds{}, fmt.Errorf("GetWindowRect %#x: %w", uintptr(h), err)
	}
	return platform.Bounds{
		X:      int(rc.Left),
		Y:      int(rc.Top),
		Width:  int(rc.Right - rc.Left),
		Height: int(rc.Bottom - rc.Top),
	}, nil
}

func windowTitle(hwnd uintptr) string {
	buf := make([]uint16, maxTitleChars)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}
