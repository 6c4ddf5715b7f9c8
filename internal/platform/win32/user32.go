//go:build windows

package win32

import (
	"sync"
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows         = user32.NewProc("EnumWindows")
	procEnumChildWindows    = user32.NewProc("EnumChildWindows")
	procGetParent           = user32.NewProc("GetParent")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procIsWindow            = user32.NewProc("IsWindow")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procSendMessageTimeoutW = user32.NewProc("SendMessageTimeoutW")
	procPostMessageW        = user32.NewProc("PostMessageW")
)

const (
	wmGetText         = 0x000D
	wmGetTextLength   = 0x000E
	wmLButtonDown     = 0x0201
	wmLButtonUp       = 0x0202
	wmLButtonDblClk   = 0x0203
	mkLButton         = 0x0001
	smtoAbortIfHung   = 0x0002
	sendTimeoutMs     = 1000
	maxTitleChars     = 512
	enumerateContinue = 1
)

type rect struct {
	Left, Top, Right, Bottom int32
}

// Enumeration callbacks are a finite OS resource, so a single callback is
// shared and each enumeration registers its collector under an id that is
// passed through lParam.
var (
	enumMu      sync.Mutex
	enumNextID  uintptr
	enumTargets = map[uintptr]func(hwnd uintptr) bool{}
	enumProc    = syscall.NewCallback(func(hwnd, lparam uintptr) uintptr {
		enumMu.Lock()
		fn := enumTargets[lparam]
		enumMu.Unlock()
		if fn == nil || !fn(hwnd) {
			return 0
		}
		return enumerateContinue
	})
)

// acquireEnum registers fn and returns its id and a release func that must be
// called on every exit path.
func acquireEnum(fn func(hwnd uintptr) bool) (uintptr, func()) {
	enumMu.Lock()
	enumNextID++
	id := enumNextID
	enumTargets[id] = fn
	enumMu.Unlock()
	return id, func() {
		enumMu.Lock()
		delete(enumTargets, id)
		enumMu.Unlock()
	}
}
