//go:build windows

// Package win32 provides Windows platform support using user32 window
// enumeration and posted mouse messages.
package win32
