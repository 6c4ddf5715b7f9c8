package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by operations that need a connected remote app.
	ErrNotConnected = errors.New("not connected")
	// ErrInvalidOperation is returned when an operation conflicts with the current state.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidValue is returned for out-of-range or unknown arguments.
	ErrInvalidValue = errors.New("invalid value")
	// ErrNotImplemented is returned for capabilities the configuration disables.
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnknownWindowState means app windows exist but none matches a template.
	ErrUnknownWindowState = errors.New("unknown window state")
	// ErrControlNotFound means a descriptor could not be resolved in the current window.
	ErrControlNotFound = errors.New("could not locate control")
	// ErrDecode is returned for unreadable or unsupported image files.
	ErrDecode = errors.New("decode failed")
	// ErrWindowGone means a window closed before or while it was enumerated.
	ErrWindowGone = fmt.Errorf("%w: window no longer exists", ErrControlNotFound)
)
