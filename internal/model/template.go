package model

import (
	"fmt"
	"strings"
)

// WindowType identifies which screen of the remote app is showing.
type WindowType string

const (
	WindowNoCamera           WindowType = "no-camera"
	WindowSelectCamera       WindowType = "select-camera"
	WindowMain               WindowType = "main"
	WindowCannotCreateFolder WindowType = "cannot-create-folder"
	WindowCannotAccessFolder WindowType = "cannot-access-folder"
	WindowNone               WindowType = "no-window"
)

// WindowTypes lists every recognised WindowType.
var WindowTypes = []WindowType{
	WindowNoCamera,
	WindowSelectCamera,
	WindowMain,
	WindowCannotCreateFolder,
	WindowCannotAccessFolder,
	WindowNone,
}

// ParseWindowType converts a flag value to a WindowType.
func ParseWindowType(s string) (WindowType, error) {
	for _, wt := range WindowTypes {
		if strings.EqualFold(s, string(wt)) {
			return wt, nil
		}
	}
	return "", fmt.Errorf("%w: unknown window type %q", ErrInvalidValue, s)
}

// ControlDescriptor names a control by its structural path from the window
// root. A nil Text matches any caption.
type ControlDescriptor struct {
	Name string  `yaml:"name"`
	Path []int   `yaml:"path,flow"`
	Text *string `yaml:"text,omitempty"`
}

// WindowTemplate is the fingerprint of one remote-app screen.
type WindowTemplate struct {
	Type     WindowType          `yaml:"type"`
	Controls []ControlDescriptor `yaml:"controls"`
}

// Control returns the descriptor with the given name.
func (w WindowTemplate) Control(name string) (ControlDescriptor, bool) {
	for _, c := range w.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return ControlDescriptor{}, false
}
