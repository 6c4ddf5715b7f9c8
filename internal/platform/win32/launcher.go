//go:build windows

package win32

import (
	"fmt"
	"os/exec"
)

// Launcher starts the remote app as a detached process.
type Launcher struct{}

// NewLauncher creates a new Windows launcher.
func NewLauncher() *Launcher {
	return &Launcher{}
}

// Launch starts the executable at path without waiting for it.
func (l *Launcher) Launch(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}
	return cmd.Process.Release()
}
