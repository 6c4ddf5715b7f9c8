//go:build windows

package win32

import (
	"github.com/mj1618/dslr-remote/internal/platform"
	"github.com/mj1618/dslr-remote/internal/platform/capture"
)

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		reader := NewReader()
		return &platform.Provider{
			Reader:        reader,
			Inputter:      NewInputter(),
			Launcher:      NewLauncher(),
			Screenshotter: capture.NewScreenshotter(reader.WindowBounds),
		}, nil
	}
}
