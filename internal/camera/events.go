package camera

import "github.com/mj1618/dslr-remote/internal/imaging"

// Event is a lifecycle notification from the exposer. Events are delivered
// on a single channel and must be consumed by exactly one goroutine.
type Event interface {
	event()
}

// ExposureCompleted reports that the shutter has closed and the watcher is
// waiting for the image file.
type ExposureCompleted struct{}

// ExposureDownloading reports that the image file has appeared.
type ExposureDownloading struct {
	Path string
}

// ExposureReady carries the decoded image.
type ExposureReady struct {
	Path   string
	Buffer *imaging.PixelBuffer
}

// ExposureFailed reports an error from the exposure task or the decoder.
type ExposureFailed struct {
	Err error
}

// ExposureAborted reports that the exposure ended without an image.
type ExposureAborted struct{}

// ExposureStopped reports that the shutter closed early on request.
type ExposureStopped struct{}

func (ExposureCompleted) event()   {}
func (ExposureDownloading) event() {}
func (ExposureReady) event()       {}
func (ExposureFailed) event()      {}
func (ExposureAborted) event()     {}
func (ExposureStopped) event()     {}
