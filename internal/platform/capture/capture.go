// Package capture grabs window screenshots for diagnosing unrecognised
// remote-app screens.
package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
	"github.com/vova616/screenshot"
	"golang.org/x/image/draw"
)

// BoundsFunc returns the screen rectangle of a window.
type BoundsFunc func(h model.ControlHandle) (platform.Bounds, error)

// Screenshotter implements platform.Screenshotter on top of a screen grab.
type Screenshotter struct {
	bounds BoundsFunc
}

// NewScreenshotter creates a screenshotter that locates windows with bounds.
func NewScreenshotter(bounds BoundsFunc) *Screenshotter {
	return &Screenshotter{bounds: bounds}
}

// CaptureWindow captures a window, or the whole screen when h is zero.
func (s *Screenshotter) CaptureWindow(h model.ControlHandle, opts platform.ScreenshotOptions) ([]byte, error) {
	var rect image.Rectangle
	if h == 0 || s.bounds == nil {
		r, err := screenshot.ScreenRect()
		if err != nil {
			return nil, fmt.Errorf("screen rect: %w", err)
		}
		rect = r
	} else {
		b, err := s.bounds(h)
		if err != nil {
			return nil, fmt.Errorf("window bounds: %w", err)
		}
		rect = b.Rect()
	}
	if rect.Empty() {
		return nil, fmt.Errorf("nothing to capture: empty rectangle %v", rect)
	}

	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return Encode(Scale(img, opts.Scale), opts)
}

// Scale resizes img by factor. Factors outside (0, 1] default to 0.5.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor > 1.0 {
		factor = 0.5
	}
	if factor == 1.0 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx())*factor + 0.5)
	h := int(float64(b.Dy())*factor + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img as PNG, or JPEG when opts.Format is jpg.
func Encode(img image.Image, opts platform.ScreenshotOptions) ([]byte, error) {
	var buf bytes.Buffer
	switch opts.Format {
	case "jpg", "jpeg":
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encode: %w", err)
		}
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported screenshot format: %s (use png or jpg)", opts.Format)
	}
	return buf.Bytes(), nil
}
