package imaging

import (
	"fmt"

	"github.com/mj1618/dslr-remote/internal/model"
)

// ROI is a requested region in sensor pixels.
type ROI struct {
	StartX, StartY int
	NumX, NumY     int
}

// FullFrame is the ROI covering a width x height sensor.
func FullFrame(width, height int) ROI {
	return ROI{NumX: width, NumY: height}
}

// Crop copies roi out of b. The input is returned unchanged when roi is the
// full cameraX x cameraY frame and b has that size, or when roi is empty.
// Start offsets snap down to even coordinates so the 2x2 mosaic stays aligned.
func Crop(b *PixelBuffer, roi ROI, cameraX, cameraY int) (*PixelBuffer, error) {
	if roi.NumX == 0 || roi.NumY == 0 {
		return b, nil
	}
	if roi.StartX == 0 && roi.StartY == 0 && roi.NumX == cameraX && roi.NumY == cameraY &&
		b.Width == cameraX && b.Height == cameraY {
		return b, nil
	}
	if roi.StartX < 0 || roi.StartY < 0 || roi.NumX < 0 || roi.NumY < 0 {
		return nil, fmt.Errorf("%w: negative region %+v", model.ErrInvalidOperation, roi)
	}

	x0 := roi.StartX - roi.StartX%2
	y0 := roi.StartY - roi.StartY%2
	if x0 >= b.Width || y0 >= b.Height {
		return nil, fmt.Errorf("%w: region start %d,%d outside %dx%d frame", model.ErrInvalidOperation, x0, y0, b.Width, b.Height)
	}
	w := min(roi.NumX, b.Width-x0)
	h := min(roi.NumY, b.Height-y0)

	out := NewPixelBuffer(w, h, b.Planes)
	for p := 0; p < b.Planes; p++ {
		for y := 0; y < h; y++ {
			src := b.offset(x0, y0+y, p)
			dst := out.offset(0, y, p)
			copy(out.Pix[dst:dst+w], b.Pix[src:src+w])
		}
	}
	return out, nil
}
