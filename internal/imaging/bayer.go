package imaging

import (
	"fmt"

	"github.com/mj1618/dslr-remote/internal/model"
)

// CFA colour indices. A second green is reported as Green.
const (
	Red   byte = 'R'
	Green byte = 'G'
	Blue  byte = 'B'
)

// RawFrame is an undecoded sensor readout. Samples are stored with a row
// stride of RawWidth, which may exceed the visible Width.
type RawFrame struct {
	Width    int
	Height   int
	RawWidth int
	Samples  []uint16
	// Pattern lists the filter colours at (0,0), (0,1), (1,0) and (1,1).
	Pattern string
}

// Color returns the filter colour of the sample at row, col.
func (f *RawFrame) Color(row, col int) byte {
	return f.Pattern[(row%2)*2+col%2]
}

type bayerOffset struct{ x, y int }

// Offsets that move each rotation onto the RGGB layout.
var bayerOffsets = map[string]bayerOffset{
	"RGGB": {0, 0},
	"GRBG": {1, 0},
	"BGGR": {1, 1},
	"GBRG": {0, 1},
}

// DetectPattern reads the 2x2 filter arrangement from a colour lookup.
func DetectPattern(color func(row, col int) byte) string {
	return string([]byte{color(0, 0), color(0, 1), color(1, 0), color(1, 1)})
}

// DecodeMosaic lays the raw samples out so that pixel (0,0) is always a red
// filter site, whatever the sensor's rotation.
func DecodeMosaic(f *RawFrame) (*PixelBuffer, error) {
	pattern := DetectPattern(f.Color)
	off, ok := bayerOffsets[pattern]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported colour filter pattern %q", model.ErrDecode, pattern)
	}
	stride := f.RawWidth
	if stride == 0 {
		stride = f.Width
	}
	if len(f.Samples) < stride*(f.Height-1)+f.Width {
		return nil, fmt.Errorf("%w: raw frame holds %d samples, need %dx%d with stride %d",
			model.ErrDecode, len(f.Samples), f.Width, f.Height, stride)
	}

	buf := NewPixelBuffer(f.Width, f.Height, 1)
	for y := 0; y < f.Height-off.y; y++ {
		for x := 0; x < f.Width-off.x; x++ {
			buf.Set(x+off.x, y+off.y, 0, int32(f.Samples[stride*y+x]))
		}
	}
	return buf, nil
}

// rggbColor is the filter colour at x, y of a buffer produced by DecodeMosaic.
func rggbColor(x, y int) byte {
	return "RGGB"[(y%2)*2+x%2]
}
