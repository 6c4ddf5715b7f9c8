// Package imaging decodes harvested image files into pixel buffers and
// computes statistics, crops and exports over them.
package imaging

import "fmt"

// PixelBuffer is a rank-2 (one plane) or rank-3 (three planes, R G B) array
// of samples. Planes are stored one after another, each row-major.
type PixelBuffer struct {
	Width  int
	Height int
	Planes int
	Pix    []int32
}

// NewPixelBuffer allocates a zeroed buffer.
func NewPixelBuffer(width, height, planes int) *PixelBuffer {
	if planes < 1 {
		planes = 1
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Planes: planes,
		Pix:    make([]int32, width*height*planes),
	}
}

// Rank is 2 for single-plane buffers and 3 otherwise.
func (b *PixelBuffer) Rank() int {
	if b.Planes > 1 {
		return 3
	}
	return 2
}

func (b *PixelBuffer) offset(x, y, p int) int {
	return (p*b.Height+y)*b.Width + x
}

// At returns the sample at x, y in plane p.
func (b *PixelBuffer) At(x, y, p int) int32 {
	return b.Pix[b.offset(x, y, p)]
}

// Set stores v at x, y in plane p.
func (b *PixelBuffer) Set(x, y, p int, v int32) {
	b.Pix[b.offset(x, y, p)] = v
}

// Plane returns the samples of plane p.
func (b *PixelBuffer) Plane(p int) []int32 {
	n := b.Width * b.Height
	return b.Pix[p*n : (p+1)*n]
}

func (b *PixelBuffer) String() string {
	return fmt.Sprintf("%dx%dx%d", b.Width, b.Height, b.Planes)
}
