package imaging

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/mj1618/dslr-remote/internal/model"
	"golang.org/x/image/draw"
)

// DecodeJPEG reads a JPEG into three planes (R, G, B) of 8-bit samples.
func DecodeJPEG(r io.Reader) (*PixelBuffer, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image to a three-plane 8-bit buffer.
func FromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	w, h := b.Dx(), b.Dy()
	buf := NewPixelBuffer(w, h, 3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < w; x++ {
			buf.Set(x, y, 0, int32(row[4*x]))
			buf.Set(x, y, 1, int32(row[4*x+1]))
			buf.Set(x, y, 2, int32(row[4*x+2]))
		}
	}
	return buf
}
