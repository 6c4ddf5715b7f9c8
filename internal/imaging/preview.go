package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Preview renders b as an 8-bit image stretched between its min and max,
// scaled so neither side exceeds maxDim (0 keeps the native size).
func Preview(b *PixelBuffer, maxDim int) image.Image {
	st := BufferStats(b)
	span := int64(st.Max) - int64(st.Min)
	if span <= 0 {
		span = 1
	}
	level := func(v int32) uint8 {
		return uint8((int64(v) - int64(st.Min)) * 255 / span)
	}

	var src image.Image
	if b.Rank() == 2 {
		g := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				g.SetGray(x, y, color.Gray{Y: level(b.At(x, y, 0))})
			}
		}
		src = g
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				rgba.SetRGBA(x, y, color.RGBA{
					R: level(b.At(x, y, 0)),
					G: level(b.At(x, y, 1)),
					B: level(b.At(x, y, 2)),
					A: 255,
				})
			}
		}
		src = rgba
	}

	if maxDim <= 0 || (b.Width <= maxDim && b.Height <= maxDim) {
		return src
	}
	w, h := maxDim, maxDim
	if b.Width >= b.Height {
		h = max(1, b.Height*maxDim/b.Width)
	} else {
		w = max(1, b.Width*maxDim/b.Height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
