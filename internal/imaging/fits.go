package imaging

import (
	"io"

	"github.com/astrogo/fitsio"
)

// WriteFITS streams b as a 16-bit FITS image. Three-plane buffers get a
// third axis of length 3.
func WriteFITS(w io.Writer, b *PixelBuffer, metadata []fitsio.Card) error {
	metadata = append(metadata, fitsio.Card{Name: "BZERO", Value: 32768}, fitsio.Card{Name: "BSCALE", Value: 1.0})
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()

	dims := []int{b.Width, b.Height}
	if b.Planes > 1 {
		dims = append(dims, b.Planes)
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	if err := im.Header().Append(metadata...); err != nil {
		return err
	}

	ints := make([]int16, len(b.Pix))
	for i, v := range b.Pix {
		ints[i] = int16(int32(clampUint16(float64(v))) - 32768)
	}
	if err := im.Write(ints); err != nil {
		return err
	}
	return fits.Write(im)
}
