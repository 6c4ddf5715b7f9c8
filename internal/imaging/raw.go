package imaging

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/mj1618/dslr-remote/internal/model"
	"golang.org/x/image/tiff"
)

// RawReader extracts a RawFrame from a raw image file. fallbackPattern is
// used when the file does not record its filter arrangement.
type RawReader func(r io.Reader, fallbackPattern string) (*RawFrame, error)

var rawReaders = map[string]RawReader{
	".fits": ReadFITSFrame,
	".fit":  ReadFITSFrame,
	".fts":  ReadFITSFrame,
	".tif":  ReadTIFFFrame,
	".tiff": ReadTIFFFrame,
	".dng":  ReadTIFFFrame,
	".arw":  ReadARWFrame,
}

// RawReaderFor returns the reader registered for a file extension.
func RawReaderFor(ext string) (RawReader, error) {
	rd, ok := rawReaders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: no raw reader for %q files", model.ErrDecode, ext)
	}
	return rd, nil
}

func normalizePattern(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// ReadFITSFrame reads the primary HDU of a 2-D FITS image. The BAYERPAT
// keyword, when present, overrides fallbackPattern and BZERO is applied.
func ReadFITSFrame(r io.Reader, fallbackPattern string) (*RawFrame, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	defer f.Close()

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%w: primary HDU is not an image", model.ErrDecode)
	}
	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) != 2 {
		return nil, fmt.Errorf("%w: expected a 2-D mosaic, got axes %v", model.ErrDecode, axes)
	}
	width, height := axes[0], axes[1]
	n := width * height

	pattern := fallbackPattern
	if card := hdr.Get("BAYERPAT"); card != nil {
		if s, ok := card.Value.(string); ok {
			pattern = s
		}
	}
	var bzero float64
	if card := hdr.Get("BZERO"); card != nil {
		bzero = cardFloat(card.Value)
	}

	samples := make([]uint16, n)
	switch hdr.Bitpix() {
	case 16:
		data := make([]int16, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
		}
		for i, v := range data {
			samples[i] = clampUint16(float64(v) + bzero)
		}
	case 8:
		data := make([]byte, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
		}
		for i, v := range data {
			samples[i] = clampUint16(float64(v) + bzero)
		}
	case 32:
		data := make([]int32, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
		}
		for i, v := range data {
			samples[i] = clampUint16(float64(v) + bzero)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported BITPIX %d", model.ErrDecode, hdr.Bitpix())
	}

	return &RawFrame{
		Width:    width,
		Height:   height,
		RawWidth: width,
		Samples:  samples,
		Pattern:  normalizePattern(pattern),
	}, nil
}

// ReadTIFFFrame reads a single-channel TIFF mosaic.
func ReadTIFFFrame(r io.Reader, fallbackPattern string) (*RawFrame, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	samples := make([]uint16, w*h)
	switch m := img.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				samples[y*w+x] = m.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				samples[y*w+x] = uint16(m.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		return nil, fmt.Errorf("%w: TIFF holds %T, expected a single-channel mosaic", model.ErrDecode, img)
	}
	return &RawFrame{
		Width:    w,
		Height:   h,
		RawWidth: w,
		Samples:  samples,
		Pattern:  normalizePattern(fallbackPattern),
	}, nil
}

func cardFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	}
	return 0
}

func clampUint16(v float64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > 65535:
		return 65535
	}
	return uint16(v)
}
