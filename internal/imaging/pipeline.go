package imaging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mj1618/dslr-remote/internal/model"
)

// Pipeline decodes files of one configured format. It is not safe for
// concurrent use with the same output buffers, and callers serialise access.
type Pipeline struct {
	Format model.ImageFormat
	// Pattern is the sensor's filter arrangement for files that do not
	// record one.
	Pattern string
}

// Decode reads path into a buffer: a mosaic for CFA, three planes for
// debayered and JPEG.
func (p Pipeline) Decode(path string) (*PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	defer f.Close()

	switch p.Format {
	case model.FormatJPEG:
		return DecodeJPEG(f)
	case model.FormatCFA, model.FormatDebayered:
		read, err := RawReaderFor(filepath.Ext(path))
		if err != nil {
			return nil, err
		}
		frame, err := read(f, p.Pattern)
		if err != nil {
			return nil, err
		}
		mosaic, err := DecodeMosaic(frame)
		if err != nil {
			return nil, err
		}
		if p.Format == model.FormatDebayered {
			return Debayer(mosaic), nil
		}
		return mosaic, nil
	default:
		return nil, fmt.Errorf("%w: unsupported image format %q", model.ErrDecode, p.Format)
	}
}
