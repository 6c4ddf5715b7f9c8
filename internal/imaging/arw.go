package imaging

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mj1618/dslr-remote/internal/model"
)

// TIFF tags read from Sony raw files.
const (
	tagImageWidth     = 0x0100
	tagImageLength    = 0x0101
	tagBitsPerSample  = 0x0102
	tagCompression    = 0x0103
	tagPhotometric    = 0x0106
	tagStripOffsets   = 0x0111
	tagStripByteCount = 0x0117
	tagSubIFDs        = 0x014A
	tagCFARepeatDim   = 0x828D
	tagCFAPattern     = 0x828E

	photometricCFA    = 32803
	compressionNone   = 1
	compressionSonyV2 = 32767
)

// ifdEntry is one directory entry with its values decoded to uint32.
type ifdEntry struct {
	typ    uint16
	values []uint32
}

type ifd map[uint16]ifdEntry

func (d ifd) first(tag uint16) (uint32, bool) {
	e, ok := d[tag]
	if !ok || len(e.values) == 0 {
		return 0, false
	}
	return e.values[0], true
}

// tiffFile walks the directories of an in-memory TIFF container.
type tiffFile struct {
	data  []byte
	order binary.ByteOrder
}

func parseTIFF(data []byte) (*tiffFile, uint32, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("%w: file too short for a TIFF header", model.ErrDecode)
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("%w: not a TIFF container", model.ErrDecode)
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, 0, fmt.Errorf("%w: bad TIFF magic", model.ErrDecode)
	}
	return &tiffFile{data: data, order: order}, order.Uint32(data[4:8]), nil
}

// typeSize is the byte size of the TIFF field types used here.
func typeSize(typ uint16) int {
	switch typ {
	case 1, 2, 6, 7: // BYTE ASCII SBYTE UNDEFINED
		return 1
	case 3, 8: // SHORT SSHORT
		return 2
	case 4, 9, 13: // LONG SLONG IFD
		return 4
	}
	return 0
}

func (t *tiffFile) readIFD(off uint32) (ifd, error) {
	if uint64(off)+2 > uint64(len(t.data)) {
		return nil, fmt.Errorf("%w: directory offset %d out of range", model.ErrDecode, off)
	}
	n := int(t.order.Uint16(t.data[off:]))
	start := int(off) + 2
	if start+n*12 > len(t.data) {
		return nil, fmt.Errorf("%w: truncated directory at %d", model.ErrDecode, off)
	}
	dir := ifd{}
	for i := 0; i < n; i++ {
		e := t.data[start+i*12 : start+(i+1)*12]
		tag := t.order.Uint16(e[0:])
		typ := t.order.Uint16(e[2:])
		count := int(t.order.Uint32(e[4:]))
		size := typeSize(typ)
		if size == 0 {
			continue
		}
		raw := e[8:12]
		if size*count > 4 {
			voff := int(t.order.Uint32(e[8:]))
			if count > len(t.data) || voff < 0 || voff+size*count > len(t.data) {
				return nil, fmt.Errorf("%w: tag %#x values out of range", model.ErrDecode, tag)
			}
			raw = t.data[voff : voff+size*count]
		}
		values := make([]uint32, count)
		for j := range values {
			switch size {
			case 1:
				values[j] = uint32(raw[j])
			case 2:
				values[j] = uint32(t.order.Uint16(raw[j*2:]))
			case 4:
				values[j] = t.order.Uint32(raw[j*4:])
			}
		}
		dir[tag] = ifdEntry{typ: typ, values: values}
	}
	return dir, nil
}

// ReadARWFrame reads the CFA directory of a Sony raw file. The first
// directory holds a preview; the sensor data lives in a SubIFD. Only
// uncompressed raw files are supported.
func ReadARWFrame(r io.Reader, fallbackPattern string) (*RawFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	t, off, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}
	ifd0, err := t.readIFD(off)
	if err != nil {
		return nil, err
	}

	candidates := []ifd{ifd0}
	if sub, ok := ifd0[tagSubIFDs]; ok {
		for _, o := range sub.values {
			d, err := t.readIFD(o)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, d)
		}
	}
	for _, d := range candidates {
		if p, _ := d.first(tagPhotometric); p == photometricCFA {
			return t.cfaFrame(d, fallbackPattern)
		}
	}
	return nil, fmt.Errorf("%w: no CFA image directory", model.ErrDecode)
}

func (t *tiffFile) cfaFrame(d ifd, fallbackPattern string) (*RawFrame, error) {
	w, _ := d.first(tagImageWidth)
	h, _ := d.first(tagImageLength)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: CFA directory has no dimensions", model.ErrDecode)
	}
	switch c, _ := d.first(tagCompression); c {
	case compressionNone:
	case compressionSonyV2:
		return nil, fmt.Errorf("%w: compressed Sony raw is not supported, set the camera to uncompressed RAW", model.ErrDecode)
	default:
		return nil, fmt.Errorf("%w: unsupported raw compression %d", model.ErrDecode, c)
	}
	// Sony stores 12 and 14 bit samples in 16-bit containers.
	if bits, ok := d.first(tagBitsPerSample); ok && (bits < 12 || bits > 16) {
		return nil, fmt.Errorf("%w: unsupported %d-bit raw samples", model.ErrDecode, bits)
	}

	offsets, counts := d[tagStripOffsets].values, d[tagStripByteCount].values
	if len(offsets) == 0 || len(offsets) != len(counts) {
		return nil, fmt.Errorf("%w: CFA directory has no strips", model.ErrDecode)
	}
	n := int(w) * int(h)
	if n*2 > len(t.data) {
		return nil, fmt.Errorf("%w: %dx%d frame larger than the file", model.ErrDecode, w, h)
	}
	pix := make([]byte, 0, n*2)
	for i, o := range offsets {
		end := uint64(o) + uint64(counts[i])
		if end > uint64(len(t.data)) {
			return nil, fmt.Errorf("%w: strip %d out of range", model.ErrDecode, i)
		}
		pix = append(pix, t.data[o:end]...)
	}
	if len(pix) < n*2 {
		return nil, fmt.Errorf("%w: %d bytes of sensor data for %dx%d", model.ErrDecode, len(pix), w, h)
	}
	samples := make([]uint16, n)
	for i := range samples {
		samples[i] = t.order.Uint16(pix[i*2:])
	}

	pattern := fallbackPattern
	if p, ok := cfaPattern(d); ok {
		pattern = p
	}
	return &RawFrame{
		Width:    int(w),
		Height:   int(h),
		RawWidth: int(w),
		Samples:  samples,
		Pattern:  normalizePattern(pattern),
	}, nil
}

// cfaPattern turns a 2x2 CFAPattern tag into letters.
func cfaPattern(d ifd) (string, bool) {
	if dim := d[tagCFARepeatDim].values; len(dim) == 2 && (dim[0] != 2 || dim[1] != 2) {
		return "", false
	}
	v := d[tagCFAPattern].values
	if len(v) != 4 {
		return "", false
	}
	out := make([]byte, 4)
	for i, c := range v {
		switch c {
		case 0:
			out[i] = 'R'
		case 1:
			out[i] = 'G'
		case 2:
			out[i] = 'B'
		default:
			return "", false
		}
	}
	return string(out), true
}
