package model

import (
	"fmt"
	"strings"
)

// ImageFormat selects which file the remote app is expected to write and how
// it is decoded.
type ImageFormat string

const (
	FormatCFA       ImageFormat = "cfa"
	FormatDebayered ImageFormat = "debayered"
	FormatJPEG      ImageFormat = "jpg"
)

// ParseImageFormat converts a config or flag value to an ImageFormat.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cfa", "raw":
		return FormatCFA, nil
	case "debayered", "rgb":
		return FormatDebayered, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: unknown image format %q (expected cfa, debayered, or jpg)", ErrInvalidValue, s)
	}
}

// ShutterSpeed is one entry of the app's shutter-speed selector.
type ShutterSpeed struct {
	Name     string  `yaml:"name"`
	Duration float64 `yaml:"duration"`
	Bulb     bool    `yaml:"bulb,omitempty"`
}

// Sensor describes the imaging sensor of a camera body.
type Sensor struct {
	Name             string   `yaml:"name"`
	Width            float64  `yaml:"width"`  // mm
	Height           float64  `yaml:"height"` // mm
	FrameWidth       int      `yaml:"frame_width"`
	FrameHeight      int      `yaml:"frame_height"`
	CropWidth        int      `yaml:"crop_width"`
	CropHeight       int      `yaml:"crop_height"`
	PixelSizeWidth   float64  `yaml:"pixel_size_width"`
	PixelSizeHeight  float64  `yaml:"pixel_size_height"`
	MaxADU           int      `yaml:"max_adu"`
	ElectronsPerADU  float64  `yaml:"electrons_per_adu"`
	FullWellCapacity float64  `yaml:"full_well_capacity"`
	CCDTemperature   *float64 `yaml:"ccd_temperature,omitempty"`
	BayerPattern     string   `yaml:"bayer_pattern"`
}

// DefaultMaxADU is used when a sensor does not declare its bit depth.
const DefaultMaxADU = 16383

// CameraModel is the static description of one supported camera body and the
// selector values its remote app offers.
type CameraModel struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Sensor             Sensor   `yaml:"sensor"`
	CanStopExposure    bool     `yaml:"can_stop_exposure"`
	ExposureMin        float64  `yaml:"exposure_min"`
	ExposureMax        float64  `yaml:"exposure_max"`
	ExposureResolution float64  `yaml:"exposure_resolution"`
	AllGains           []string `yaml:"all_gains"`
	Gains              []int    `yaml:"gains"`
	ShutterSpeedNames  []string `yaml:"shutter_speeds"`
	RawExtension       string   `yaml:"raw_extension"`

	// ShutterSpeeds is resolved from the catalog's shutter speed map.
	ShutterSpeeds []ShutterSpeed `yaml:"-"`
}

// ReadoutWidth is the width of a decoded frame in the given format.
func (m CameraModel) ReadoutWidth(f ImageFormat) int {
	if f == FormatJPEG {
		return m.Sensor.CropWidth
	}
	return m.Sensor.FrameWidth
}

// ReadoutHeight is the height of a decoded frame in the given format.
func (m CameraModel) ReadoutHeight(f ImageFormat) int {
	if f == FormatJPEG {
		return m.Sensor.CropHeight
	}
	return m.Sensor.FrameHeight
}

// MaxADU is the largest sample value a decoded frame can hold.
func (m CameraModel) MaxADU(f ImageFormat) int {
	switch f {
	case FormatDebayered:
		return 65535
	case FormatJPEG:
		return 255
	}
	if m.Sensor.MaxADU == 0 {
		return DefaultMaxADU
	}
	return m.Sensor.MaxADU
}

// Extension is the file extension the app writes for the format.
func (m CameraModel) Extension(f ImageFormat) string {
	if f == FormatJPEG {
		return ".jpg"
	}
	if m.RawExtension != "" {
		return m.RawExtension
	}
	return ".arw"
}

// Catalog holds everything the engine knows about the remote app: window
// fingerprints in tie-break order, camera bodies and the shutter speed map.
type Catalog struct {
	ShutterSpeeds []ShutterSpeed   `yaml:"shutter_speeds"`
	Windows       []WindowTemplate `yaml:"windows"`
	Cameras       []CameraModel    `yaml:"cameras"`
}

// Window returns the template for a window type.
func (c *Catalog) Window(t WindowType) (WindowTemplate, bool) {
	for _, w := range c.Windows {
		if w.Type == t {
			return w, true
		}
	}
	return WindowTemplate{}, false
}

// Camera returns the model with the given ID (case-insensitive).
func (c *Catalog) Camera(id string) (CameraModel, error) {
	for _, m := range c.Cameras {
		if strings.EqualFold(m.ID, id) {
			return m, nil
		}
	}
	return CameraModel{}, fmt.Errorf("%w: unknown camera model %q", ErrInvalidValue, id)
}
