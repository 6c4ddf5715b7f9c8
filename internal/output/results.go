package output

import (
	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/journal"
	"github.com/mj1618/dslr-remote/internal/model"
)

// StateResult is the output of the `state` command.
type StateResult struct {
	State   model.WindowType `yaml:"state"             json:"state"`
	Windows int              `yaml:"windows"           json:"windows"`
	Waited  float64          `yaml:"waited,omitempty"  json:"waited,omitempty"`
}

// TreeWindow is one remote-app window in the `tree` output.
type TreeWindow struct {
	Handle   model.ControlHandle `yaml:"handle"          json:"handle"`
	State    model.WindowType    `yaml:"state,omitempty" json:"state,omitempty"`
	Controls []model.FlatControl `yaml:"controls"        json:"controls"`
}

// TreeResult is the output of the `tree` command.
type TreeResult struct {
	Title   string       `yaml:"title"   json:"title"`
	Windows []TreeWindow `yaml:"windows" json:"windows"`
}

// ControlResult is the output of `press` and `text`.
type ControlResult struct {
	Window  model.WindowType `yaml:"window"          json:"window"`
	Control string           `yaml:"control"         json:"control"`
	Text    *string          `yaml:"text,omitempty"  json:"text,omitempty"`
	OK      bool             `yaml:"ok"              json:"ok"`
}

// ConnectResult is the output of `connect`.
type ConnectResult struct {
	Connected bool             `yaml:"connected"        json:"connected"`
	Camera    string           `yaml:"camera"           json:"camera"`
	State     model.WindowType `yaml:"state"            json:"state"`
	Folder    string           `yaml:"folder,omitempty" json:"folder,omitempty"`
}

// ImageResult describes a decoded image.
type ImageResult struct {
	File    string             `yaml:"file,omitempty"    json:"file,omitempty"`
	Format  model.ImageFormat  `yaml:"format"            json:"format"`
	Width   int                `yaml:"width"             json:"width"`
	Height  int                `yaml:"height"            json:"height"`
	Planes  int                `yaml:"planes"            json:"planes"`
	Stats   imaging.Statistics `yaml:"stats"             json:"stats"`
	FITS    string             `yaml:"fits,omitempty"    json:"fits,omitempty"`
	Preview string             `yaml:"preview,omitempty" json:"preview,omitempty"`
}

// NewImageResult summarises b.
func NewImageResult(file string, format model.ImageFormat, b *imaging.PixelBuffer) ImageResult {
	return ImageResult{
		File:   file,
		Format: format,
		Width:  b.Width,
		Height: b.Height,
		Planes: b.Planes,
		Stats:  imaging.BufferStats(b),
	}
}

// ExposureResult is the output of `expose`.
type ExposureResult struct {
	Camera   string              `yaml:"camera"          json:"camera"`
	Duration float64             `yaml:"duration"        json:"duration"`
	Gain     int                 `yaml:"gain"            json:"gain"`
	Bulb     bool                `yaml:"bulb,omitempty"  json:"bulb,omitempty"`
	State    model.ExposureState `yaml:"state"           json:"state"`
	Image    *ImageResult        `yaml:"image,omitempty" json:"image,omitempty"`
}

// HistoryResult is the output of `history`.
type HistoryResult struct {
	Exposures []journal.Entry `yaml:"exposures" json:"exposures"`
}

// CameraStatus is a snapshot of the camera's polled properties.
type CameraStatus struct {
	Connected        bool                `yaml:"connected"         json:"connected"`
	Camera           string              `yaml:"camera"            json:"camera"`
	State            model.ExposureState `yaml:"state"             json:"state"`
	PercentCompleted int                 `yaml:"percent_completed" json:"percent_completed"`
	ImageReady       bool                `yaml:"image_ready"       json:"image_ready"`
	Format           model.ImageFormat   `yaml:"format"            json:"format"`
	Gain             int                 `yaml:"gain"              json:"gain"`
	Bulb             bool                `yaml:"bulb"              json:"bulb"`
	Width            int                 `yaml:"width"             json:"width"`
	Height           int                 `yaml:"height"            json:"height"`
	MaxADU           int                 `yaml:"max_adu"           json:"max_adu"`
	SensorType       string              `yaml:"sensor_type"       json:"sensor_type"`
}
