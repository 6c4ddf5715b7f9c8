// Package config loads the layered dslr-remote configuration: built-in
// defaults, an optional YAML file, DSLR_ environment variables and command
// line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"
	yml "gopkg.in/yaml.v3"

	"github.com/mj1618/dslr-remote/internal/automation"
	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/watch"
)

// FileName is the config file looked up when --config is not given.
const FileName = "dslr-remote.yml"

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore: DSLR_LOG__LEVEL=debug sets log.level.
const EnvPrefix = "DSLR_"

// Duration is a time.Duration that reads and writes as "500ms".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type App struct {
	// Title is the exact window title of the remote app.
	Title string `koanf:"title" yaml:"title"`
	// Path launches the app when no window is open.
	Path string `koanf:"path" yaml:"path"`
}

type Delays struct {
	StepSettle    Duration `koanf:"step_settle" yaml:"step_settle"`
	ProbeInterval Duration `koanf:"probe_interval" yaml:"probe_interval"`
	SelectCamera  Duration `koanf:"select_camera" yaml:"select_camera"`
	FolderFix     Duration `koanf:"folder_fix" yaml:"folder_fix"`
	Discovery     Duration `koanf:"discovery" yaml:"discovery"`
	FilePoll      Duration `koanf:"file_poll" yaml:"file_poll"`
	FileSettle    Duration `koanf:"file_settle" yaml:"file_settle"`
}

type Log struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Config is an immutable snapshot. The With methods return modified copies.
type Config struct {
	App         App    `koanf:"app" yaml:"app"`
	Camera      string `koanf:"camera" yaml:"camera"`
	ImageFormat string `koanf:"image_format" yaml:"image_format"`
	AutoDelete  bool   `koanf:"auto_delete" yaml:"auto_delete"`
	BulbMode    bool   `koanf:"bulb_mode" yaml:"bulb_mode"`
	// Gain indexes the camera model's gain list.
	Gain    int    `koanf:"gain" yaml:"gain"`
	SaveDir string `koanf:"save_dir" yaml:"save_dir"`
	// Catalog replaces the built-in window and camera catalog when set.
	Catalog string `koanf:"catalog" yaml:"catalog"`
	Delays  Delays `koanf:"delays" yaml:"delays"`
	Log     Log    `koanf:"log" yaml:"log"`
	Journal string `koanf:"journal" yaml:"journal"`
	// HTTPAddr enables the REST API of serve when set.
	HTTPAddr string `koanf:"http_addr" yaml:"http_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := automation.DefaultOptions()
	wopts := watch.DefaultOptions()
	return Config{
		App: App{
			Title: opts.Title,
			Path:  `C:\Program Files\Sony\Imaging Edge\Remote.exe`,
		},
		Camera:      "ILCE-7M3",
		ImageFormat: string(model.FormatCFA),
		SaveDir:     defaultSaveDir(),
		Delays: Delays{
			StepSettle:    Duration(opts.StepSettle),
			ProbeInterval: Duration(opts.ProbeInterval),
			SelectCamera:  Duration(opts.SelectCameraDelay),
			FolderFix:     Duration(opts.FolderFixDelay),
			Discovery:     Duration(opts.DiscoveryInterval),
			FilePoll:      Duration(wopts.PollInterval),
			FileSettle:    Duration(wopts.Settle),
		},
		Log:     Log{Level: "info", Format: "text"},
		Journal: defaultJournal(),
	}
}

func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "dslr-remote")
	}
	return filepath.Join(home, "Pictures")
}

func defaultJournal() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dslr-remote", "journal.db")
}

// flagKeys maps command line flags onto config keys. Other flags are not
// configuration.
var flagKeys = map[string]string{
	"camera":       "camera",
	"image-format": "image_format",
	"bulb":         "bulb_mode",
	"gain":         "gain",
	"auto-delete":  "auto_delete",
	"save-dir":     "save_dir",
	"catalog":      "catalog",
	"app-path":     "app.path",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"journal":      "journal",
	"http":         "http_addr",
}

// Load layers defaults, the YAML file at path (a missing file is not an
// error), the environment and the changed flags of fs.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}
	if flags != nil {
		err := k.Load(posflag.ProviderWithValue(flags, ".", k, func(name, value string) (string, interface{}) {
			key, ok := flagKeys[name]
			if !ok || !flags.Changed(name) {
				return "", nil
			}
			return key, value
		}), nil)
		if err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks values that cannot be caught by decoding.
func (c Config) Validate() error {
	if _, err := model.ParseImageFormat(c.ImageFormat); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q (expected text or json)", model.ErrInvalidValue, c.Log.Format)
	}
	if c.Gain < 0 {
		return fmt.Errorf("%w: gain index %d", model.ErrInvalidValue, c.Gain)
	}
	if c.App.Title == "" {
		return fmt.Errorf("%w: app.title is empty", model.ErrInvalidValue)
	}
	return nil
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", model.ErrInvalidValue, s)
	}
	return l, nil
}

// Format returns the parsed image format. Load has validated it.
func (c Config) Format() model.ImageFormat {
	f, _ := model.ParseImageFormat(c.ImageFormat)
	return f
}

func (c Config) WithImageFormat(f model.ImageFormat) Config {
	c.ImageFormat = string(f)
	return c
}

func (c Config) WithCamera(id string) Config {
	c.Camera = id
	return c
}

func (c Config) WithGain(index int) Config {
	c.Gain = index
	return c
}

func (c Config) WithBulbMode(on bool) Config {
	c.BulbMode = on
	return c
}

// AutomationOptions returns the driver timings.
func (c Config) AutomationOptions() automation.Options {
	o := automation.DefaultOptions()
	o.Title = c.App.Title
	o.AppPath = c.App.Path
	o.StepSettle = time.Duration(c.Delays.StepSettle)
	o.ProbeInterval = time.Duration(c.Delays.ProbeInterval)
	o.SelectCameraDelay = time.Duration(c.Delays.SelectCamera)
	o.FolderFixDelay = time.Duration(c.Delays.FolderFix)
	o.DiscoveryInterval = time.Duration(c.Delays.Discovery)
	return o
}

// CameraOptions returns the exposure and watcher timings.
func (c Config) CameraOptions() camera.Options {
	o := camera.DefaultOptions()
	o.Watch.PollInterval = time.Duration(c.Delays.FilePoll)
	o.Watch.Settle = time.Duration(c.Delays.FileSettle)
	return o
}

// CameraSettings resolves the configured camera model in cat.
func (c Config) CameraSettings(cat *model.Catalog) (camera.Settings, error) {
	m, err := cat.Camera(c.Camera)
	if err != nil {
		return camera.Settings{}, err
	}
	s := camera.Settings{
		Model:      m,
		Format:     c.Format(),
		GainIndex:  c.Gain,
		BulbMode:   c.BulbMode,
		AutoDelete: c.AutoDelete,
		SaveDir:    c.SaveDir,
	}
	if _, err := s.Gain(); err != nil {
		return camera.Settings{}, err
	}
	return s, nil
}

// Write encodes c as YAML, the format Load reads.
func (c Config) Write(w io.Writer) error {
	enc := yml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
