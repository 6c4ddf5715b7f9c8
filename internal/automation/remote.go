// Package automation drives the remote app through its window hierarchy:
// it recognises which screen is showing, presses buttons, reads labels and
// steps selectors to requested values.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
	"golang.org/x/time/rate"
)

// Main window control names.
const (
	ControlShutterButton   = "shutterButton"
	ControlShutterSpeed    = "shutterSpeedLabel"
	ControlShutterIncrease = "shutterSpeedIncreaseButton"
	ControlShutterDecrease = "shutterSpeedDecreaseButton"
	ControlISO             = "isoLabel"
	ControlISOIncrease     = "isoIncreaseButton"
	ControlISODecrease     = "isoDecreaseButton"
	ControlFolder          = "folderCombobox"
	ControlOK              = "ok"
	ControlCameraList      = "listView"
)

// Options tunes timing and discovery of the remote app.
type Options struct {
	Title   string
	AppPath string

	StepSettle        time.Duration
	ProbeInterval     time.Duration
	SelectCameraDelay time.Duration
	FolderFixDelay    time.Duration
	DiscoveryInterval time.Duration
	DiscoveryRetries  int
	MaxProbes         int
	MaxRounds         int

	ListHeaderHeight int
	ListRowHeight    int
}

// DefaultOptions returns the timings the remote app is known to tolerate.
func DefaultOptions() Options {
	return Options{
		Title:             "Remote",
		StepSettle:        200 * time.Millisecond,
		ProbeInterval:     500 * time.Millisecond,
		SelectCameraDelay: 2 * time.Second,
		FolderFixDelay:    10 * time.Second,
		DiscoveryInterval: 500 * time.Millisecond,
		DiscoveryRetries:  10,
		MaxProbes:         20,
		MaxRounds:         5,
		ListHeaderHeight:  24,
		ListRowHeight:     17,
	}
}

// Remote is the UI-automation driver for one remote-app instance.
type Remote struct {
	reader   platform.Reader
	inputter platform.Inputter
	launcher platform.Launcher
	matcher  *Matcher
	camera   model.CameraModel
	opts     Options
	log      *slog.Logger
	limiter  *rate.Limiter

	connected atomic.Bool
	// mu serialises probe+input sequences so a resolved handle is used
	// before another goroutine re-probes.
	mu sync.Mutex
}

// NewRemote creates a driver. The launcher may be nil when the app is
// started by other means.
func NewRemote(p *platform.Provider, cat *model.Catalog, cam model.CameraModel, opts Options, log *slog.Logger) *Remote {
	if log == nil {
		log = slog.Default()
	}
	limit := rate.Inf
	if opts.StepSettle > 0 {
		limit = rate.Every(opts.StepSettle)
	}
	return &Remote{
		reader:   p.Reader,
		inputter: p.Inputter,
		launcher: p.Launcher,
		matcher:  &Matcher{Reader: p.Reader, Catalog: cat, Title: opts.Title},
		camera:   cam,
		opts:     opts,
		log:      log.With("component", "automation"),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Camera returns the camera model the driver steps selectors for.
func (r *Remote) Camera() model.CameraModel {
	return r.camera
}

// Connected reports whether Connect reached the main window.
func (r *Remote) Connected() bool {
	return r.connected.Load()
}

// Detect probes the current window state. It does not require a connection.
func (r *Remote) Detect() (Probe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matcher.Detect()
}

func (r *Remote) checkConnected() error {
	if !r.connected.Load() {
		return model.ErrNotConnected
	}
	return nil
}

// locate probes and resolves name, requiring the app to show state.
func (r *Remote) locate(state model.WindowType, name string) (model.ControlHandle, error) {
	probe, err := r.matcher.Detect()
	if err != nil {
		return 0, err
	}
	if probe.State != state {
		return 0, fmt.Errorf("%w: %q expects %s window, app shows %s", model.ErrControlNotFound, name, state, probe.State)
	}
	return probe.Control(name)
}

// PressButton clicks a named control of the given window.
func (r *Remote) PressButton(ctx context.Context, state model.WindowType, name string) error {
	if err := r.checkConnected(); err != nil {
		return err
	}
	return r.press(ctx, state, name)
}

func (r *Remote) press(ctx context.Context, state model.WindowType, name string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.locate(state, name)
	if err != nil {
		return err
	}
	r.log.Debug("press", "window", state, "control", name, "handle", uintptr(h))
	return r.inputter.Click(h)
}

// ReadText returns the caption of a named control of the given window.
func (r *Remote) ReadText(ctx context.Context, state model.WindowType, name string) (string, error) {
	if err := r.checkConnected(); err != nil {
		return "", err
	}
	return r.readText(ctx, state, name)
}

func (r *Remote) readText(ctx context.Context, state model.WindowType, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.locate(state, name)
	if err != nil {
		return "", err
	}
	return r.reader.WindowText(h)
}

// SelectListItem selects row index of a list control by clicking on it;
// a double click confirms the choice.
func (r *Remote) SelectListItem(ctx context.Context, state model.WindowType, name string, index int) error {
	if err := r.checkConnected(); err != nil {
		return err
	}
	return r.selectListItem(ctx, state, name, index)
}

func (r *Remote) selectListItem(ctx context.Context, state model.WindowType, name string, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: list index %d", model.ErrInvalidValue, index)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.locate(state, name)
	if err != nil {
		return err
	}
	y := r.opts.ListHeaderHeight + index*r.opts.ListRowHeight + r.opts.ListRowHeight/2
	r.log.Debug("select list item", "control", name, "index", index, "y", y)
	return r.inputter.ClickAt(h, 10, y, 2)
}

// PressShutter clicks the main window's shutter button.
func (r *Remote) PressShutter(ctx context.Context) error {
	return r.PressButton(ctx, model.WindowMain, ControlShutterButton)
}

// SaveFolder reads the folder the app currently writes images to.
func (r *Remote) SaveFolder(ctx context.Context) (string, error) {
	text, err := r.ReadText(ctx, model.WindowMain, ControlFolder)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (r *Remote) stepper(name, label, inc, dec string, values []string, normalize func(string) string) *Stepper {
	return &Stepper{
		Name:   name,
		Values: values,
		Current: func(ctx context.Context) (string, error) {
			text, err := r.ReadText(ctx, model.WindowMain, label)
			if err != nil {
				return "", err
			}
			return normalize(text), nil
		},
		Increase:  func(ctx context.Context) error { return r.PressButton(ctx, model.WindowMain, inc) },
		Decrease:  func(ctx context.Context) error { return r.PressButton(ctx, model.WindowMain, dec) },
		Settle:    r.opts.StepSettle,
		MaxRounds: r.opts.MaxRounds,
	}
}

// ISOStepper returns the stepper over the camera's ISO selector.
func (r *Remote) ISOStepper() *Stepper {
	return r.stepper("ISO", ControlISO, ControlISOIncrease, ControlISODecrease, r.camera.AllGains, normalizeISO)
}

// ShutterStepper returns the stepper over the camera's shutter speed selector.
func (r *Remote) ShutterStepper() *Stepper {
	names := make([]string, len(r.camera.ShutterSpeeds))
	for i, s := range r.camera.ShutterSpeeds {
		names[i] = s.Name
	}
	return r.stepper("shutter speed", ControlShutterSpeed, ControlShutterIncrease, ControlShutterDecrease, names, strings.TrimSpace)
}

// SetISO steps the ISO selector to iso.
func (r *Remote) SetISO(ctx context.Context, iso int) error {
	if err := r.checkConnected(); err != nil {
		return err
	}
	r.log.Info("set iso", "iso", iso)
	return r.ISOStepper().Adjust(ctx, strconv.Itoa(iso))
}

// SetShutterSpeed steps the shutter selector to the entry chosen for seconds.
func (r *Remote) SetShutterSpeed(ctx context.Context, seconds float64, bulb bool) error {
	if err := r.checkConnected(); err != nil {
		return err
	}
	speed, err := SelectShutterSpeed(r.camera.ShutterSpeeds, seconds, bulb)
	if err != nil {
		return err
	}
	r.log.Info("set shutter speed", "requested", seconds, "bulb", bulb, "selected", speed.Name)
	return r.ShutterStepper().Adjust(ctx, speed.Name)
}

func normalizeISO(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "ISO")
	return strings.TrimSpace(s)
}
