package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/watch"
)

var errAborted = errors.New("exposure aborted")

// Driver is the UI-automation driver: an exposure Remote that can also
// connect to the app.
type Driver interface {
	Remote
	Connect(ctx context.Context) error
	Disconnect()
}

// Settings is an immutable snapshot of the user's camera configuration.
// The With methods return modified copies.
type Settings struct {
	Model      model.CameraModel
	Format     model.ImageFormat
	GainIndex  int
	BulbMode   bool
	AutoDelete bool
	// SaveDir is watched until the app reports its own folder.
	SaveDir string
}

func (s Settings) WithFormat(f model.ImageFormat) Settings {
	s.Format = f
	return s
}

func (s Settings) WithGainIndex(i int) Settings {
	s.GainIndex = i
	return s
}

func (s Settings) WithBulbMode(on bool) Settings {
	s.BulbMode = on
	return s
}

func (s Settings) WithModel(m model.CameraModel) Settings {
	s.Model = m
	return s
}

// Gain returns the ISO value for GainIndex.
func (s Settings) Gain() (int, error) {
	if s.GainIndex < 0 || s.GainIndex >= len(s.Model.Gains) {
		return 0, fmt.Errorf("%w: gain index %d outside 0..%d", model.ErrInvalidValue, s.GainIndex, len(s.Model.Gains)-1)
	}
	return s.Model.Gains[s.GainIndex], nil
}

func (s Settings) pipeline() imaging.Pipeline {
	return imaging.Pipeline{Format: s.Format, Pattern: s.Model.Sensor.BayerPattern}
}

// Options holds timings, mostly shortened in tests.
type Options struct {
	Tick  time.Duration
	Watch watch.Options
	// Recorder, when set, is told about every finished exposure.
	Recorder Recorder
}

// DefaultOptions returns one-second ticks and the watcher defaults.
func DefaultOptions() Options {
	return Options{Tick: time.Second, Watch: watch.DefaultOptions()}
}

// Exposure is the journal record of one finished exposure.
type Exposure struct {
	Start    time.Time
	Duration float64
	Gain     int
	Bulb     bool
	Format   model.ImageFormat
	Camera   string
	Outcome  model.ExposureState
	Path     string
	Stats    *imaging.Statistics
	Err      string
}

// Recorder persists finished exposures.
type Recorder interface {
	RecordExposure(ctx context.Context, e Exposure) error
}

// Camera is the device surface over the remote app: synchronous calls that
// start work in the background and state that callers poll.
type Camera struct {
	driver   Driver
	exposer  *Exposer
	watcher  *watch.Watcher
	recorder Recorder
	log      *slog.Logger
	state    model.AtomicState
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.Mutex
	settings   Settings
	roi        imaging.ROI
	image      *imaging.PixelBuffer
	imageReady bool
	stats      imaging.Statistics
	current    *Exposure
	last       *Exposure
}

// New creates a camera and starts its watcher and event loop. Close stops
// them.
func New(driver Driver, s Settings, opts Options, log *slog.Logger) (*Camera, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	exp := NewExposer(driver, s.pipeline(), s.Model.CanStopExposure, opts.Tick, log)

	if s.SaveDir == "" {
		s.SaveDir = filepath.Join(os.TempDir(), "dslr-remote")
	}
	wopts := opts.Watch
	wopts.Extension = s.Model.Extension(s.Format)
	wopts.AutoDelete = s.AutoDelete
	w, err := watch.New(s.SaveDir, wopts, exp.HandleFile, log)
	if err != nil {
		return nil, err
	}
	exp.SetWatcher(w)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Camera{
		driver:   driver,
		exposer:  exp,
		watcher:  w,
		recorder: opts.Recorder,
		log:      log.With("component", "camera", "camera", s.Model.ID),
		cancel:   cancel,
		settings: s,
		roi:      imaging.FullFrame(s.Model.ReadoutWidth(s.Format), s.Model.ReadoutHeight(s.Format)),
	}
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			c.log.Error("watcher stopped", "error", err)
		}
	}()
	go func() {
		defer c.wg.Done()
		c.consume(ctx)
	}()
	return c, nil
}

// Close stops the watcher and the event loop.
func (c *Camera) Close() error {
	c.cancel()
	c.exposer.Close()
	err := c.watcher.Close()
	c.wg.Wait()
	return err
}

// Connect brings the remote app to its main window and starts watching its
// save folder.
func (c *Camera) Connect(ctx context.Context) error {
	if err := c.driver.Connect(ctx); err != nil {
		return err
	}
	folder, err := c.driver.SaveFolder(ctx)
	if err != nil {
		c.log.Warn("reading save folder", "error", err)
		return nil
	}
	if folder != "" {
		if err := c.watcher.SetPath(folder); err != nil {
			c.log.Warn("watching save folder", "folder", folder, "error", err)
		}
	}
	return nil
}

// Disconnect drops the connection and returns the camera to Idle.
func (c *Camera) Disconnect() {
	c.driver.Disconnect()
	c.watcher.Disable()
	c.state.Store(model.StateIdle)
}

func (c *Camera) Connected() bool {
	return c.driver.Connected()
}

// Settings returns the active configuration snapshot.
func (c *Camera) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Configure replaces the settings snapshot. It is refused during an
// exposure.
func (c *Camera) Configure(s Settings) error {
	if st := c.state.Load(); st != model.StateIdle && st != model.StateError {
		return fmt.Errorf("%w: cannot reconfigure while %s", model.ErrInvalidOperation, st)
	}
	c.mu.Lock()
	c.settings = s
	c.roi = imaging.FullFrame(s.Model.ReadoutWidth(s.Format), s.Model.ReadoutHeight(s.Format))
	c.mu.Unlock()
	c.exposer.SetPipeline(s.pipeline())
	c.watcher.SetExtension(s.Model.Extension(s.Format))
	return nil
}

// State is the current exposure state.
func (c *Camera) State() model.ExposureState {
	return c.state.Load()
}

// CameraXSize is the width of a readout in the configured format.
func (c *Camera) CameraXSize() int {
	s := c.Settings()
	return s.Model.ReadoutWidth(s.Format)
}

// CameraYSize is the height of a readout in the configured format.
func (c *Camera) CameraYSize() int {
	s := c.Settings()
	return s.Model.ReadoutHeight(s.Format)
}

func (c *Camera) MaxADU() int {
	s := c.Settings()
	return s.Model.MaxADU(s.Format)
}

// SensorType is "RGGB" for raw mosaics and "color" otherwise.
func (c *Camera) SensorType() string {
	if c.Settings().Format == model.FormatCFA {
		return "RGGB"
	}
	return "color"
}

// CanAbortExposure and CanStopExposure follow the bulb mode setting: only
// bulb exposures can be ended early.
func (c *Camera) CanAbortExposure() bool {
	return c.Settings().BulbMode
}

func (c *Camera) CanStopExposure() bool {
	return c.Settings().BulbMode
}

// ROI returns the readout region.
func (c *Camera) ROI() imaging.ROI {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roi
}

// SetROI sets the readout region applied to the next image.
func (c *Camera) SetROI(r imaging.ROI) error {
	if r.StartX < 0 || r.StartY < 0 || r.NumX < 0 || r.NumY < 0 {
		return fmt.Errorf("%w: negative region %+v", model.ErrInvalidValue, r)
	}
	c.mu.Lock()
	c.roi = r
	c.mu.Unlock()
	return nil
}

func (c *Camera) checkROI() error {
	w, h := c.CameraXSize(), c.CameraYSize()
	r := c.ROI()
	if r.NumX > w || r.NumY > h || r.StartX > w || r.StartY > h {
		return fmt.Errorf("%w: region %+v exceeds %dx%d sensor", model.ErrInvalidOperation, r, w, h)
	}
	return nil
}

// StartExposure begins an exposure of duration seconds. The light flag is
// accepted for interface compatibility; dark frames need the lens capped.
func (c *Camera) StartExposure(duration float64, light bool) error {
	if !c.driver.Connected() {
		return model.ErrNotConnected
	}
	if duration < 0 {
		return fmt.Errorf("%w: negative duration %v", model.ErrInvalidValue, duration)
	}
	if err := c.checkROI(); err != nil {
		return err
	}
	s := c.Settings()
	gain, err := s.Gain()
	if err != nil {
		return err
	}

	c.state.Transition(model.StateIdle, model.StateError)
	if !c.state.Transition(model.StateExposing, model.StateIdle) {
		return fmt.Errorf("%w: camera is %s", model.ErrInvalidOperation, c.state.Load())
	}

	exp := &Exposure{
		Start:    time.Now(),
		Duration: duration,
		Gain:     gain,
		Bulb:     s.BulbMode,
		Format:   s.Format,
		Camera:   s.Model.ID,
	}
	c.mu.Lock()
	c.imageReady = false
	c.current = exp
	c.last = exp
	c.mu.Unlock()

	if err := c.exposer.StartExposure(gain, duration, s.BulbMode); err != nil {
		c.state.Store(model.StateIdle)
		return err
	}
	c.log.Info("exposure started", "duration", duration, "gain", gain, "light", light)
	return nil
}

// AbortExposure ends the exposure and discards the image.
func (c *Camera) AbortExposure(ctx context.Context) error {
	if !c.CanAbortExposure() {
		return fmt.Errorf("%w: abort needs bulb mode", model.ErrNotImplemented)
	}
	return c.exposer.Abort(ctx)
}

// StopExposure ends the exposure and keeps the image.
func (c *Camera) StopExposure(ctx context.Context) error {
	if !c.CanStopExposure() {
		return fmt.Errorf("%w: stop needs bulb mode", model.ErrNotImplemented)
	}
	return c.exposer.Stop(ctx)
}

// ImageReady reports whether an image is available.
func (c *Camera) ImageReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageReady
}

// ImageArray returns the last image, cropped to the region that was set
// when it arrived.
func (c *Camera) ImageArray() (*imaging.PixelBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.imageReady {
		return nil, fmt.Errorf("%w: no image available", model.ErrInvalidOperation)
	}
	return c.image, nil
}

// ImageArrayVariant returns the last image as nested []any slices.
func (c *Camera) ImageArrayVariant() (any, error) {
	img, err := c.ImageArray()
	if err != nil {
		return nil, err
	}
	return imaging.Variant(img), nil
}

// ImageStatistics returns statistics of the full decoded frame.
func (c *Camera) ImageStatistics() (imaging.Statistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.imageReady {
		return imaging.Statistics{}, fmt.Errorf("%w: no image available", model.ErrInvalidOperation)
	}
	return c.stats, nil
}

// PercentCompleted estimates progress from the exposer's countdown.
func (c *Camera) PercentCompleted() int {
	switch c.state.Load() {
	case model.StateExposing:
		c.mu.Lock()
		exp := c.current
		c.mu.Unlock()
		if exp == nil || exp.Duration < 1 {
			return 0
		}
		done := exp.Duration - float64(c.exposer.Remaining())
		return min(100, max(0, int(done*100/exp.Duration)))
	case model.StateReading, model.StateDownloading:
		return 100
	case model.StateIdle:
		if c.ImageReady() {
			return 100
		}
	}
	return 0
}

// LastExposureDuration is the requested duration of the last exposure.
func (c *Camera) LastExposureDuration() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return 0, fmt.Errorf("%w: no exposure taken yet", model.ErrInvalidOperation)
	}
	return c.last.Duration, nil
}

// LastExposureStart is when the last exposure was requested.
func (c *Camera) LastExposureStart() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return time.Time{}, fmt.Errorf("%w: no exposure taken yet", model.ErrInvalidOperation)
	}
	return c.last.Start, nil
}

func (c *Camera) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.exposer.Events():
			c.handle(ctx, ev)
		}
	}
}

func (c *Camera) handle(ctx context.Context, ev Event) {
	if !c.driver.Connected() {
		c.log.Debug("event while disconnected", "event", fmt.Sprintf("%T", ev))
		c.state.Store(model.StateIdle)
		return
	}
	switch ev := ev.(type) {
	case ExposureCompleted:
		c.state.Transition(model.StateReading, model.StateExposing)
	case ExposureDownloading:
		c.state.Transition(model.StateDownloading, model.StateExposing, model.StateReading)
		c.mu.Lock()
		if c.current != nil {
			c.current.Path = ev.Path
		}
		c.mu.Unlock()
	case ExposureReady:
		c.imageArrived(ctx, ev)
	case ExposureFailed:
		c.log.Error("exposure failed", "error", ev.Err)
		c.state.Store(model.StateError)
		c.finish(ctx, model.StateError, ev.Err)
	case ExposureAborted:
		c.state.Store(model.StateIdle)
		c.finish(ctx, model.StateIdle, errAborted)
	case ExposureStopped:
		c.log.Info("exposure stopped early")
	}
}

func (c *Camera) imageArrived(ctx context.Context, ev ExposureReady) {
	st := imaging.BufferStats(ev.Buffer)
	c.log.Info("image statistics", "file", filepath.Base(ev.Path),
		"min", st.Min, "max", st.Max, "mean", st.Mean, "median", st.Median)

	c.mu.Lock()
	roi := c.roi
	c.mu.Unlock()
	img, err := imaging.Crop(ev.Buffer, roi, c.CameraXSize(), c.CameraYSize())
	if err != nil {
		c.log.Error("cropping image", "error", err)
		c.state.Store(model.StateError)
		c.finish(ctx, model.StateError, err)
		return
	}

	c.mu.Lock()
	c.image = img
	c.stats = st
	c.imageReady = true
	if c.current != nil {
		c.current.Path = ev.Path
		c.current.Stats = &st
	}
	c.mu.Unlock()
	c.state.Store(model.StateIdle)
	c.finish(ctx, model.StateIdle, nil)
}

// finish hands the current exposure to the recorder.
func (c *Camera) finish(ctx context.Context, outcome model.ExposureState, err error) {
	c.mu.Lock()
	exp := c.current
	c.current = nil
	c.mu.Unlock()
	if exp == nil || c.recorder == nil {
		return
	}
	rec := *exp
	rec.Outcome = outcome
	if err != nil {
		rec.Err = err.Error()
	}
	if err := c.recorder.RecordExposure(ctx, rec); err != nil {
		c.log.Warn("recording exposure", "error", err)
	}
}
