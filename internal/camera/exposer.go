// Package camera runs exposures through the remote app and presents the
// result as a camera device.
package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/model"
)

// Remote is the part of the UI-automation driver an exposure needs.
type Remote interface {
	Connected() bool
	SetShutterSpeed(ctx context.Context, seconds float64, bulb bool) error
	SetISO(ctx context.Context, iso int) error
	SaveFolder(ctx context.Context) (string, error)
	PressShutter(ctx context.Context) error
}

// Watcher is the one-shot directory trigger that reports the image file.
type Watcher interface {
	Enable()
	Disable()
	SetPath(dir string) error
	SetExtension(ext string)
}

// Exposer runs at most one exposure at a time in the background and reports
// progress as events.
type Exposer struct {
	remote  Remote
	watcher Watcher
	log     *slog.Logger
	tick    time.Duration
	canStop bool
	events  chan Event
	done    chan struct{}

	mu          sync.Mutex
	busy        bool
	gen         uint64
	cancel      context.CancelFunc
	shutterOpen bool
	triggered   bool
	pipeline    imaging.Pipeline

	remaining atomic.Int64
}

// NewExposer creates an exposer. canStop reports whether the camera closes
// the shutter on a second press; tick is the countdown step, normally one
// second.
func NewExposer(remote Remote, pipeline imaging.Pipeline, canStop bool, tick time.Duration, log *slog.Logger) *Exposer {
	if tick <= 0 {
		tick = time.Second
	}
	return &Exposer{
		remote:   remote,
		pipeline: pipeline,
		canStop:  canStop,
		tick:     tick,
		log:      log.With("component", "exposer"),
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// SetWatcher attaches the directory trigger. It must be called before the
// first exposure.
func (e *Exposer) SetWatcher(w Watcher) {
	e.mu.Lock()
	e.watcher = w
	e.mu.Unlock()
}

// SetPipeline replaces the decoder used for the next image file.
func (e *Exposer) SetPipeline(p imaging.Pipeline) {
	e.mu.Lock()
	e.pipeline = p
	e.mu.Unlock()
}

// Events returns the event stream.
func (e *Exposer) Events() <-chan Event {
	return e.events
}

// Busy reports whether an exposure task holds the in-progress lock.
func (e *Exposer) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Remaining is the number of whole seconds left in the current exposure.
func (e *Exposer) Remaining() int64 {
	return e.remaining.Load()
}

// StartExposure begins an exposure of seconds at ISO gain. It returns once
// the background task is running.
func (e *Exposer) StartExposure(gain int, seconds float64, bulb bool) error {
	if !e.remote.Connected() {
		return model.ErrNotConnected
	}

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return fmt.Errorf("%w: an exposure is already in progress", model.ErrInvalidOperation)
	}
	e.busy = true
	e.gen++
	gen := e.gen
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.shutterOpen = false
	e.triggered = false
	e.remaining.Store(int64(seconds))
	e.mu.Unlock()

	go e.run(ctx, cancel, gen, gain, seconds, bulb)
	return nil
}

func (e *Exposer) run(ctx context.Context, cancel context.CancelFunc, gen uint64, gain int, seconds float64, bulb bool) {
	defer cancel()
	log := e.log.With("gain", gain, "seconds", seconds, "bulb", bulb)
	fail := func(step string, err error) {
		if ctx.Err() != nil {
			log.Info("exposure cancelled", "step", step)
			e.release(gen)
			return
		}
		log.Error("exposure failed", "step", step, "error", err)
		e.release(gen)
		e.emit(ExposureFailed{Err: fmt.Errorf("%s: %w", step, err)})
	}

	if err := e.remote.SetShutterSpeed(ctx, seconds, bulb); err != nil {
		fail("setting shutter speed", err)
		return
	}
	if err := e.remote.SetISO(ctx, gain); err != nil {
		fail("setting iso", err)
		return
	}
	folder, err := e.remote.SaveFolder(ctx)
	if err != nil {
		fail("reading save folder", err)
		return
	}
	if folder != "" {
		if err := e.currentWatcher().SetPath(folder); err != nil {
			fail("watching save folder", err)
			return
		}
	}

	if !e.open(ctx, gen) {
		log.Info("exposure cancelled before trigger")
		e.release(gen)
		return
	}
	// From here the task no longer honours cancellation: the shutter is
	// open and must be closed after the full wait.
	trigger := context.WithoutCancel(ctx)
	if err := e.remote.PressShutter(trigger); err != nil {
		e.close(gen)
		fail("pressing shutter", err)
		return
	}
	log.Info("shutter open")

	for left := int64(seconds); left > 0; left-- {
		time.Sleep(e.tick)
		e.countdown(gen, left-1)
	}

	if bulb && e.close(gen) {
		if err := e.remote.PressShutter(trigger); err != nil {
			log.Error("closing bulb shutter", "error", err)
			e.release(gen)
			e.emit(ExposureFailed{Err: fmt.Errorf("closing shutter: %w", err)})
			return
		}
	}
	e.close(gen)
	e.release(gen)

	// Abort and Stop cancel the task; they report the outcome themselves.
	if ctx.Err() != nil {
		return
	}
	if !e.remote.Connected() {
		log.Info("disconnected during exposure, not waiting for the image")
		return
	}
	e.currentWatcher().Enable()
	log.Info("exposure completed")
	e.emit(ExposureCompleted{})
}

// open marks the shutter open unless the task was cancelled first.
func (e *Exposer) open(ctx context.Context, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil || gen != e.gen {
		return false
	}
	e.shutterOpen = true
	e.triggered = true
	return true
}

// close clears the shutter-open mark and reports whether this call cleared
// it, so only one party presses the shutter to close it.
func (e *Exposer) close(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || !e.shutterOpen {
		return false
	}
	e.shutterOpen = false
	return true
}

// countdown publishes the seconds left unless a newer exposure has started.
func (e *Exposer) countdown(gen uint64, left int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen == e.gen {
		e.remaining.Store(left)
	}
}

// release frees the in-progress lock if it still belongs to gen.
func (e *Exposer) release(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || !e.busy {
		return
	}
	e.busy = false
	e.cancel = nil
}

func (e *Exposer) currentWatcher() Watcher {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watcher
}

// Abort ends the exposure early and discards its image. With no exposure in
// progress it cancels a pending download.
func (e *Exposer) Abort(ctx context.Context) error {
	if _, err := e.end(ctx); err != nil {
		return err
	}
	e.currentWatcher().Disable()
	e.log.Info("exposure aborted")
	e.emit(ExposureAborted{})
	return nil
}

// Stop ends the exposure early and keeps its image. It does nothing when no
// exposure is in progress. A stop before the shutter opened has no image to
// keep and is reported as an abort.
func (e *Exposer) Stop(ctx context.Context) error {
	if !e.Busy() {
		return nil
	}
	triggered, err := e.end(ctx)
	if err != nil {
		return err
	}
	if !triggered {
		e.currentWatcher().Disable()
		e.log.Info("exposure stopped before trigger")
		e.emit(ExposureAborted{})
		return nil
	}
	e.currentWatcher().Enable()
	e.log.Info("exposure stopped")
	e.emit(ExposureStopped{})
	e.emit(ExposureCompleted{})
	return nil
}

// end closes the shutter, cancels the task and frees the lock. Cameras that
// cannot stop an exposure are waited out instead. It reports whether the
// shutter was pressed for the exposure being ended.
func (e *Exposer) end(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if !e.busy {
		e.mu.Unlock()
		return false, nil
	}
	gen := e.gen
	cancel := e.cancel
	e.mu.Unlock()
	cancel()

	// Once cancelled the task cannot reach the trigger, so this is final.
	e.mu.Lock()
	triggered := e.triggered
	e.mu.Unlock()

	if e.canStop {
		if e.close(gen) {
			if err := e.remote.PressShutter(ctx); err != nil {
				return triggered, fmt.Errorf("closing shutter: %w", err)
			}
		}
	} else {
		for e.Busy() && e.remaining.Load() > 0 {
			if err := sleepCtx(ctx, e.tick); err != nil {
				return triggered, err
			}
		}
	}
	e.countdown(gen, 0)
	e.release(gen)
	return triggered, nil
}

// HandleFile decodes an image file reported by the watcher.
func (e *Exposer) HandleFile(_ context.Context, path string) error {
	e.emit(ExposureDownloading{Path: path})
	e.mu.Lock()
	p := e.pipeline
	e.mu.Unlock()

	buf, err := p.Decode(path)
	if err != nil {
		e.log.Error("decoding image", "file", path, "error", err)
		e.emit(ExposureFailed{Err: err})
		return err
	}
	e.log.Info("image decoded", "file", path, "size", buf.String())
	e.emit(ExposureReady{Path: path, Buffer: buf})
	return nil
}

func (e *Exposer) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// Close unblocks pending event deliveries.
func (e *Exposer) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.done:
	default:
		close(e.done)
	}
	if e.cancel != nil {
		e.cancel()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
