package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/mj1618/dslr-remote/internal/model"
)

var errNoWindow = errors.New("no remote app window")

// Connect brings the remote app to its main window, launching it and
// dismissing dialogs on the way. Every failure is reported as ErrNotConnected.
func (r *Remote) Connect(ctx context.Context) error {
	if err := r.connect(ctx); err != nil {
		r.connected.Store(false)
		return fmt.Errorf("%w: %v", model.ErrNotConnected, err)
	}
	r.connected.Store(true)
	r.log.Info("connected", "camera", r.camera.ID)
	return nil
}

// Disconnect forgets the connection. The remote app is left running.
func (r *Remote) Disconnect() {
	r.connected.Store(false)
}

func (r *Remote) connect(ctx context.Context) error {
	if err := r.discover(ctx); err != nil {
		return err
	}

	for i := 0; i < r.opts.MaxProbes; i++ {
		probe, err := r.Detect()
		if err != nil {
			return err
		}
		r.log.Debug("connect probe", "attempt", i+1, "state", probe.State)

		switch probe.State {
		case model.WindowMain:
			return nil
		case model.WindowNoCamera, model.WindowCannotAccessFolder:
			err = r.press(ctx, probe.State, ControlOK)
		case model.WindowCannotCreateFolder:
			r.log.Warn("remote app cannot create its save folder, waiting before dismissing", "delay", r.opts.FolderFixDelay)
			if err = sleepCtx(ctx, r.opts.FolderFixDelay); err == nil {
				err = r.press(ctx, probe.State, ControlOK)
			}
		case model.WindowSelectCamera:
			if err = r.selectListItem(ctx, probe.State, ControlCameraList, 0); err == nil {
				err = sleepCtx(ctx, r.opts.SelectCameraDelay)
			}
		case model.WindowNone:
			err = sleepCtx(ctx, r.opts.ProbeInterval)
		default:
			err = fmt.Errorf("%w: %s", model.ErrUnknownWindowState, probe.State)
		}
		if err != nil {
			return err
		}
		if err := sleepCtx(ctx, r.opts.StepSettle); err != nil {
			return err
		}
	}
	return fmt.Errorf("main window not reached after %d probes", r.opts.MaxProbes)
}

// discover makes sure at least one app window exists, launching the app once
// and retrying with a constant backoff.
func (r *Remote) discover(ctx context.Context) error {
	find := func() error {
		windows, err := r.reader.FindWindows(r.opts.Title)
		if err != nil {
			return err
		}
		if len(windows) == 0 {
			return errNoWindow
		}
		return nil
	}
	if err := find(); err == nil {
		return nil
	}
	if r.opts.AppPath == "" || r.launcher == nil {
		return fmt.Errorf("%w titled %q and no app path configured", errNoWindow, r.opts.Title)
	}

	r.log.Info("launching remote app", "path", r.opts.AppPath)
	if err := r.launcher.Launch(r.opts.AppPath); err != nil {
		return err
	}
	interval := r.opts.DiscoveryInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(r.opts.DiscoveryRetries)),
		ctx)
	if err := backoff.Retry(find, b); err != nil {
		return fmt.Errorf("remote app did not open a window: %w", err)
	}
	return nil
}
