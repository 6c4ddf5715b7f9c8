package camera

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDriver records calls the exposer makes into the remote app.
type fakeDriver struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	folder     string
	isoErr     error
	presses    int
	speeds     int
	isos       []int
	// hold, when set, blocks SetShutterSpeed until it is closed or the
	// task is cancelled.
	hold chan struct{}
}

func (f *fakeDriver) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeDriver) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeDriver) Disconnect() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

func (f *fakeDriver) SetShutterSpeed(ctx context.Context, _ float64, _ bool) error {
	f.mu.Lock()
	f.speeds++
	hold := f.hold
	f.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeDriver) SetISO(_ context.Context, iso int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isos = append(f.isos, iso)
	return f.isoErr
}

func (f *fakeDriver) SaveFolder(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folder, nil
}

func (f *fakeDriver) PressShutter(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presses++
	return nil
}

func (f *fakeDriver) pressCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presses
}

func (f *fakeDriver) speedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speeds
}

type fakeWatcher struct {
	mu      sync.Mutex
	enabled bool
	path    string
	ext     string
}

func (w *fakeWatcher) Enable() {
	w.mu.Lock()
	w.enabled = true
	w.mu.Unlock()
}

func (w *fakeWatcher) Disable() {
	w.mu.Lock()
	w.enabled = false
	w.mu.Unlock()
}

func (w *fakeWatcher) SetPath(dir string) error {
	w.mu.Lock()
	w.path = dir
	w.mu.Unlock()
	return nil
}

func (w *fakeWatcher) SetExtension(ext string) {
	w.mu.Lock()
	w.ext = ext
	w.mu.Unlock()
}

func (w *fakeWatcher) isEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// nextEvent returns the next event or fails after a timeout.
func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func noEvent(t *testing.T, events <-chan Event, within time.Duration) {
	t.Helper()
	select {
	case ev := <-events:
		t.Errorf("unexpected event %T", ev)
	case <-time.After(within):
	}
}
