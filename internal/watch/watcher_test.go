package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{Extension: "ARW", PollInterval: 10 * time.Millisecond, Settle: 10 * time.Millisecond}
}

// startWatcher runs a watcher over a fresh directory and returns the files
// passed to its handler.
func startWatcher(t *testing.T, opts Options, handlerErr error) (*Watcher, string, <-chan string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	got := make(chan string, 4)
	w, err := New(dir, opts, func(_ context.Context, path string) error {
		got <- path
		return handlerErr
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return w, dir, got
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("image"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func expectFile(t *testing.T, got <-chan string, want string) {
	t.Helper()
	select {
	case path := <-got:
		if path != want {
			t.Errorf("handler got %s, want %s", path, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("handler not called for %s", want)
	}
}

func expectNothing(t *testing.T, got <-chan string) {
	t.Helper()
	select {
	case path := <-got:
		t.Errorf("unexpected handler call for %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	w, dir, _ := startWatcher(t, testOptions(), nil)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("watch directory not created: %v", err)
	}
	if w.Path() != dir {
		t.Errorf("Path() = %s, want %s", w.Path(), dir)
	}
	if w.Enabled() {
		t.Error("watcher should start disabled")
	}
}

func TestWatcher_OneShot(t *testing.T) {
	w, dir, got := startWatcher(t, testOptions(), nil)
	w.Enable()

	first := filepath.Join(dir, "DSC00001.ARW")
	writeFile(t, first)
	expectFile(t, got, first)
	if w.Enabled() {
		t.Error("watcher should disable itself after a file")
	}

	writeFile(t, filepath.Join(dir, "DSC00002.arw"))
	expectNothing(t, got)
}

func TestWatcher_WaitsForData(t *testing.T) {
	w, dir, got := startWatcher(t, testOptions(), nil)
	w.Enable()

	path := filepath.Join(dir, "DSC00007.arw")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	expectNothing(t, got)

	if _, err := f.Write([]byte("image")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	expectFile(t, got, path)
}

func TestWatcher_IgnoresWhenDisabledOrOtherExtension(t *testing.T) {
	w, dir, got := startWatcher(t, testOptions(), nil)
	writeFile(t, filepath.Join(dir, "early.arw"))
	expectNothing(t, got)

	w.Enable()
	writeFile(t, filepath.Join(dir, "preview.jpg"))
	expectNothing(t, got)
	if !w.Enabled() {
		t.Error("non-matching file should not disarm the watcher")
	}

	w.SetExtension(".jpg")
	jpg := filepath.Join(dir, "DSC00003.JPG")
	writeFile(t, jpg)
	expectFile(t, got, jpg)
}

func TestWatcher_AutoDelete(t *testing.T) {
	opts := testOptions()
	opts.AutoDelete = true
	w, dir, got := startWatcher(t, opts, nil)
	w.Enable()

	path := filepath.Join(dir, "DSC00004.arw")
	writeFile(t, path)
	expectFile(t, got, path)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("file was not deleted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcher_KeepsFileWhenHandlerFails(t *testing.T) {
	opts := testOptions()
	opts.AutoDelete = true
	w, dir, got := startWatcher(t, opts, errors.New("decode failed"))
	w.Enable()

	path := filepath.Join(dir, "DSC00005.arw")
	writeFile(t, path)
	expectFile(t, got, path)
	time.Sleep(100 * time.Millisecond)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should be kept after a failed handler: %v", err)
	}
}

func TestWatcher_SetPath(t *testing.T) {
	w, _, got := startWatcher(t, testOptions(), nil)
	moved := filepath.Join(t.TempDir(), "a", "b")
	if err := w.SetPath(moved); err != nil {
		t.Fatal(err)
	}
	if w.Path() != moved {
		t.Errorf("Path() = %s, want %s", w.Path(), moved)
	}
	w.Enable()
	path := filepath.Join(moved, "DSC00006.arw")
	writeFile(t, path)
	expectFile(t, got, path)
}

func TestNormalizeExt(t *testing.T) {
	tests := map[string]string{"ARW": ".arw", ".JPG": ".jpg", " fits ": ".fits", "": ""}
	for in, want := range tests {
		if got := normalizeExt(in); got != want {
			t.Errorf("normalizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
