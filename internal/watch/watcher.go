// Package watch reports image files the remote app writes into its save
// folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/fsnotify/fsnotify"
)

// Handler receives a file that is complete and readable.
type Handler func(ctx context.Context, path string) error

// Options tunes which files are reported and how long to wait for them.
type Options struct {
	// Extension selects files by suffix, compared case-insensitively.
	Extension string
	// PollInterval is the delay between checks that a new file is unlocked.
	PollInterval time.Duration
	// Settle is slept once the file is unlocked, before the handler runs.
	Settle     time.Duration
	AutoDelete bool
}

// DefaultOptions returns the delays the remote app needs to finish a file.
func DefaultOptions() Options {
	return Options{
		Extension:    ".arw",
		PollInterval: 500 * time.Millisecond,
		Settle:       time.Second,
	}
}

var errEmptyFile = errors.New("file is empty")

// Watcher is a one-shot trigger over a directory: once enabled, the first
// matching file created disables it again and is passed to the handler.
type Watcher struct {
	opts    Options
	handler Handler
	log     *slog.Logger
	fs      *fsnotify.Watcher

	mu      sync.Mutex
	enabled bool
	dir     string
}

// New watches dir, creating it if needed. The watcher starts disabled.
func New(dir string, opts Options, handler Handler, log *slog.Logger) (*Watcher, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	opts.Extension = normalizeExt(opts.Extension)

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		opts:    opts,
		handler: handler,
		log:     log.With("component", "watch"),
		fs:      fs,
	}
	if err := w.SetPath(dir); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Enable arms the watcher for the next matching file.
func (w *Watcher) Enable() {
	w.mu.Lock()
	w.enabled = true
	w.mu.Unlock()
}

// Disable stops reporting files.
func (w *Watcher) Disable() {
	w.mu.Lock()
	w.enabled = false
	w.mu.Unlock()
}

func (w *Watcher) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// SetExtension changes which files are reported.
func (w *Watcher) SetExtension(ext string) {
	w.mu.Lock()
	w.opts.Extension = normalizeExt(ext)
	w.mu.Unlock()
}

// Path returns the watched directory.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// SetPath moves the watch to dir, creating the directory if it is missing.
func (w *Watcher) SetPath(dir string) error {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating watch directory: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dir == dir {
		return nil
	}
	if w.dir != "" {
		// The old directory may already be gone.
		_ = w.fs.Remove(w.dir)
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.dir = dir
	w.log.Debug("watching directory", "dir", dir)
	return nil
}

// Run delivers events until ctx is done or the watcher is closed. Files are
// handled on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == 0 || !w.claim(ev.Name) {
				continue
			}
			w.harvest(ctx, ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// claim disables the watcher if it was enabled and path matches.
func (w *Watcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.enabled || !strings.EqualFold(filepath.Ext(path), w.opts.Extension) {
		return false
	}
	w.enabled = false
	return true
}

func (w *Watcher) harvest(ctx context.Context, path string) {
	log := w.log.With("file", path)
	log.Debug("new image file")

	if err := w.waitReady(ctx, path); err != nil {
		log.Warn("image file never became readable", "error", err)
		return
	}
	if err := sleepCtx(ctx, w.opts.Settle); err != nil {
		return
	}
	if err := w.handler(ctx, path); err != nil {
		log.Error("handling image file", "error", err)
		return
	}
	if w.opts.AutoDelete {
		if err := os.Remove(path); err != nil {
			log.Warn("deleting image file", "error", err)
		}
	}
}

// waitReady polls until path can be opened for writing, which the remote app
// prevents while it is still downloading, and holds data.
func (w *Watcher) waitReady(ctx context.Context, path string) error {
	check := func() error {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return err
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			return err
		}
		if fi.Size() == 0 {
			return errEmptyFile
		}
		return nil
	}
	b := backoff.WithContext(backoff.NewConstantBackOff(w.opts.PollInterval), ctx)
	if err := backoff.Retry(check, b); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Close releases the underlying watch. Run returns after Close.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
