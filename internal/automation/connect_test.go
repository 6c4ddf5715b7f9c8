package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/mj1618/dslr-remote/internal/model"
)

func TestConnect_DismissesDialogs(t *testing.T) {
	cat := testCatalog(t)
	d := newFakeDesktop()
	dialog, named := d.addScreen("Remote", testTemplate(t, cat, model.WindowNoCamera), nil)
	var selectWin model.ControlHandle
	var selectNamed map[string]model.ControlHandle

	d.onClick = func(h model.ControlHandle) {
		switch {
		case h == named[ControlOK]:
			d.removeWindow(dialog)
			selectWin, selectNamed = d.addScreen("Remote", testTemplate(t, cat, model.WindowSelectCamera), nil)
		case selectNamed != nil && h == selectNamed[ControlCameraList]:
			d.removeWindow(selectWin)
			d.addScreen("Remote", testTemplate(t, cat, model.WindowMain), nil)
		}
	}

	r := NewRemote(d.provider(), cat, testCamera(), testOptions(), discardLogger)
	if err := r.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !r.Connected() {
		t.Error("expected connected")
	}
	if d.clickCount(named[ControlOK]) != 1 {
		t.Error("ok was not pressed once")
	}
	r.Disconnect()
	if r.Connected() {
		t.Error("expected disconnected")
	}
}

func TestConnect_LaunchesApp(t *testing.T) {
	cat := testCatalog(t)
	d := newFakeDesktop()
	d.onLaunch = func() {
		d.addScreen("Remote", testTemplate(t, cat, model.WindowMain), nil)
	}
	opts := testOptions()
	opts.AppPath = `C:\Program Files\Sony\Imaging Edge\Remote.exe`
	r := NewRemote(d.provider(), cat, testCamera(), opts, discardLogger)
	if err := r.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(d.launched) != 1 || d.launched[0] != opts.AppPath {
		t.Errorf("unexpected launches: %v", d.launched)
	}
}

func TestConnect_FailuresAreNotConnected(t *testing.T) {
	cat := testCatalog(t)

	t.Run("no window", func(t *testing.T) {
		d := newFakeDesktop()
		r := NewRemote(d.provider(), cat, testCamera(), testOptions(), discardLogger)
		if err := r.Connect(context.Background()); !errors.Is(err, model.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("launch without window", func(t *testing.T) {
		d := newFakeDesktop()
		opts := testOptions()
		opts.AppPath = "remote.exe"
		r := NewRemote(d.provider(), cat, testCamera(), opts, discardLogger)
		if err := r.Connect(context.Background()); !errors.Is(err, model.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("unknown window", func(t *testing.T) {
		d := newFakeDesktop()
		root := d.addWindow("Remote")
		d.addChild(root, "???")
		r := NewRemote(d.provider(), cat, testCamera(), testOptions(), discardLogger)
		err := r.Connect(context.Background())
		if !errors.Is(err, model.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if r.Connected() {
			t.Error("must not be connected")
		}
	})
}
