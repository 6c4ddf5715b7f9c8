package automation

import (
	"errors"
	"testing"

	"github.com/mj1618/dslr-remote/internal/model"
)

func TestMatcher_DetectsEveryTemplate(t *testing.T) {
	cat := testCatalog(t)
	for _, tmpl := range cat.Windows {
		d := newFakeDesktop()
		root, _ := d.addScreen("Remote", tmpl, nil)
		m := &Matcher{Reader: d, Catalog: cat, Title: "Remote"}
		probe, err := m.Detect()
		if err != nil {
			t.Errorf("%s: unexpected error %v", tmpl.Type, err)
			continue
		}
		if probe.State != tmpl.Type {
			t.Errorf("detected %s, want %s", probe.State, tmpl.Type)
		}
		if probe.Window != root {
			t.Errorf("%s: probe window %d, want %d", tmpl.Type, probe.Window, root)
		}
	}
}

func TestMatcher_NoWindow(t *testing.T) {
	d := newFakeDesktop()
	d.addWindow("Some other app")
	m := &Matcher{Reader: d, Catalog: testCatalog(t), Title: "Remote"}
	probe, err := m.Detect()
	if err != nil {
		t.Fatal(err)
	}
	if probe.State != model.WindowNone {
		t.Errorf("expected no-window, got %s", probe.State)
	}
}

func TestMatcher_UnknownWindow(t *testing.T) {
	d := newFakeDesktop()
	root := d.addWindow("Remote")
	d.addChild(root, "Something else")
	m := &Matcher{Reader: d, Catalog: testCatalog(t), Title: "Remote"}
	_, err := m.Detect()
	if !errors.Is(err, model.ErrUnknownWindowState) {
		t.Errorf("expected ErrUnknownWindowState, got %v", err)
	}
}

func TestMatcher_TextIsExactAndCaseSensitive(t *testing.T) {
	cat := testCatalog(t)
	tests := []string{"ok", "OK ", " OK"}
	for _, text := range tests {
		d := newFakeDesktop()
		d.addScreen("Remote", testTemplate(t, cat, model.WindowNoCamera), map[string]string{"ok": text})
		m := &Matcher{Reader: d, Catalog: cat, Title: "Remote"}
		if _, err := m.Detect(); !errors.Is(err, model.ErrUnknownWindowState) {
			t.Errorf("text %q: expected ErrUnknownWindowState, got %v", text, err)
		}
	}
}

func TestMatcher_CatalogOrderBreaksTies(t *testing.T) {
	cat := testCatalog(t)
	d := newFakeDesktop()
	d.addScreen("Remote", testTemplate(t, cat, model.WindowMain), nil)
	second, _ := d.addScreen("Remote", testTemplate(t, cat, model.WindowNoCamera), nil)
	m := &Matcher{Reader: d, Catalog: cat, Title: "Remote"}
	probe, err := m.Detect()
	if err != nil {
		t.Fatal(err)
	}
	// The first window in enumeration order wins.
	if probe.State != model.WindowMain || probe.Window == second {
		t.Errorf("expected main from first window, got %s from %d", probe.State, probe.Window)
	}
	if probe.Windows != 2 {
		t.Errorf("expected 2 candidate windows, got %d", probe.Windows)
	}
}

func TestMatcher_SkipsWindowClosedDuringEnumeration(t *testing.T) {
	cat := testCatalog(t)
	d := newFakeDesktop()
	first, _ := d.addScreen("Remote", testTemplate(t, cat, model.WindowNoCamera), nil)
	second, _ := d.addScreen("Remote", testTemplate(t, cat, model.WindowMain), nil)
	d.closing = map[model.ControlHandle]bool{first: true}

	m := &Matcher{Reader: d, Catalog: cat, Title: "Remote"}
	probe, err := m.Detect()
	if err != nil {
		t.Fatal(err)
	}
	if probe.State != model.WindowMain || probe.Window != second {
		t.Errorf("got %s from %d, want main from %d", probe.State, probe.Window, second)
	}
}

func TestProbe_Control(t *testing.T) {
	cat := testCatalog(t)
	d := newFakeDesktop()
	_, named := d.addScreen("Remote", testTemplate(t, cat, model.WindowMain), nil)
	m := &Matcher{Reader: d, Catalog: cat, Title: "Remote"}
	probe, err := m.Detect()
	if err != nil {
		t.Fatal(err)
	}
	h, err := probe.Control("isoLabel")
	if err != nil {
		t.Fatal(err)
	}
	if h != named["isoLabel"] {
		t.Errorf("isoLabel resolved to %d, want %d", h, named["isoLabel"])
	}
	if _, err := probe.Control("refresh"); !errors.Is(err, model.ErrControlNotFound) {
		t.Errorf("expected ErrControlNotFound, got %v", err)
	}
}
