package automation

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/dslr-remote/internal/catalog"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

var discardLogger = slog.New(slog.NewTextHandler(discardWriter{}, nil))

// fakeDesktop is an in-memory window system implementing platform.Reader,
// platform.Inputter and platform.Launcher.
type fakeDesktop struct {
	mu       sync.Mutex
	next     model.ControlHandle
	titles   map[model.ControlHandle]string
	roots    []model.ControlHandle
	children map[model.ControlHandle][]model.ControlHandle
	texts    map[model.ControlHandle]string
	clicks   []model.ControlHandle
	onClick  func(h model.ControlHandle)
	onLaunch func()
	launched []string
	// closing holds windows that close while their children are enumerated.
	closing map[model.ControlHandle]bool
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{
		next:     100,
		titles:   map[model.ControlHandle]string{},
		children: map[model.ControlHandle][]model.ControlHandle{},
		texts:    map[model.ControlHandle]string{},
	}
}

func (d *fakeDesktop) provider() *platform.Provider {
	return &platform.Provider{Reader: d, Inputter: d, Launcher: d}
}

func (d *fakeDesktop) addWindow(title string) model.ControlHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	h := d.next
	d.titles[h] = title
	d.roots = append(d.roots, h)
	return h
}

func (d *fakeDesktop) removeWindow(h model.ControlHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.roots {
		if r == h {
			d.roots = append(d.roots[:i], d.roots[i+1:]...)
			break
		}
	}
	delete(d.titles, h)
}

func (d *fakeDesktop) addChild(parent model.ControlHandle, text string) model.ControlHandle {
	d.next++
	h := d.next
	d.children[parent] = append(d.children[parent], h)
	d.texts[h] = text
	return h
}

// addScreen builds a window whose hierarchy satisfies tmpl, filling gaps in
// each path with blank controls. overrides replaces descriptor texts.
func (d *fakeDesktop) addScreen(title string, tmpl model.WindowTemplate, overrides map[string]string) (model.ControlHandle, map[string]model.ControlHandle) {
	root := d.addWindow(title)
	d.mu.Lock()
	defer d.mu.Unlock()
	named := map[string]model.ControlHandle{}
	for _, c := range tmpl.Controls {
		node := root
		for _, i := range c.Path {
			for len(d.children[node]) <= i {
				d.addChild(node, "")
			}
			node = d.children[node][i]
		}
		if c.Text != nil {
			d.texts[node] = *c.Text
		}
		if v, ok := overrides[c.Name]; ok {
			d.texts[node] = v
		}
		named[c.Name] = node
	}
	return root, named
}

func (d *fakeDesktop) setText(h model.ControlHandle, text string) {
	d.mu.Lock()
	d.texts[h] = text
	d.mu.Unlock()
}

func (d *fakeDesktop) clickCount(h model.ControlHandle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.clicks {
		if c == h {
			n++
		}
	}
	return n
}

func (d *fakeDesktop) FindWindows(title string) ([]model.ControlHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.ControlHandle
	for _, r := range d.roots {
		if d.titles[r] == title {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *fakeDesktop) EnumChildren(root model.ControlHandle) ([]model.ChildWindow, error) {
	if d.closing[root] {
		d.removeWindow(root)
		return nil, fmt.Errorf("%w: window %#x closed during enumeration", model.ErrControlNotFound, uintptr(root))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.ChildWindow
	var walk func(model.ControlHandle)
	walk = func(p model.ControlHandle) {
		for _, c := range d.children[p] {
			out = append(out, model.ChildWindow{Handle: c, Parent: p})
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

func (d *fakeDesktop) WindowText(h model.ControlHandle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.texts[h], nil
}

func (d *fakeDesktop) IsWindow(h model.ControlHandle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.titles[h]
	return ok
}

func (d *fakeDesktop) WindowBounds(h model.ControlHandle) (platform.Bounds, error) {
	return platform.Bounds{Width: 640, Height: 480}, nil
}

func (d *fakeDesktop) Click(h model.ControlHandle) error {
	d.mu.Lock()
	d.clicks = append(d.clicks, h)
	fn := d.onClick
	d.mu.Unlock()
	if fn != nil {
		fn(h)
	}
	return nil
}

func (d *fakeDesktop) ClickAt(h model.ControlHandle, x, y, count int) error {
	return d.Click(h)
}

func (d *fakeDesktop) Launch(path string) error {
	d.mu.Lock()
	d.launched = append(d.launched, path)
	fn := d.onLaunch
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func testCatalog(t *testing.T) *model.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func testTemplate(t *testing.T, c *model.Catalog, wt model.WindowType) model.WindowTemplate {
	t.Helper()
	tmpl, ok := c.Window(wt)
	if !ok {
		t.Fatalf("no template for %s", wt)
	}
	return tmpl
}

func testOptions() Options {
	return Options{
		Title:             "Remote",
		DiscoveryInterval: time.Millisecond,
		DiscoveryRetries:  3,
		MaxProbes:         10,
		MaxRounds:         3,
		ListHeaderHeight:  24,
		ListRowHeight:     17,
	}
}

func testCamera() model.CameraModel {
	return model.CameraModel{
		ID:       "TEST",
		AllGains: []string{"AUTO", "100", "200", "400", "800", "1600", "3200", "6400"},
		Gains:    []int{100, 200, 400, 800, 1600, 3200, 6400},
		ShutterSpeeds: []model.ShutterSpeed{
			{Name: "BULB", Bulb: true},
			{Name: `2"`, Duration: 2},
			{Name: `1"`, Duration: 1},
			{Name: "1/2", Duration: 0.5},
			{Name: "1/4", Duration: 0.25},
		},
	}
}
