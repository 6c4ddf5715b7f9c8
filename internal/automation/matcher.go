package automation

import (
	"errors"
	"fmt"

	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
)

// Probe is the result of one window-state detection. Its tree and handles
// are only valid until the next probe.
type Probe struct {
	State    model.WindowType
	Window   model.ControlHandle
	Tree     *model.ControlTree
	Template model.WindowTemplate
	Windows  int
}

// Control resolves a named descriptor of the detected template against the
// probe's own tree.
func (p Probe) Control(name string) (model.ControlHandle, error) {
	if p.Tree == nil {
		return 0, fmt.Errorf("%w: %q (no window)", model.ErrControlNotFound, name)
	}
	d, ok := p.Template.Control(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not part of %s", model.ErrControlNotFound, name, p.State)
	}
	h, err := p.Tree.Resolve(d.Path)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", name, err)
	}
	return h, nil
}

// Matcher identifies which screen the remote app is showing.
type Matcher struct {
	Reader  platform.Reader
	Catalog *model.Catalog
	Title   string
}

// Detect builds a tree for every window titled m.Title and returns the first
// template that matches, trying windows in enumeration order and templates in
// catalog order.
func (m *Matcher) Detect() (Probe, error) {
	windows, err := m.Reader.FindWindows(m.Title)
	if err != nil {
		return Probe{}, fmt.Errorf("find %q windows: %w", m.Title, err)
	}
	if len(windows) == 0 {
		return Probe{State: model.WindowNone}, nil
	}

	for _, w := range windows {
		tree, err := BuildTree(m.Reader, w)
		if err != nil {
			if errors.Is(err, ErrWindowGone) {
				continue
			}
			return Probe{}, err
		}
		for _, tmpl := range m.Catalog.Windows {
			if Matches(m.Reader, tree, tmpl) {
				return Probe{State: tmpl.Type, Window: w, Tree: tree, Template: tmpl, Windows: len(windows)}, nil
			}
		}
	}
	return Probe{}, fmt.Errorf("%w: %d %q window(s) match no template", model.ErrUnknownWindowState, len(windows), m.Title)
}

// Matches reports whether every descriptor of tmpl resolves in tree and, when
// it carries text, the control's caption equals it exactly.
func Matches(r platform.Reader, tree *model.ControlTree, tmpl model.WindowTemplate) bool {
	for _, d := range tmpl.Controls {
		h, err := tree.Resolve(d.Path)
		if err != nil {
			return false
		}
		if d.Text == nil {
			continue
		}
		text, err := r.WindowText(h)
		if err != nil || text != *d.Text {
			return false
		}
	}
	return true
}
