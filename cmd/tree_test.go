package cmd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/mj1618/dslr-remote/internal/platform"
)

// stubReader serves a fixed set of windows.
type stubReader struct {
	windows  []model.ControlHandle
	children map[model.ControlHandle][]model.ChildWindow
	texts    map[model.ControlHandle]string
	gone     map[model.ControlHandle]bool
}

func (s stubReader) FindWindows(string) ([]model.ControlHandle, error) { return s.windows, nil }

func (s stubReader) EnumChildren(root model.ControlHandle) ([]model.ChildWindow, error) {
	return s.children[root], nil
}

func (s stubReader) WindowText(h model.ControlHandle) (string, error) { return s.texts[h], nil }

func (s stubReader) IsWindow(h model.ControlHandle) bool { return !s.gone[h] }

func (s stubReader) WindowBounds(model.ControlHandle) (platform.Bounds, error) {
	return platform.Bounds{}, nil
}

func TestReadTree(t *testing.T) {
	ok := "OK"
	cat := &model.Catalog{Windows: []model.WindowTemplate{{
		Type:     model.WindowNoCamera,
		Controls: []model.ControlDescriptor{{Name: "ok", Path: []int{1}, Text: &ok}},
	}}}
	r := stubReader{
		windows: []model.ControlHandle{10, 20, 30},
		children: map[model.ControlHandle][]model.ChildWindow{
			10: {{Handle: 11, Parent: 10}, {Handle: 12, Parent: 10}},
			20: {{Handle: 21, Parent: 20}, {Handle: 22, Parent: 21}},
		},
		texts: map[model.ControlHandle]string{10: "Remote", 11: "No camera", 12: "OK", 22: "ISO 100"},
		gone:  map[model.ControlHandle]bool{30: true},
	}

	got, err := readTree(r, cat, "Remote")
	if err != nil {
		t.Fatal(err)
	}
	want := output.TreeResult{
		Title: "Remote",
		Windows: []output.TreeWindow{
			{
				Handle: 10,
				State:  model.WindowNoCamera,
				Controls: []model.FlatControl{
					{Handle: 10, Depth: 0, Path: []int{}, Text: "Remote"},
					{Handle: 11, Depth: 1, Path: []int{0}, Text: "No camera"},
					{Handle: 12, Depth: 1, Path: []int{1}, Text: "OK"},
				},
			},
			{
				Handle: 20,
				Controls: []model.FlatControl{
					{Handle: 20, Depth: 0, Path: []int{}},
					{Handle: 21, Depth: 1, Path: []int{0}},
					{Handle: 22, Depth: 2, Path: []int{0, 0}, Text: "ISO 100"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestReadTree_NoWindows(t *testing.T) {
	got, err := readTree(stubReader{}, &model.Catalog{}, "Remote")
	if err != nil {
		t.Fatal(err)
	}
	if got.Windows == nil || len(got.Windows) != 0 {
		t.Errorf("expected an empty window list, got %#v", got.Windows)
	}
}
