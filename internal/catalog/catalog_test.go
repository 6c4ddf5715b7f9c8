package catalog

import (
	"strings"
	"testing"

	"github.com/mj1618/dslr-remote/internal/model"
)

func TestDefault_TemplateOrder(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	want := []model.WindowType{
		model.WindowNoCamera,
		model.WindowSelectCamera,
		model.WindowCannotAccessFolder,
		model.WindowCannotCreateFolder,
		model.WindowMain,
	}
	if len(c.Windows) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(c.Windows))
	}
	for i, w := range want {
		if c.Windows[i].Type != w {
			t.Errorf("template %d: got %s, want %s", i, c.Windows[i].Type, w)
		}
	}
}

func TestDefault_MainControls(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	main, ok := c.Window(model.WindowMain)
	if !ok {
		t.Fatal("no main template")
	}
	mode, ok := main.Control("modeLabel")
	if !ok || mode.Text == nil || *mode.Text != "  Mode" {
		t.Errorf("modeLabel text must keep its leading spaces, got %+v", mode)
	}
	folder, ok := main.Control("folderCombobox")
	if !ok || len(folder.Path) != 3 || folder.Path[1] != 6 || folder.Path[2] != 9 {
		t.Errorf("unexpected folderCombobox descriptor: %+v", folder)
	}
	if folder.Text != nil {
		t.Error("folderCombobox should match any text")
	}
}

func TestDefault_ResolvesShutterSpeeds(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	cam, err := c.Camera("ILCE-7M3")
	if err != nil {
		t.Fatal(err)
	}
	if len(cam.ShutterSpeeds) != len(cam.ShutterSpeedNames) {
		t.Fatalf("resolved %d of %d speeds", len(cam.ShutterSpeeds), len(cam.ShutterSpeedNames))
	}
	if !cam.ShutterSpeeds[0].Bulb {
		t.Error("first entry should be BULB")
	}
	if cam.ShutterSpeeds[1].Name != `30"` || cam.ShutterSpeeds[1].Duration != 30 {
		t.Errorf("unexpected second entry: %+v", cam.ShutterSpeeds[1])
	}
}

func TestParse_UnknownShutterSpeed(t *testing.T) {
	doc := `
windows:
  - type: main
    controls:
      - {name: shutterButton, path: [0]}
shutter_speeds:
  - {name: "1/10", duration: 0.1}
cameras:
  - id: X
    all_gains: ["100"]
    shutter_speeds: ["1/20"]
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "1/20") {
		t.Errorf("expected unresolved speed error, got %v", err)
	}
}

func TestParse_RejectsDuplicateTemplates(t *testing.T) {
	doc := `
windows:
  - type: main
    controls: [{name: a, path: [0]}]
  - type: main
    controls: [{name: b, path: [1]}]
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("expected duplicate template error")
	}
}
