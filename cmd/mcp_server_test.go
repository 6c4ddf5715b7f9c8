package cmd

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/catalog"
	"github.com/mj1618/dslr-remote/internal/model"
)

// stubDriver is a camera driver that never touches a desktop.
type stubDriver struct {
	mu        sync.Mutex
	connected bool
}

func (d *stubDriver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *stubDriver) Connect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return nil
}

func (d *stubDriver) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
}

func (d *stubDriver) SetShutterSpeed(context.Context, float64, bool) error { return nil }
func (d *stubDriver) SetISO(context.Context, int) error                    { return nil }
func (d *stubDriver) SaveFolder(context.Context) (string, error)           { return "", nil }
func (d *stubDriver) PressShutter(context.Context) error                   { return nil }

func newTestTools(t *testing.T) *mcpServer {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	m, err := cat.Camera("ILCE-7M3")
	if err != nil {
		t.Fatal(err)
	}
	settings := camera.Settings{Model: m, Format: model.FormatCFA, SaveDir: t.TempDir()}
	cam, err := camera.New(&stubDriver{}, settings, camera.DefaultOptions(), logger)
	if err != nil {
		t.Fatal(err)
	}
	s := newMCPTools(nil, cam, nil, 0)
	t.Cleanup(func() { _ = s.close() })
	return s
}

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func callTool(t *testing.T, h toolHandler, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var text strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}
	return text.String(), res.IsError
}

func TestMCP_CameraStatus(t *testing.T) {
	s := newTestTools(t)
	text, isErr := callTool(t, s.handleCameraStatus, nil)
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	for _, want := range []string{"connected: false", "camera: ILCE-7M3", "state: idle", "format: cfa", "sensor_type: RGGB"} {
		if !strings.Contains(text, want) {
			t.Errorf("status missing %q:\n%s", want, text)
		}
	}
}

func TestMCP_ConnectAndDisconnect(t *testing.T) {
	s := newTestTools(t)
	text, isErr := callTool(t, s.handleConnect, nil)
	if isErr || !strings.Contains(text, "connected: true") {
		t.Fatalf("connect: %s", text)
	}
	text, isErr = callTool(t, s.handleDisconnect, nil)
	if isErr || !strings.Contains(text, "connected: false") {
		t.Errorf("disconnect: %s", text)
	}
}

func TestMCP_Errors(t *testing.T) {
	s := newTestTools(t)
	tests := []struct {
		name    string
		handler toolHandler
		args    map[string]any
		want    string
	}{
		{"exposure needs connection", s.handleStartExposure, map[string]any{"duration": 1.0}, "not connected"},
		{"exposure needs duration", s.handleStartExposure, map[string]any{}, "duration"},
		{"abort needs bulb", s.handleAbortExposure, nil, "not implemented"},
		{"stats need an image", s.handleImageStats, nil, "no image"},
		{"preview needs an image", s.handleImagePreview, nil, "no image"},
		{"negative roi", s.handleSetROI, map[string]any{"x": -2.0, "y": 0.0, "width": 10.0, "height": 10.0}, "invalid value"},
		{"gain out of range", s.handleConfigure, map[string]any{"gain": 99.0}, "gain index"},
		{"state without app", s.handleState, nil, errNoSession.Error()},
		{"history without journal", s.handleHistory, nil, "no journal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, tt.handler, tt.args)
			if !isErr {
				t.Fatalf("expected a tool error, got %s", text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("error %q does not mention %q", text, tt.want)
			}
		})
	}
}

func TestMCP_Configure(t *testing.T) {
	s := newTestTools(t)
	text, isErr := callTool(t, s.handleConfigure, map[string]any{"gain": 2.0, "bulb": true, "format": "jpg"})
	if isErr {
		t.Fatalf("configure: %s", text)
	}
	got := s.camera.Settings()
	if got.GainIndex != 2 || !got.BulbMode || got.Format != model.FormatJPEG {
		t.Errorf("settings not applied: %+v", got)
	}
	if !s.camera.CanAbortExposure() {
		t.Error("bulb mode should allow abort")
	}
}

func TestMCP_SetROI(t *testing.T) {
	s := newTestTools(t)
	_, isErr := callTool(t, s.handleSetROI, map[string]any{"x": 100.0, "y": 50.0, "width": 640.0, "height": 480.0})
	if isErr {
		t.Fatal("set_roi failed")
	}
	roi := s.camera.ROI()
	if roi.StartX != 100 || roi.StartY != 50 || roi.NumX != 640 || roi.NumY != 480 {
		t.Errorf("roi = %+v", roi)
	}
}
