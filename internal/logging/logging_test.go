package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("connected", "camera", "ILCE-7M3")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "connected" || rec["camera"] != "ILCE-7M3" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "text", slog.LevelDebug).Debug("probe", "state", "main")
	if got := buf.String(); !strings.Contains(got, "msg=probe") || !strings.Contains(got, "state=main") {
		t.Errorf("unexpected text record %q", got)
	}
}
