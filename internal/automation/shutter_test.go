package automation

import (
	"errors"
	"testing"

	"github.com/mj1618/dslr-remote/internal/model"
)

func speeds(durations ...float64) []model.ShutterSpeed {
	out := make([]model.ShutterSpeed, len(durations))
	for i, d := range durations {
		out[i] = model.ShutterSpeed{Name: formatDuration(d), Duration: d}
	}
	return out
}

func formatDuration(d float64) string {
	switch d {
	case 1:
		return `1"`
	case 0.5:
		return "1/2"
	case 0.25:
		return "1/4"
	}
	return "other"
}

func TestSelectShutterSpeed(t *testing.T) {
	tests := []struct {
		name      string
		available []model.ShutterSpeed
		seconds   float64
		want      float64
	}{
		{"slowest not longer", speeds(1, 0.5, 0.25), 0.9, 0.5},
		{"exact", speeds(1, 0.5, 0.25), 1, 1},
		{"longer than all", speeds(1, 0.5, 0.25), 30, 1},
		{"shorter than all", speeds(1, 0.5), 0.1, 0.5},
		{"unordered list", speeds(0.25, 1, 0.5), 0.6, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectShutterSpeed(tt.available, tt.seconds, false)
			if err != nil {
				t.Fatal(err)
			}
			if got.Duration != tt.want {
				t.Errorf("got %v, want %v", got.Duration, tt.want)
			}
		})
	}
}

func TestSelectShutterSpeed_Bulb(t *testing.T) {
	available := append([]model.ShutterSpeed{{Name: "BULB", Bulb: true}}, speeds(1, 0.5)...)
	got, err := SelectShutterSpeed(available, 120, true)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "BULB" {
		t.Errorf("got %q, want BULB", got.Name)
	}
	// Bulb never wins a timed selection even though its duration is zero.
	got, err = SelectShutterSpeed(available, 0.01, false)
	if err != nil || got.Bulb {
		t.Errorf("timed selection picked %+v, %v", got, err)
	}
	if _, err := SelectShutterSpeed(speeds(1), 5, true); !errors.Is(err, model.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented without a bulb entry, got %v", err)
	}
}
