package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 22, 15, 0, 0, time.UTC)

	exposures := []camera.Exposure{
		{Start: start, Duration: 30, Gain: 800, Format: model.FormatCFA, Camera: "ILCE-7M3",
			Outcome: model.StateIdle, Path: `D:\img\DSC001.ARW`,
			Stats: &imaging.Statistics{Min: 1, Max: 4, Mean: 2, Median: 2, Count: 4}},
		{Start: start.Add(time.Minute), Duration: 60, Gain: 1600, Bulb: true, Format: model.FormatJPEG,
			Camera: "ILCE-7M3", Outcome: model.StateError, Err: "decode failed"},
	}
	for _, e := range exposures {
		if err := s.RecordExposure(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{ID: 2, Start: start.Add(time.Minute), Duration: 60, Gain: 1600, Bulb: true, Format: "jpg",
			Camera: "ILCE-7M3", Outcome: "error", Error: "decode failed"},
		{ID: 1, Start: start, Duration: 30, Gain: 800, Format: "cfa", Camera: "ILCE-7M3",
			Outcome: "idle", Path: `D:\img\DSC001.ARW`,
			Stats: &imaging.Statistics{Min: 1, Max: 4, Mean: 2, Median: 2, Count: 4}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err = s.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("limit 1 returned %+v", got)
	}
}

func TestRecent_Empty(t *testing.T) {
	s := openStore(t)
	got, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordExposure(context.Background(), camera.Exposure{Start: time.Now(), Outcome: model.StateIdle}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Recent(context.Background(), 5)
	if err != nil || len(got) != 1 {
		t.Errorf("reopened journal: %d entries, %v", len(got), err)
	}
}

var _ camera.Recorder = (*Store)(nil)
