package cmd

import (
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mj1618/dslr-remote/internal/output"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"state", "tree", "press", "text", "set", "connect", "expose", "decode", "history", "screenshot", "serve", "config"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	done := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		done <- b
	}()
	runErr := fn()
	os.Stdout = orig
	w.Close()
	out := <-done
	if runErr != nil {
		t.Fatalf("command failed: %v", runErr)
	}
	return string(out)
}

func TestDecodeCommand_JPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")
	img := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	fitsPath := filepath.Join(dir, "frame.fits")
	rootCmd.SetArgs([]string{
		"decode", path,
		"--format", "json",
		"--config", filepath.Join(dir, "missing.yml"),
		"--image-format", "jpg",
		"--out", fitsPath,
	})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		output.OutputFormat = output.FormatYAML
	})
	out := captureStdout(t, rootCmd.Execute)

	var got output.ImageResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	want := output.ImageResult{File: path, Format: "jpg", Width: 8, Height: 6, Planes: 3, FITS: fitsPath}
	got.Stats = want.Stats
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if st, err := os.Stat(fitsPath); err != nil || st.Size()%2880 != 0 {
		t.Errorf("fits file: size %v, err %v", st, err)
	}
}
