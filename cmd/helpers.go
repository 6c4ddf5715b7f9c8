package cmd

import (
	"fmt"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/mj1618/dslr-remote/internal/automation"
	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/catalog"
	"github.com/mj1618/dslr-remote/internal/config"
	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/journal"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
)

// session is everything a command needs to talk to the remote app.
type session struct {
	cfg      config.Config
	catalog  *model.Catalog
	provider *platform.Provider
	remote   *automation.Remote
}

func loadCatalog(cfg config.Config) (*model.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.Catalog)
}

// newSession resolves the configured camera and builds a driver on the
// platform provider.
func newSession(cfg config.Config) (*session, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	if provider.Reader == nil || provider.Inputter == nil {
		return nil, fmt.Errorf("UI automation not available on this platform")
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	cam, err := cat.Camera(cfg.Camera)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		catalog:  cat,
		provider: provider,
		remote:   automation.NewRemote(provider, cat, cam, cfg.AutomationOptions(), logger),
	}, nil
}

// newCamera wraps the session's driver in a camera. rec may be nil.
func (s *session) newCamera(rec *journal.Store) (*camera.Camera, error) {
	settings, err := s.cfg.CameraSettings(s.catalog)
	if err != nil {
		return nil, err
	}
	opts := s.cfg.CameraOptions()
	if rec != nil {
		opts.Recorder = rec
	}
	return camera.New(s.remote, settings, opts, logger)
}

// openJournal opens the configured journal. An empty path disables it.
func openJournal(cfg config.Config) (*journal.Store, error) {
	if cfg.Journal == "" {
		return nil, nil
	}
	return journal.Open(cfg.Journal)
}

// parseROI reads an x,y,w,h region.
func parseROI(s string) (imaging.ROI, error) {
	b, err := platform.ParseBBox(s)
	if err != nil {
		return imaging.ROI{}, fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
	}
	return imaging.ROI{StartX: b.X, StartY: b.Y, NumX: b.Width, NumY: b.Height}, nil
}

// parseWindowControl reads the <window> <control> arguments of press and text.
func parseWindowControl(args []string) (model.WindowType, string, error) {
	wt, err := model.ParseWindowType(args[0])
	if err != nil {
		return "", "", err
	}
	name := strings.TrimSpace(args[1])
	if name == "" {
		return "", "", fmt.Errorf("%w: empty control name", model.ErrInvalidValue)
	}
	return wt, name, nil
}

// writeFITSFile writes b to path as FITS.
func writeFITSFile(path string, b *imaging.PixelBuffer, cards []fitsio.Card) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imaging.WriteFITS(f, b, cards); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// writePreviewFile writes a stretched PNG of b, at most maxDim pixels on
// a side when maxDim is positive.
func writePreviewFile(path string, b *imaging.PixelBuffer, maxDim int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, imaging.Preview(b, maxDim)); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func seconds(d time.Duration) float64 {
	return float64(d.Round(100*time.Millisecond)) / float64(time.Second)
}
