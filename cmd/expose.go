package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"
)

var exposeCmd = &cobra.Command{
	Use:   "expose",
	Short: "Take an exposure and decode the image",
	Long: `Connect to the remote app, set shutter speed and ISO, trigger the shutter,
wait for the image file and decode it. Prints the image statistics; --out
writes the image as FITS and --preview as a stretched PNG.

In bulb mode an interrupt (Ctrl-C) closes the shutter early and keeps the
image.

Examples:
  dslr-remote expose --duration 30 --gain 4 --out light.fits
  dslr-remote expose --duration 120 --bulb --roi 1000,800,512,512`,
	Args: cobra.NoArgs,
	RunE: runExpose,
}

func init() {
	rootCmd.AddCommand(exposeCmd)
	exposeCmd.Flags().Float64("duration", 0, "Exposure time in seconds (required)")
	exposeCmd.Flags().Int("gain", 0, "Index into the camera's ISO list")
	exposeCmd.Flags().Bool("bulb", false, "Hold the shutter open in BULB mode")
	exposeCmd.Flags().Bool("auto-delete", false, "Delete the camera file after decoding")
	exposeCmd.Flags().Bool("dark", false, "Record the frame as a dark (lens capped)")
	exposeCmd.Flags().String("roi", "", "Readout region x,y,w,h")
	exposeCmd.Flags().String("out", "", "Write the image as FITS")
	exposeCmd.Flags().String("preview", "", "Write a PNG preview")
	exposeCmd.Flags().Int("timeout", 120, "Seconds to wait for the image after the exposure")
	_ = exposeCmd.MarkFlagRequired("duration")
}

func runExpose(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetFloat64("duration")
	dark, _ := cmd.Flags().GetBool("dark")
	roiStr, _ := cmd.Flags().GetString("roi")
	outPath, _ := cmd.Flags().GetString("out")
	previewPath, _ := cmd.Flags().GetString("preview")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")

	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	store, err := openJournal(s.cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	cam, err := s.newCamera(store)
	if err != nil {
		return err
	}
	defer cam.Close()

	ctx := cmd.Context()
	if err := cam.Connect(ctx); err != nil {
		return err
	}
	if roiStr != "" {
		roi, err := parseROI(roiStr)
		if err != nil {
			return err
		}
		if err := cam.SetROI(roi); err != nil {
			return err
		}
	}

	settings := cam.Settings()
	gain, _ := settings.Gain()
	if err := cam.StartExposure(duration, !dark); err != nil {
		return err
	}

	limit := time.Duration(duration*float64(time.Second)) + time.Duration(timeoutSec)*time.Second
	if err := awaitImage(ctx, cam, limit); err != nil {
		return err
	}

	img, err := cam.ImageArray()
	if err != nil {
		return err
	}
	result := output.NewImageResult("", settings.Format, img)
	if outPath != "" {
		start, _ := cam.LastExposureStart()
		cards := []fitsio.Card{
			{Name: "INSTRUME", Value: settings.Model.ID},
			{Name: "EXPTIME", Value: duration, Comment: "seconds"},
			{Name: "ISO", Value: gain},
			{Name: "DATE-OBS", Value: start.UTC().Format("2006-01-02T15:04:05.000")},
		}
		if settings.Format == model.FormatCFA {
			cards = append(cards, fitsio.Card{Name: "BAYERPAT", Value: "RGGB"})
		}
		if err := writeFITSFile(outPath, img, cards); err != nil {
			return err
		}
		result.FITS = outPath
	}
	if previewPath != "" {
		if err := writePreviewFile(previewPath, img, 0); err != nil {
			return err
		}
		result.Preview = previewPath
	}
	return output.Print(output.ExposureResult{
		Camera:   settings.Model.ID,
		Duration: duration,
		Gain:     gain,
		Bulb:     settings.BulbMode,
		State:    cam.State(),
		Image:    &result,
	})
}

// awaitImage polls cam with a spinner on stderr until the image is decoded.
// Cancelling ctx stops a bulb exposure early and keeps waiting for its image.
func awaitImage(ctx context.Context, cam *camera.Camera, limit time.Duration) error {
	spinner, err := yacspin.New(yacspin.Config{
		Writer:            os.Stderr,
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		Message:           "exposing",
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
	})
	if err != nil {
		return err
	}
	if err := spinner.Start(); err != nil {
		logger.Debug("spinner disabled", "error", err)
	}
	fail := func(err error) error {
		spinner.StopFailMessage(err.Error())
		_ = spinner.StopFail()
		return err
	}

	deadline := time.After(limit)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	done := ctx.Done()
	for {
		select {
		case <-done:
			done = nil
			if !cam.CanStopExposure() {
				return fail(ctx.Err())
			}
			if err := cam.StopExposure(context.WithoutCancel(ctx)); err != nil {
				return fail(err)
			}
		case <-deadline:
			return fail(fmt.Errorf("timeout after %s waiting for the image", limit))
		case <-tick.C:
		}

		state := cam.State()
		switch {
		case state == model.StateError:
			return fail(errors.New("exposure failed, see log"))
		case state == model.StateIdle && cam.ImageReady():
			spinner.StopMessage("image ready")
			_ = spinner.Stop()
			return nil
		case state == model.StateIdle:
			return fail(errors.New("exposure ended without an image"))
		}
		spinner.Message(fmt.Sprintf("%s %d%%", state, cam.PercentCompleted()))
	}
}
