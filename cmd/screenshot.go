package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
	"github.com/spf13/cobra"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a screenshot of the remote app",
	Long: `Capture the remote app's current window, or the whole screen with --screen.
Useful when the app shows a screen the catalog does not recognise.`,
	Args: cobra.NoArgs,
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	screenshotCmd.Flags().String("format", "png", "Output format: png, jpg")
	screenshotCmd.Flags().Int("quality", 80, "JPEG quality 1-100")
	screenshotCmd.Flags().Float64("scale", 0.5, "Scale factor 0.1-1.0")
	screenshotCmd.Flags().Bool("screen", false, "Capture the whole screen")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	if provider.Screenshotter == nil {
		return fmt.Errorf("screenshot not supported on this platform")
	}

	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	quality, _ := cmd.Flags().GetInt("quality")
	scale, _ := cmd.Flags().GetFloat64("scale")
	screen, _ := cmd.Flags().GetBool("screen")

	var window model.ControlHandle
	if !screen {
		windows, err := provider.Reader.FindWindows(appConfig.App.Title)
		if err != nil {
			return err
		}
		if len(windows) == 0 {
			return fmt.Errorf("no %q window open (use --screen for the whole screen)", appConfig.App.Title)
		}
		window = windows[0]
	}

	data, err := provider.Screenshotter.CaptureWindow(window, platform.ScreenshotOptions{
		Format:  format,
		Quality: quality,
		Scale:   scale,
	})
	if err != nil {
		return err
	}

	if output != "" {
		return os.WriteFile(output, data, 0644)
	}

	// Default: write to stdout as base64 for easy agent consumption
	encoder := base64.NewEncoder(base64.StdEncoding, os.Stdout)
	if _, err := encoder.Write(data); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
