package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mj1618/dslr-remote/internal/config"
	"github.com/mj1618/dslr-remote/internal/logging"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/mj1618/dslr-remote/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dslr-remote",
	Short: "Drive a camera through its remote-control app",
	Long: `Drive a camera through the vendor's remote-control app: recognise which
screen the app shows, step ISO and shutter speed, trigger exposures and decode
the files the app saves.`,
	SilenceUsage: true,
}

var (
	appConfig = config.Default()
	logger    = logging.Discard()
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	pf := rootCmd.PersistentFlags()
	pf.String("format", "yaml", "Output format: yaml, json")
	pf.Bool("pretty", false, "Indent JSON output")
	pf.String("config", config.FileName, "Config file (missing is fine)")
	pf.String("camera", "", "Camera model id from the catalog")
	pf.String("image-format", "", "Image format: cfa, debayered, jpg")
	pf.String("catalog", "", "Window and camera catalog (default: built in)")
	pf.String("app-path", "", "Path of the remote app executable")
	pf.String("save-dir", "", "Folder the remote app saves images to")
	pf.String("journal", "", "Exposure journal database")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text, json")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flag directly so subcommand flags cannot
		// shadow it.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		if pretty, err := rootCmd.PersistentFlags().GetBool("pretty"); err == nil && pretty {
			output.PrettyOutput = true
		}

		path, _ := rootCmd.PersistentFlags().GetString("config")
		cfg, err := config.Load(path, cmd.Flags())
		if err != nil {
			return err
		}
		appConfig = cfg
		level, _ := config.ParseLevel(cfg.Log.Level)
		logger = logging.New(os.Stderr, cfg.Log.Format, level)
		slog.SetDefault(logger)
		return nil
	}
}
