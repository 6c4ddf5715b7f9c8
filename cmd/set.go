package cmd

import (
	"fmt"

	"github.com/mj1618/dslr-remote/internal/automation"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

// SetResult is the output of `set`: the selector captions after stepping.
type SetResult struct {
	ISO     string `yaml:"iso"     json:"iso"`
	Shutter string `yaml:"shutter" json:"shutter"`
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Step the ISO and shutter speed selectors",
	Long: `Connect to the remote app and step its ISO and shutter speed selectors one
click at a time until they show the requested values. The shutter speed is the
slowest supported speed not longer than --shutter seconds.

Examples:
  dslr-remote set --iso 800
  dslr-remote set --shutter 2.5
  dslr-remote set --bulb`,
	Args: cobra.NoArgs,
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().Int("iso", 0, "ISO value from the camera's gain list")
	setCmd.Flags().Float64("shutter", 0, "Shutter speed in seconds")
	setCmd.Flags().Bool("bulb", false, "Select the BULB shutter entry")
}

func runSet(cmd *cobra.Command, args []string) error {
	iso, _ := cmd.Flags().GetInt("iso")
	shutter, _ := cmd.Flags().GetFloat64("shutter")
	bulb, _ := cmd.Flags().GetBool("bulb")
	if iso == 0 && !cmd.Flags().Changed("shutter") && !bulb {
		return fmt.Errorf("specify at least one of --iso, --shutter or --bulb")
	}

	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := s.remote.Connect(ctx); err != nil {
		return err
	}
	if cmd.Flags().Changed("shutter") || bulb {
		if err := s.remote.SetShutterSpeed(ctx, shutter, bulb); err != nil {
			return err
		}
	}
	if iso != 0 {
		if err := s.remote.SetISO(ctx, iso); err != nil {
			return err
		}
	}

	var result SetResult
	if result.ISO, err = s.remote.ReadText(ctx, model.WindowMain, automation.ControlISO); err != nil {
		return err
	}
	if result.Shutter, err = s.remote.ReadText(ctx, model.WindowMain, automation.ControlShutterSpeed); err != nil {
		return err
	}
	return output.Print(result)
}
