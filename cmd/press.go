package cmd

import (
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

var pressCmd = &cobra.Command{
	Use:   "press <window> <control>",
	Short: "Click a named control of a remote app window",
	Long: `Connect to the remote app, then click the control the catalog names
<control> on screen <window>. The app must be showing that screen.

Examples:
  dslr-remote press main isoIncreaseButton
  dslr-remote press main shutterButton`,
	Args: cobra.ExactArgs(2),
	RunE: runPress,
}

func init() {
	rootCmd.AddCommand(pressCmd)
}

func runPress(cmd *cobra.Command, args []string) error {
	window, name, err := parseWindowControl(args)
	if err != nil {
		return err
	}
	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := s.remote.Connect(ctx); err != nil {
		return err
	}
	if err := s.remote.PressButton(ctx, window, name); err != nil {
		return err
	}
	return output.Print(output.ControlResult{Window: window, Control: name, OK: true})
}
