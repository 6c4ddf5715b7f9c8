package cmd

import (
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text <window> <control>",
	Short: "Read the caption of a named control",
	Args:  cobra.ExactArgs(2),
	RunE:  runText,
}

func init() {
	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
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
	text, err := s.remote.ReadText(ctx, window, name)
	if err != nil {
		return err
	}
	return output.Print(output.ControlResult{Window: window, Control: name, Text: &text, OK: true})
}
