package cmd

import (
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Bring the remote app to its main window",
	Long: `Launch the remote app if no window is open, dismiss its start-up dialogs,
pick the first camera and report the folder it saves images to.`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := s.remote.Connect(ctx); err != nil {
		return err
	}
	probe, err := s.remote.Detect()
	if err != nil {
		return err
	}
	folder, err := s.remote.SaveFolder(ctx)
	if err != nil {
		logger.Warn("reading save folder", "error", err)
	}
	return output.Print(output.ConnectResult{
		Connected: s.remote.Connected(),
		Camera:    s.remote.Camera().ID,
		State:     probe.State,
		Folder:    folder,
	})
}
