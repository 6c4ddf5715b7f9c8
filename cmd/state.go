package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/dslr-remote/internal/automation"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show which screen the remote app is on",
	Long: `Probe the remote app's windows and print the recognised screen: no-window,
no-camera, select-camera, main, cannot-create-folder or cannot-access-folder.

With --wait, poll until the app shows that screen or the timeout passes.`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().String("wait", "", "Poll until the app shows this screen")
	stateCmd.Flags().Int("timeout", 30, "Max seconds to wait")
	stateCmd.Flags().Int("interval", 500, "Polling interval in milliseconds")
}

func runState(cmd *cobra.Command, args []string) error {
	waitFor, _ := cmd.Flags().GetString("wait")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	intervalMs, _ := cmd.Flags().GetInt("interval")

	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	if waitFor == "" {
		probe, err := s.remote.Detect()
		if err != nil {
			return err
		}
		return output.Print(output.StateResult{State: probe.State, Windows: probe.Windows})
	}

	want, err := model.ParseWindowType(waitFor)
	if err != nil {
		return err
	}
	timeout := time.Duration(timeoutSec) * time.Second
	interval := time.Duration(intervalMs) * time.Millisecond
	probe, elapsed, err := waitForState(s.remote, want, timeout, interval)
	if err != nil {
		return err
	}
	return output.Print(output.StateResult{State: probe.State, Windows: probe.Windows, Waited: seconds(elapsed)})
}

// waitForState polls r until it shows want. Unrecognised screens are
// retried since the app passes through them while redrawing.
func waitForState(r *automation.Remote, want model.WindowType, timeout, interval time.Duration) (automation.Probe, time.Duration, error) {
	start := time.Now()
	deadline := start.Add(timeout)
	for {
		probe, err := r.Detect()
		if err == nil && probe.State == want {
			return probe, time.Since(start), nil
		}
		if err != nil && !errors.Is(err, model.ErrUnknownWindowState) {
			return automation.Probe{}, 0, err
		}
		if time.Now().After(deadline) {
			last := string(probe.State)
			if err != nil {
				last = err.Error()
			}
			return automation.Probe{}, 0, fmt.Errorf("timeout after %s waiting for %s (last: %s)", timeout, want, last)
		}
		time.Sleep(interval)
	}
}
