package cmd

import (
	"errors"
	"fmt"

	"github.com/mj1618/dslr-remote/internal/automation"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/mj1618/dslr-remote/internal/platform"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the control tree of every remote app window",
	Long: `Print each remote app window's controls in preorder with their structural
paths and captions. Paths are what catalog templates refer to, so this is the
tool for writing a template for a new app version.`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	result, err := readTree(s.provider.Reader, s.catalog, s.cfg.App.Title)
	if err != nil {
		return err
	}
	return output.Print(result)
}

// readTree snapshots every window titled title and labels it with the first
// template it matches.
func readTree(r platform.Reader, cat *model.Catalog, title string) (output.TreeResult, error) {
	windows, err := r.FindWindows(title)
	if err != nil {
		return output.TreeResult{}, fmt.Errorf("find %q windows: %w", title, err)
	}
	result := output.TreeResult{Title: title, Windows: []output.TreeWindow{}}
	for _, w := range windows {
		tree, err := automation.BuildTree(r, w)
		if err != nil {
			if errors.Is(err, automation.ErrWindowGone) {
				continue
			}
			return output.TreeResult{}, err
		}
		tw := output.TreeWindow{Handle: w, Controls: tree.Flatten()}
		for _, tmpl := range cat.Windows {
			if automation.Matches(r, tree, tmpl) {
				tw.State = tmpl.Type
				break
			}
		}
		for i := range tw.Controls {
			// Captions of controls that vanish mid-read stay empty.
			tw.Controls[i].Text, _ = r.WindowText(tw.Controls[i].Handle)
		}
		result.Windows = append(result.Windows, tw)
	}
	return result, nil
}
