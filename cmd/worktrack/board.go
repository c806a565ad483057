package main

import (
	"github.com/spf13/cobra"

	"github.com/baiirun/worktrack/internal/tracker"
	"github.com/baiirun/worktrack/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"ui"},
	Short:   "Open the interactive board",
	Long: `Open an interactive terminal board of the items you can see.

Keys:
  j/k       move
  f         cycle the status filter
  0         show every status
  enter/a   advance the selected item
  1/2/3     set pending / in-progress / completed (privileged roles)
  r         toggle the report (admin)
  q         quit`,
	RunE: withTracker(func(cmd *cobra.Command, args []string, tr *tracker.Tracker) error {
		sess, err := requireLogin(tr)
		if err != nil {
			return err
		}
		return tui.Run(tr, sess)
	}),
}
