package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/runlog"
)

func newLogCommand(repoDir *string) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*repoDir)
			if err != nil {
				return err
			}
			entries, err := runlog.Tail(p.root, n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs yet")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range entries {
				action := e.Action
				if action == runlog.ActionFailed {
					action = red(action)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), action, e.File, e.Details)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 20, "number of runs to show (0 = all)")

	return cmd
}
