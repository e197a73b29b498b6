package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/runlog"
)

func newReclassifyCommand(repoDir *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run the rules and similarity propagation over unsettled rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*repoDir)
			if err != nil {
				return err
			}
			ctx := p.context(cmd.Context())

			s, err := p.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := p.runner(s, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			res, err := r.Reclassify(ctx)
			if err != nil {
				if !dryRun {
					p.record(ctx, runlog.Entry{RunID: res.RunID, Action: runlog.ActionFailed, Details: err.Error()})
				}
				return err
			}
			if res.Skipped {
				fmt.Fprintln(out, "Ledger is empty, nothing to reclassify")
				return nil
			}

			details := fmt.Sprintf("matched=%d excluded=%d propagated=%d unmatched=%d",
				res.Rules.Matched, res.Rules.Excluded, res.Propagated, res.Unmatched)
			if !dryRun {
				p.record(ctx, runlog.Entry{RunID: res.RunID, Action: runlog.ActionReclassify, Details: details})
			}

			status := green("OK")
			switch {
			case dryRun:
				status = yellow("DRY RUN")
			case !res.Committed:
				status = yellow("UNCHANGED")
			}
			fmt.Fprintf(out, "%s %d by rule, %d excluded, %d by similarity, %d left to review\n",
				status, res.Rules.Matched, res.Rules.Excluded, res.Propagated, res.Unmatched)
			if res.Snapshot != "" {
				fmt.Fprintf(out, "  previous ledger saved to %s\n", res.Snapshot)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run without writing the ledger")

	return cmd
}
