package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newReviewCommand(repoDir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List spending rows still waiting for a category",
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

			tbl, err := s.ReadAll(ctx)
			if err != nil {
				return err
			}
			c, err := p.classifier()
			if err != nil {
				return err
			}

			// Suggestions below the threshold are not shown.
			hint := make(map[string]string)
			for _, sg := range c.Suggest(tbl.Rows) {
				hint[sg.Label] = fmt.Sprintf("%s (%.0f, like %q)", sg.Category, sg.Score, sg.Reference)
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tLABEL\tDEBIT\tSUGGESTION")
			shown, pending := 0, 0
			for _, t := range tbl.Rows {
				if !t.IsDebit() || t.Settled {
					continue
				}
				pending++
				if limit > 0 && shown >= limit {
					continue
				}
				shown++
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					t.ID, t.Date.Format(time.DateOnly), t.Label, t.Debit.Decimal.StringFixed(2), hint[t.Label])
			}
			if pending == 0 {
				fmt.Fprintln(out, green("Nothing to review"))
				return nil
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d row(s) to review", pending)
			if shown < pending {
				fmt.Fprintf(out, ", %d shown", shown)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n rows (0 = all)")

	return cmd
}
