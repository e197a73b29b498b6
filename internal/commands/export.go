package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/ledger"
)

func newExportCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the ledger as CSV (\"-\" for stdout)",
		Args:  cobra.MaximumNArgs(1),
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

			path := filepath.Join(p.root, exportsDir, "operations.csv")
			if len(args) > 0 {
				if args[0] == "-" {
					return ledger.WriteRows(cmd.OutOrStdout(), tbl.Rows)
				}
				path = args[0]
				if !filepath.IsAbs(path) {
					path = filepath.Join(p.root, path)
				}
			}
			if err := ledger.WriteFile(path, tbl.Rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d rows to %s\n", green("OK"), len(tbl.Rows), path)
			return nil
		},
	}
}
