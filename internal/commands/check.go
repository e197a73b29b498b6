package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/accounts"
	"github.com/releve-dev/releve/internal/ledger"
)

func newCheckCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate running balances, identifiers and dates of the stored ledger",
		Long: "Checks the stored ledger's invariants. Account registration is only\n" +
			"checked once accounts/accounts.csv names at least one account.",
		Args: cobra.NoArgs,
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

			svc, err := accounts.Load(p.root)
			if err != nil {
				return err
			}
			var checker ledger.AccountChecker
			if len(svc.All()) > 0 {
				checker = svc
			}

			out := cmd.OutOrStdout()
			errs := ledger.Validate(tbl.Rows, checker)
			if len(errs) == 0 {
				fmt.Fprintf(out, "%s %d rows\n", green("OK"), len(tbl.Rows))
				return nil
			}
			for _, e := range errs {
				fmt.Fprintf(out, "%s %s\n", red("FAIL"), e.Error())
			}
			return fmt.Errorf("%d invariant violation(s) in %d rows", len(errs), len(tbl.Rows))
		},
	}
}
