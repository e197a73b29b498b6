package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/accounts"
	"github.com/releve-dev/releve/internal/model"
)

func newAccountsCommand(repoDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Show each account's label, row count and latest balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*repoDir)
			if err != nil {
				return err
			}
			ctx := p.context(cmd.Context())

			svc, err := accounts.Load(p.root)
			if err != nil {
				return err
			}
			s, err := p.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			tbl, err := s.ReadAll(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summaries := svc.Summarize(tbl.Rows)
			if len(summaries) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACCOUNT\tROWS\tLATEST\tBALANCE\tTO REVIEW")
			for _, sum := range summaries {
				balance := "-"
				if sum.LatestBalance.Valid {
					balance = sum.LatestBalance.Decimal.StringFixed(2)
				}
				label := sum.Label
				if sum.AccountID == 0 {
					label = "(no balance)"
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%d\n",
					sum.AccountID, label, sum.Transactions, sum.LatestDate.Format(time.DateOnly), balance, sum.Uncategorized)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(newAccountsSetCommand(repoDir))

	return cmd
}

func newAccountsSetCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <name> [description]",
		Short: "Name an account",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.Atoi(args[0])
			if err != nil || accountID < 1 {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			p, err := openProject(*repoDir)
			if err != nil {
				return err
			}
			svc, err := accounts.Load(p.root)
			if err != nil {
				return err
			}

			acct := model.Account{ID: accountID, Name: args[1]}
			if len(args) == 3 {
				acct.Description = args[2]
			}
			svc.Set(acct)
			if err := svc.Save(p.root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s account %d is %q\n", green("OK"), accountID, acct.Name)
			return nil
		},
	}
}
