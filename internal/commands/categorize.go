package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/id"
	"github.com/releve-dev/releve/internal/runlog"
)

func newCategorizeCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <id> <category>",
		Short: "Set a row's category by hand and settle it",
		Long: "Sets the category of one ledger row and marks it settled, so neither\n" +
			"ingestion nor reclassify changes it again. Giving the default category\n" +
			"only settles the row.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := id.ParseRowID(args[0])
			if err != nil {
				return err
			}
			category := strings.TrimSpace(args[1])
			if category == "" {
				return fmt.Errorf("category must not be empty")
			}

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

			if err := s.SetCategory(ctx, rowID, category); err != nil {
				return fmt.Errorf("categorizing row %d: %w", rowID, err)
			}
			p.record(ctx, runlog.Entry{
				RunID:   id.NewRunID(),
				Action:  runlog.ActionCategorize,
				Details: fmt.Sprintf("row=%d category=%s", rowID, category),
			})

			fmt.Fprintf(cmd.OutOrStdout(), "%s row %d -> %s\n", green("OK"), rowID, category)
			return nil
		},
	}
}
