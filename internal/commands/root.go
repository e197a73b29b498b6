package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var repoDir string

	rootCmd := &cobra.Command{
		Use:     "releve",
		Short:   "Crédit Agricole statement ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&repoDir, "repo", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(&repoDir),
		newReclassifyCommand(&repoDir),
		newCategorizeCommand(&repoDir),
		newReviewCommand(&repoDir),
		newCheckCommand(&repoDir),
		newExportCommand(&repoDir),
		newAccountsCommand(&repoDir),
		newLogCommand(&repoDir),
	)

	return rootCmd
}
