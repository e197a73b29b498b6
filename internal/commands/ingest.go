package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/releve-dev/releve/internal/importer"
	"github.com/releve-dev/releve/internal/pipeline"
	"github.com/releve-dev/releve/internal/runlog"
)

func newIngestCommand(repoDir *string) *cobra.Command {
	var scan, dryRun bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Import statement workbooks into the ledger",
		Long: "Parses each workbook, classifies the new rows, merges them into the ledger\n" +
			"and commits. With --scan, every .xlsx in the import directory is ingested\n" +
			"in name order and moved to its processed/ subdirectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scan == (len(args) > 0) {
				return fmt.Errorf("give statement files or --scan, not both or neither")
			}
			p, err := openProject(*repoDir)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cmd.OutOrStdout(), p, args, scan, dryRun)
		},
	}

	cmd.Flags().BoolVar(&scan, "scan", false, "ingest every workbook in the import directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run without writing the ledger")

	return cmd
}

func runIngest(ctx context.Context, out io.Writer, p *project, files []string, scan, dryRun bool) error {
	ctx = p.context(ctx)

	importDir := p.cfg.ImportDir(p.root)
	if scan {
		found, err := importer.Scan(importDir)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintf(out, "No workbooks in %s\n", importDir)
			return nil
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}

	s, err := p.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := p.runner(s, dryRun)
	if err != nil {
		return err
	}

	for _, path := range files {
		res, err := r.Ingest(ctx, path)
		name := filepath.Base(path)
		if err != nil {
			if !dryRun {
				p.record(ctx, runlog.Entry{RunID: res.RunID, Action: runlog.ActionFailed, File: name, Details: err.Error()})
			}
			fmt.Fprintf(out, "%s %s\n", red("FAILED"), name)
			return err
		}
		printIngest(out, name, res)
		if dryRun {
			continue
		}
		p.record(ctx, runlog.Entry{RunID: res.RunID, Action: runlog.ActionIngest, File: name, Details: ingestDetails(res)})
		if scan {
			if err := importer.MarkProcessed(importDir, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func ingestDetails(res *pipeline.Result) string {
	if res.Skipped {
		return "skipped: no transactions"
	}
	return fmt.Sprintf("parsed=%d accepted=%d duplicates=%d dropped_before_cutoff=%d matched=%d excluded=%d propagated=%d rows=%d",
		res.Parsed, res.Accepted, res.Duplicates, res.DroppedBeforeCutoff,
		res.Rules.Matched, res.Rules.Excluded, res.Propagated, res.Total)
}

func printIngest(out io.Writer, name string, res *pipeline.Result) {
	status := green("OK")
	switch {
	case res.DryRun:
		status = yellow("DRY RUN")
	case res.Skipped:
		status = yellow("SKIPPED")
	case !res.Committed:
		status = yellow("UNCHANGED")
	}
	fmt.Fprintf(out, "%s %s\n", status, bold(name))
	if res.Skipped {
		return
	}
	fmt.Fprintf(out, "  parsed %d rows in %d account(s)\n", res.Parsed, res.Accounts)
	if !res.Cutoff.IsZero() {
		fmt.Fprintf(out, "  cutoff %s: %d older dropped, %d duplicates\n",
			res.Cutoff.Format(time.DateOnly), res.DroppedBeforeCutoff, res.Duplicates)
	}
	fmt.Fprintf(out, "  accepted %d, ledger now %d rows\n", res.Accepted, res.Total)
	fmt.Fprintf(out, "  classified %d by rule, %d excluded, %d by similarity, %d left to review\n",
		res.Rules.Matched, res.Rules.Excluded, res.Propagated, res.Unmatched)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(out, "  %s %s\n", yellow("note:"), d)
	}
}
