package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/releve-dev/releve/internal/classifier"
	"github.com/releve-dev/releve/internal/importer"
	"github.com/releve-dev/releve/internal/ledger"
	"github.com/releve-dev/releve/internal/logger"
	"github.com/releve-dev/releve/internal/model"
	"github.com/releve-dev/releve/internal/reconcile"
	"github.com/releve-dev/releve/internal/store"
)

// ReadStatementStep parses the statement file into the batch.
type ReadStatementStep struct {
	Parser importer.Parser
}

func (s *ReadStatementStep) Name() string { return "read statement" }

func (s *ReadStatementStep) Execute(ctx context.Context, st *State) error {
	stmt, err := importer.ParseFile(s.Parser, st.File)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	for _, d := range stmt.Diagnostics {
		log.Warn().Msg(d)
	}
	log.Info().
		Int("rows", len(stmt.Transactions)).
		Int("sections", stmt.Sections).
		Int("accounts", stmt.Accounts()).
		Msg("statement parsed")

	st.Statement = stmt
	st.Batch = stmt.Transactions
	st.Skipped = len(st.Batch) == 0
	return nil
}

// ClassifyBatchStep applies the pattern rules to the new rows only, so
// settled ledger rows are never revisited.
type ClassifyBatchStep struct {
	Classifier *classifier.Classifier
}

func (s *ClassifyBatchStep) Name() string { return "classify batch" }

func (s *ClassifyBatchStep) Execute(ctx context.Context, st *State) error {
	st.RuleStats = s.Classifier.ApplyRules(st.Batch)
	log := logger.FromContext(ctx)
	log.Info().
		Int("matched", st.RuleStats.Matched).
		Int("excluded", st.RuleStats.Excluded).
		Int("unmatched", st.RuleStats.Unmatched).
		Msg("rules applied")
	return nil
}

// LoadLedgerStep reads the current ledger.
type LoadLedgerStep struct {
	Store     store.Gateway
	SkipEmpty bool
}

func (s *LoadLedgerStep) Name() string { return "load ledger" }

func (s *LoadLedgerStep) Execute(ctx context.Context, st *State) error {
	tbl, err := s.Store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Debug().Int("rows", len(tbl.Rows)).Msg("ledger loaded")
	st.Ledger = tbl
	st.Skipped = s.SkipEmpty && len(tbl.Rows) == 0
	return nil
}

// MergeStep folds the batch into the ledger.
type MergeStep struct{}

func (s *MergeStep) Name() string { return "merge" }

func (s *MergeStep) Execute(ctx context.Context, st *State) error {
	res, err := reconcile.Merge(st.Ledger, reconcile.NewTable(st.Batch))
	if errors.Is(err, reconcile.ErrEmptyBatch) {
		st.Skipped = true
		return nil
	}
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	ev := log.Info().
		Int("accepted", res.Accepted).
		Int("duplicates", res.Duplicates).
		Int("dropped_before_cutoff", res.DroppedBeforeCutoff).
		Int("rows", len(res.Rows))
	if !res.Cutoff.IsZero() {
		ev = ev.Str("cutoff", res.Cutoff.Format(time.DateOnly))
	}
	ev.Msg("batch merged")

	st.Merge = res
	st.Rows = res.Rows
	st.Changed = res.Accepted > 0
	return nil
}

// PropagateStep runs similarity propagation over the merged ledger.
type PropagateStep struct {
	Classifier *classifier.Classifier
}

func (s *PropagateStep) Name() string { return "propagate" }

func (s *PropagateStep) Execute(ctx context.Context, st *State) error {
	st.PropagateStats = s.Classifier.Propagate(st.Rows)
	log := logger.FromContext(ctx)
	log.Info().
		Int("propagated", st.PropagateStats.Propagated).
		Int("unmatched", st.PropagateStats.Unmatched).
		Msg("similar labels propagated")
	if st.PropagateStats.Propagated > 0 {
		st.Changed = true
	}
	return nil
}

// SnapshotStep writes the ledger as CSV before it is modified.
type SnapshotStep struct {
	Dir string
	Now func() time.Time
}

func (s *SnapshotStep) Name() string { return "snapshot" }

func (s *SnapshotStep) Execute(ctx context.Context, st *State) error {
	if s.Dir == "" {
		return nil
	}
	name := "ledger-" + s.Now().Format("20060102-150405") + ".csv"
	path := filepath.Join(s.Dir, name)
	if err := ledger.WriteFile(path, st.Ledger.Rows); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("path", path).Msg("ledger snapshot written")
	st.Snapshot = path
	return nil
}

// ClassifyLedgerStep re-runs both classifier stages over the stored ledger.
// Settled rows keep their category.
type ClassifyLedgerStep struct {
	Classifier *classifier.Classifier
}

func (s *ClassifyLedgerStep) Name() string { return "classify ledger" }

func (s *ClassifyLedgerStep) Execute(ctx context.Context, st *State) error {
	rows := make([]model.Transaction, len(st.Ledger.Rows))
	copy(rows, st.Ledger.Rows)

	st.RuleStats = s.Classifier.ApplyRules(rows)
	st.PropagateStats = s.Classifier.Propagate(rows)
	log := logger.FromContext(ctx)
	log.Info().
		Int("matched", st.RuleStats.Matched).
		Int("excluded", st.RuleStats.Excluded).
		Int("propagated", st.PropagateStats.Propagated).
		Int("unmatched", st.PropagateStats.Unmatched).
		Msg("ledger reclassified")

	st.Rows = rows
	st.Changed = st.RuleStats.Matched+st.RuleStats.Excluded+st.PropagateStats.Propagated > 0
	return nil
}

// CommitStep swaps the new ledger in. It does nothing on a dry run or when
// no row changed.
type CommitStep struct {
	Store  store.Gateway
	DryRun bool
}

func (s *CommitStep) Name() string { return "commit" }

func (s *CommitStep) Execute(ctx context.Context, st *State) error {
	log := logger.FromContext(ctx)
	switch {
	case s.DryRun:
		log.Info().Int("rows", len(st.Rows)).Msg("dry run, ledger not written")
		return nil
	case !st.Changed:
		log.Info().Msg("no changes, ledger not written")
		return nil
	}
	if err := s.Store.Commit(ctx, st.Rows); err != nil {
		return err
	}
	st.Committed = true
	log.Info().Int("rows", len(st.Rows)).Msg("ledger committed")
	return nil
}

