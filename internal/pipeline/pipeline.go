// Package pipeline runs one ingestion or reclassification end to end. Only
// the final commit step writes to the store.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/releve-dev/releve/internal/classifier"
	"github.com/releve-dev/releve/internal/id"
	"github.com/releve-dev/releve/internal/importer"
	"github.com/releve-dev/releve/internal/logger"
	"github.com/releve-dev/releve/internal/model"
	"github.com/releve-dev/releve/internal/reconcile"
	"github.com/releve-dev/releve/internal/store"
)

// Step is one stage of a run.
type Step interface {
	Name() string
	Execute(ctx context.Context, st *State) error
}

// State is shared by the steps of one run.
type State struct {
	RunID string
	File  string

	Statement *importer.Statement
	Batch     []model.Transaction
	Ledger    reconcile.Table
	Merge     *reconcile.Result
	Rows      []model.Transaction // ledger to commit

	RuleStats      classifier.Stats
	PropagateStats classifier.Stats
	Snapshot       string

	Skipped   bool // nothing to do, later steps are not run
	Changed   bool
	Committed bool
}

// Pipeline executes steps in order and stops at the first failure.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline from steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs every step, stopping early when a step marks the run skipped.
func (p *Pipeline) Execute(ctx context.Context, st *State) error {
	log := logger.FromContext(ctx)
	for i, step := range p.steps {
		log.Debug().Str("step", step.Name()).Msg("running step")
		if err := step.Execute(ctx, st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Name(), err)
		}
		if st.Skipped {
			log.Info().Str("step", step.Name()).Msg("nothing to do")
			return nil
		}
	}
	return nil
}

// Runner holds what the steps need.
type Runner struct {
	Parser      importer.Parser
	Classifier  *classifier.Classifier
	Store       store.Gateway
	SnapshotDir string // reclassify writes a CSV copy of the ledger here first
	DryRun      bool
	Now         func() time.Time
}

// Result summarises a run for the CLI and the run log.
type Result struct {
	RunID     string
	File      string
	Skipped   bool
	DryRun    bool
	Committed bool

	Parsed      int
	Accounts    int
	Diagnostics []string

	Cutoff              time.Time
	Accepted            int
	DroppedBeforeCutoff int
	Duplicates          int

	Rules      classifier.Stats
	Propagated int
	Unmatched  int

	Total    int
	Snapshot string
}

// IngestSteps returns the steps for importing one statement file.
func (r *Runner) IngestSteps() []Step {
	return []Step{
		&ReadStatementStep{Parser: r.Parser},
		&ClassifyBatchStep{Classifier: r.Classifier},
		&LoadLedgerStep{Store: r.Store},
		&MergeStep{},
		&PropagateStep{Classifier: r.Classifier},
		&CommitStep{Store: r.Store, DryRun: r.DryRun},
	}
}

// ReclassifySteps returns the steps for re-running classification over the
// unsettled rows of the stored ledger.
func (r *Runner) ReclassifySteps() []Step {
	return []Step{
		&LoadLedgerStep{Store: r.Store, SkipEmpty: true},
		&SnapshotStep{Dir: r.SnapshotDir, Now: r.now},
		&ClassifyLedgerStep{Classifier: r.Classifier},
		&CommitStep{Store: r.Store, DryRun: r.DryRun},
	}
}

// Ingest parses path, merges it into the ledger and commits.
func (r *Runner) Ingest(ctx context.Context, path string) (*Result, error) {
	st := &State{RunID: id.NewRunID(), File: path}
	ctx = r.withRunLogger(ctx, st)
	if err := New(r.IngestSteps()...).Execute(ctx, st); err != nil {
		return r.result(st), fmt.Errorf("ingesting %s: %w", filepath.Base(path), err)
	}
	return r.result(st), nil
}

// Reclassify re-runs the rules and propagation over the stored ledger.
func (r *Runner) Reclassify(ctx context.Context) (*Result, error) {
	st := &State{RunID: id.NewRunID()}
	ctx = r.withRunLogger(ctx, st)
	if err := New(r.ReclassifySteps()...).Execute(ctx, st); err != nil {
		return r.result(st), fmt.Errorf("reclassifying: %w", err)
	}
	return r.result(st), nil
}

func (r *Runner) withRunLogger(ctx context.Context, st *State) context.Context {
	lc := logger.FromContext(ctx).With().Str("run_id", st.RunID)
	if st.File != "" {
		lc = lc.Str("file", filepath.Base(st.File))
	}
	return logger.WithContext(ctx, lc.Logger())
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) result(st *State) *Result {
	res := &Result{
		RunID:      st.RunID,
		File:       st.File,
		Skipped:    st.Skipped,
		DryRun:     r.DryRun,
		Committed:  st.Committed,
		Rules:      st.RuleStats,
		Propagated: st.PropagateStats.Propagated,
		Unmatched:  st.PropagateStats.Unmatched,
		Total:      len(st.Rows),
		Snapshot:   st.Snapshot,
	}
	if st.Statement != nil {
		res.Parsed = len(st.Statement.Transactions)
		res.Accounts = st.Statement.Accounts()
		res.Diagnostics = st.Statement.Diagnostics
	}
	if st.Merge != nil {
		res.Cutoff = st.Merge.Cutoff
		res.Accepted = st.Merge.Accepted
		res.DroppedBeforeCutoff = st.Merge.DroppedBeforeCutoff
		res.Duplicates = st.Merge.Duplicates
	}
	return res
}
