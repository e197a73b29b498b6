package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/releve-dev/releve/internal/classifier"
	"github.com/releve-dev/releve/internal/config"
	"github.com/releve-dev/releve/internal/importer"
	"github.com/releve-dev/releve/internal/logger"
	"github.com/releve-dev/releve/internal/pipeline"
	"github.com/releve-dev/releve/internal/runlog"
	"github.com/releve-dev/releve/internal/store"
)

const exportsDir = "exports"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// project is an initialized releve directory.
type project struct {
	root string
	cfg  *config.Config
}

func openProject(repoDir string) (*project, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading project at %s (run releve init first?): %w", root, err)
	}
	return &project{root: root, cfg: cfg}, nil
}

// context attaches the configured logger.
func (p *project) context(ctx context.Context) context.Context {
	return logger.WithContext(ctx, logger.New(p.cfg.Log.Level))
}

func (p *project) openStore() (*store.SQLite, error) {
	l := p.cfg.Ledger
	return store.Open(p.cfg.LedgerPath(p.root), store.Options{
		Tables: store.Tables{
			Canonical: l.Table,
			Backup:    l.BackupTable,
			Temp:      l.TempTable,
		},
		DefaultCategory: p.cfg.Classifier.DefaultCategory,
	})
}

func (p *project) classifier() (*classifier.Classifier, error) {
	c, err := classifier.FromConfig(p.cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("loading classifier rules: %w", err)
	}
	return c, nil
}

func (p *project) runner(s store.Gateway, dryRun bool) (*pipeline.Runner, error) {
	parser := importer.DefaultRegistry().Get(p.cfg.Import.Format)
	if parser == nil {
		return nil, fmt.Errorf("unknown import format %q", p.cfg.Import.Format)
	}
	c, err := p.classifier()
	if err != nil {
		return nil, err
	}
	return &pipeline.Runner{
		Parser:      parser,
		Classifier:  c,
		Store:       s,
		SnapshotDir: filepath.Join(p.root, exportsDir),
		DryRun:      dryRun,
	}, nil
}

// record appends to the run log. A failure to log does not fail the command.
func (p *project) record(ctx context.Context, e runlog.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := runlog.Append(p.root, e); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("writing run log")
	}
}
