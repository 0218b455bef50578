package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/nipscore/internal/catalog"
	"github.com/dshills/nipscore/internal/scoring"
	"github.com/dshills/nipscore/internal/store"
)

type batchFlags struct {
	workers int
	all     bool
}

func newBatchCmd(a *app) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score every stored assessment that has no report yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("workers") {
				f.workers = a.cfg.Batch.Workers
			}
			return runBatch(cmd.Context(), a, f)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.workers, "workers", 4, "Assessments scored in parallel")
	flags.BoolVar(&f.all, "all", false, "Rescore assessments that already have a report")

	return cmd
}

func runBatch(ctx context.Context, a *app, f *batchFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.workers < 1 {
		return exitError(exitInput, "--workers must be >= 1, got %d", f.workers)
	}
	severity, err := a.cfg.SeverityBands()
	if err != nil {
		return exitError(exitInput, "invalid severity thresholds: %v", err)
	}

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := st.ListAssessments(ctx, !f.all)
	if err != nil {
		return fmt.Errorf("failed to list assessments: %w", err)
	}

	runID := uuid.NewString()
	log := a.log.WithField("run", runID)
	log.WithFields(logrus.Fields{"assessments": len(ids), "workers": f.workers}).Info("batch started")

	var flagged atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			n, err := scoreStored(gctx, st, cat, id, runID, severity, log)
			flagged.Add(int64(n))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch %s: %w", runID, err)
	}

	reports, empty, err := st.RunSummary(ctx, runID)
	if err != nil {
		return fmt.Errorf("batch %s: %w", runID, err)
	}
	log.WithFields(logrus.Fields{
		"reports":     reports,
		"empty":       empty,
		"diagnostics": flagged.Load(),
	}).Info("batch finished")
	fmt.Fprintf(a.stdout, "run %s: scored %d assessments (%d empty, %d diagnostics)\n",
		runID, reports, empty, flagged.Load())
	return nil
}

// scoreStored scores one stored assessment with skip-and-flag semantics and
// persists the report. It returns the number of diagnostics raised.
func scoreStored(ctx context.Context, st *store.Store, cat *catalog.Catalog, id, runID string, severity scoring.BandTable, log logrus.FieldLogger) (int, error) {
	a, err := st.LoadAssessment(ctx, id)
	if err != nil {
		return 0, err
	}
	r, err := scoring.Score(cat, a.Answers, scoring.Options{
		AssessmentID: id,
		CompletedAt:  a.CompletedAt,
		Severity:     severity,
	})
	if err != nil {
		return 0, fmt.Errorf("assessment %s: %w", id, err)
	}
	logDiagnostics(log, r)
	if err := st.SaveReport(ctx, runID, r); err != nil {
		return len(r.Diagnostics), err
	}
	log.WithFields(logrus.Fields{
		"assessment": id,
		"overall":    r.OverallScore,
		"patterns":   len(r.PatternScores),
	}).Debug("assessment scored")
	return len(r.Diagnostics), nil
}
