package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/nipscore/internal/answers"
	"github.com/dshills/nipscore/internal/render"
	"github.com/dshills/nipscore/internal/scoring"
	"github.com/dshills/nipscore/internal/store"
)

type scoreFlags struct {
	format         string
	out            string
	top            int
	failOnLevel    string
	abortOnInvalid bool
	stored         bool
	save           bool
	assessmentID   string
	color          bool
}

func newScoreCmd(a *app) *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score <answers-file | assessment-id>",
		Short: "Score one assessment and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				f.format = a.cfg.Report.Format
			}
			if !cmd.Flags().Changed("top") {
				f.top = a.cfg.Report.TopN
			}
			return runScore(cmd.Context(), a, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "json", "Output format: json, md, coach or table")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.IntVar(&f.top, "top", scoring.DefaultTopN, "Patterns listed in the coach summary")
	flags.StringVar(&f.failOnLevel, "fail-on-level", "", "Exit 2 if any pattern reaches this severity level")
	flags.BoolVar(&f.abortOnInvalid, "abort-on-invalid", false, "Fail on the first unrecognizable answer instead of skipping it")
	flags.BoolVar(&f.stored, "stored", false, "Treat the argument as an assessment id in the database")
	flags.BoolVar(&f.save, "save", false, "Persist the report to the database")
	flags.StringVar(&f.assessmentID, "assessment-id", "", "Assessment id to record on the report")
	flags.BoolVar(&f.color, "color", false, "Colour pattern names in table output, even when writing to a file or pipe")

	return cmd
}

func runScore(ctx context.Context, a *app, arg string, f *scoreFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !validFormat(f.format) {
		return exitError(exitInput, "unknown format: %s", f.format)
	}

	severity, err := a.cfg.SeverityBands()
	if err != nil {
		return exitError(exitInput, "invalid severity thresholds: %v", err)
	}
	priority, err := a.cfg.PriorityBands()
	if err != nil {
		return exitError(exitInput, "invalid priority threshold: %v", err)
	}
	if f.failOnLevel != "" {
		if _, ok := bandIndex(severity, f.failOnLevel); !ok {
			return exitError(exitInput, "unknown --fail-on-level %q", f.failOnLevel)
		}
	}

	// 1. Load catalog
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	// 2. Load answers
	opts := scoring.Options{
		AssessmentID:   f.assessmentID,
		Severity:       severity,
		AbortOnInvalid: f.abortOnInvalid,
	}
	var set scoring.AnswerSet
	var st *store.Store
	if f.stored || f.save {
		st, err = a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
	}
	if f.stored {
		a.log.WithField("assessment", arg).Debug("loading stored answers")
		stored, err := st.LoadAssessment(ctx, arg)
		if err != nil {
			return exitError(exitInput, "failed to load answers: %v", err)
		}
		set = stored.Answers
		opts.CompletedAt = stored.CompletedAt
		if opts.AssessmentID == "" {
			opts.AssessmentID = arg
		}
	} else {
		a.log.WithField("file", arg).Debug("loading answers")
		af, err := answers.Load(arg)
		if err != nil {
			return exitError(exitInput, "failed to load answers: %v", err)
		}
		set = af.Answers
		if opts.AssessmentID == "" {
			opts.AssessmentID = af.AssessmentID
		}
		opts.CompletedAt = af.CompletedAt
		a.log.WithFields(logrus.Fields{"file": filepath.Base(arg), "hash": af.Hash}).Debug("answers loaded")
	}

	// 3. Score
	r, err := scoring.Score(cat, set, opts)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidAnswerKind) {
			return exitError(exitAnswer, "invalid answer: %v", err)
		}
		if errors.Is(err, scoring.ErrInvalidCatalog) {
			return exitError(exitInput, "unusable catalog: %v", err)
		}
		return exitError(exitGeneral, "scoring failed: %v", err)
	}
	logDiagnostics(a.log, r)
	a.log.WithFields(logrus.Fields{
		"assessment": r.AssessmentID,
		"patterns":   len(r.PatternScores),
		"overall":    r.OverallScore,
	}).Info("assessment scored")

	// 4. Persist
	if f.save {
		if r.AssessmentID == "" {
			return exitError(exitInput, "--save needs an assessment id")
		}
		if err := st.SaveReport(ctx, uuid.NewString(), r); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}

	// 5. Output
	output, err := formatReport(r, f.format, f.top, priority, f.color)
	if err != nil {
		return err
	}
	if err := a.writeOutput(f.out, output); err != nil {
		return err
	}

	// 6. Exit code based on --fail-on-level
	if f.failOnLevel != "" {
		if ps, ok := firstAtOrAbove(r, severity, f.failOnLevel); ok {
			return exitError(exitThreshold, "pattern %s at %d%% (%s) meets fail level %s",
				ps.Code, ps.Percentage, ps.Level, f.failOnLevel)
		}
	}
	return nil
}

func validFormat(format string) bool {
	switch format {
	case "json", "md", "coach", "table":
		return true
	}
	return false
}

func formatReport(r *scoring.Report, format string, top int, priority scoring.BandTable, color bool) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal output: %w", err)
		}
		return string(data) + "\n", nil
	case "md":
		return render.Markdown(r, priority), nil
	case "coach":
		return render.CoachSummary(r, top), nil
	case "table":
		return render.Table(r, render.TableOptions{Color: color}), nil
	}
	return "", exitError(exitInput, "unknown format: %s", format)
}

func (a *app) writeOutput(path, output string) error {
	if path == "" {
		_, err := fmt.Fprint(a.stdout, output)
		return err
	}
	a.log.WithField("out", path).Debug("writing output")
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logDiagnostics(log logrus.FieldLogger, r *scoring.Report) {
	for _, d := range r.Diagnostics {
		fields := logrus.Fields{"code": d.Code, "assessment": r.AssessmentID}
		if d.QuestionID != 0 {
			fields["question"] = d.QuestionID
		}
		if d.Pattern != "" {
			fields["pattern"] = d.Pattern
		}
		log.WithFields(fields).Warn(d.Message)
	}
}

// bandIndex finds label in table, ignoring case. Lower indexes are more severe.
func bandIndex(table scoring.BandTable, label string) (int, bool) {
	for i, b := range table.Bands {
		if strings.EqualFold(string(b.Label), strings.TrimSpace(label)) {
			return i, true
		}
	}
	return 0, false
}

// firstAtOrAbove returns the highest ranked pattern whose level is level or
// more severe.
func firstAtOrAbove(r *scoring.Report, table scoring.BandTable, level string) (scoring.PatternScore, bool) {
	limit, ok := bandIndex(table, level)
	if !ok {
		return scoring.PatternScore{}, false
	}
	for _, ps := range r.PatternScores {
		if i, ok := bandIndex(table, string(ps.Level)); ok && i <= limit {
			return ps, true
		}
	}
	return scoring.PatternScore{}, false
}
