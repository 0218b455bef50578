package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dshills/nipscore/internal/schema"
	"github.com/dshills/nipscore/internal/scoring"
)

type validateFlags struct {
	stored     bool
	skipLevels bool
}

func newValidateCmd(a *app) *cobra.Command {
	f := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate <report-file | assessment-id>",
		Short: "Re-check the invariants of a JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), a, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.stored, "stored", false, "Validate the stored report of an assessment id")
	flags.BoolVar(&f.skipLevels, "skip-levels", false, "Do not check levels against the configured severity bands")

	return cmd
}

func runValidate(ctx context.Context, a *app, arg string, f *validateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var severity scoring.BandTable
	if !f.skipLevels {
		var err error
		severity, err = a.cfg.SeverityBands()
		if err != nil {
			return exitError(exitInput, "invalid severity thresholds: %v", err)
		}
	}

	var r *scoring.Report
	if f.stored {
		st, err := a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		r, err = st.LoadReport(ctx, arg)
		if err != nil {
			return exitError(exitInput, "failed to load report: %v", err)
		}
	} else {
		data, err := os.ReadFile(arg)
		if err != nil {
			return exitError(exitInput, "failed to read report: %v", err)
		}
		r = &scoring.Report{}
		if err := json.Unmarshal(data, r); err != nil {
			return exitError(exitInput, "report is not valid JSON: %v", err)
		}
	}

	errs := schema.Validate(r, severity)
	if len(errs) > 0 {
		fmt.Fprintln(a.stderr, "Report validation errors:")
		for _, e := range errs {
			fmt.Fprintf(a.stderr, "  %s\n", e)
		}
		return exitError(exitCheck, "report failed validation with %d errors", len(errs))
	}
	fmt.Fprintln(a.stdout, "report ok")
	return nil
}
