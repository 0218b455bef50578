package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/nipscore/internal/answers"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <assessment-id> <answers-file>",
		Short: "Store an answers file under an assessment id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), a, args[0], args[1])
		},
	}
}

func runImport(ctx context.Context, a *app, id, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	af, err := answers.Load(path)
	if err != nil {
		return exitError(exitInput, "failed to load answers: %v", err)
	}
	if len(af.Answers) == 0 {
		return exitError(exitInput, "%s contains no answers", path)
	}
	if af.AssessmentID != "" && af.AssessmentID != id {
		a.log.WithFields(logrus.Fields{"file_id": af.AssessmentID, "id": id}).
			Warn("answers file names a different assessment; using the command-line id")
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveAnswers(ctx, id, af.Answers, af.CompletedAt); err != nil {
		return exitError(exitGeneral, "failed to store answers: %v", err)
	}
	a.log.WithFields(logrus.Fields{
		"assessment": id,
		"answers":    len(af.Answers),
		"hash":       af.Hash,
		"completed":  af.CompletedAt,
	}).Info("answers imported")
	return nil
}
