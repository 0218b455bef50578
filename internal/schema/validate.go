// Package schema validates stored or exported score reports.
package schema

import (
	"fmt"

	"github.com/dshills/nipscore/internal/scoring"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Report for structural validity and internal consistency.
// severity is the band table the report was classified with; pass an empty
// table to skip level checks.
func Validate(r *scoring.Report, severity scoring.BandTable) []ValidationError {
	var errs []ValidationError

	if r.CatalogName == "" {
		errs = append(errs, ValidationError{"catalog_name", "required"})
	}
	if r.MaxPoints <= 0 {
		errs = append(errs, ValidationError{"max_points", "must be > 0"})
	}
	if r.PatternScores == nil {
		errs = append(errs, ValidationError{"pattern_scores", "must be present, use [] for an empty report"})
	}

	// Verify overall score consistency
	pcts := make([]int, len(r.PatternScores))
	for i, ps := range r.PatternScores {
		pcts[i] = ps.Percentage
	}
	if expected := scoring.Mean(pcts); r.OverallScore != expected {
		errs = append(errs, ValidationError{"overall_score", fmt.Sprintf("score %d does not match computed %d", r.OverallScore, expected)})
	}

	answered := 0
	codes := make(map[string]bool)
	for i, ps := range r.PatternScores {
		prefix := fmt.Sprintf("pattern_scores[%d]", i)
		if ps.Code == "" {
			errs = append(errs, ValidationError{prefix + ".code", "required"})
		} else if codes[ps.Code] {
			errs = append(errs, ValidationError{prefix + ".code", fmt.Sprintf("duplicate code: %q", ps.Code)})
		} else {
			codes[ps.Code] = true
		}
		if ps.Name == "" {
			errs = append(errs, ValidationError{prefix + ".name", "required"})
		}
		if ps.QuestionCount < 1 {
			errs = append(errs, ValidationError{prefix + ".question_count", "must be >= 1"})
		}
		if r.MaxPoints > 0 && ps.MaxScore != ps.QuestionCount*r.MaxPoints {
			errs = append(errs, ValidationError{prefix + ".max_score", fmt.Sprintf("expected %d, got %d", ps.QuestionCount*r.MaxPoints, ps.MaxScore)})
		}
		if ps.RawScore < 0 || ps.RawScore > ps.MaxScore {
			errs = append(errs, ValidationError{prefix + ".raw_score", fmt.Sprintf("%d outside [0,%d]", ps.RawScore, ps.MaxScore)})
		}
		if ps.Percentage < 0 || ps.Percentage > 100 {
			errs = append(errs, ValidationError{prefix + ".percentage", fmt.Sprintf("%d outside [0,100]", ps.Percentage)})
		} else if expected := scoring.Percent(ps.RawScore, ps.MaxScore); ps.Percentage != expected {
			errs = append(errs, ValidationError{prefix + ".percentage", fmt.Sprintf("expected %d, got %d", expected, ps.Percentage)})
		}
		if len(severity.Bands) > 0 {
			if expected := severity.Classify(ps.Percentage); ps.Level != expected {
				errs = append(errs, ValidationError{prefix + ".level", fmt.Sprintf("expected %q, got %q", expected, ps.Level)})
			}
		}
		if i > 0 {
			prev := r.PatternScores[i-1]
			if prev.Percentage < ps.Percentage || (prev.Percentage == ps.Percentage && prev.Code > ps.Code) {
				errs = append(errs, ValidationError{prefix, fmt.Sprintf("out of order after %s", prev.Code)})
			}
		}
		answered += ps.QuestionCount
	}

	if r.TotalQuestions < answered {
		errs = append(errs, ValidationError{"total_questions", fmt.Sprintf("%d is less than the %d scored questions", r.TotalQuestions, answered)})
	}
	if r.DefaultedAnswers < 0 || r.DefaultedAnswers > r.TotalQuestions {
		errs = append(errs, ValidationError{"defaulted_answers", fmt.Sprintf("%d outside [0,%d]", r.DefaultedAnswers, r.TotalQuestions)})
	}

	for i, d := range r.Diagnostics {
		if !d.Code.Valid() {
			errs = append(errs, ValidationError{fmt.Sprintf("diagnostics[%d].code", i), fmt.Sprintf("invalid: %q", d.Code)})
		}
	}

	return errs
}
