// Package scoring turns an assessment answer set into a ranked pattern report.
//
// Every function in this package is pure: results depend only on the catalog,
// the answers and the options passed in, so reports are reproducible and the
// engine can be called concurrently for independent assessments.
package scoring

import "time"

// AnswerSet maps question ids to raw answer values. Unanswered questions are
// absent from the map.
type AnswerSet map[int]any

// Option is a structured answer-option value. Value takes precedence over Label.
type Option struct {
	Value *int   `json:"value,omitempty" yaml:"value,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Normalized is one answer mapped onto the catalog scale, after reverse scoring.
type Normalized struct {
	QuestionID int
	Score      int
	Kind       RawKind
	// Defaulted is set when an unrecognized label or out-of-range value was
	// replaced by the catalog's neutral default.
	Defaulted bool
}

// PatternScore is the aggregated result for one pattern.
type PatternScore struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	ShortName     string `json:"short_name,omitempty"`
	Category      string `json:"category,omitempty"`
	SeverityColor string `json:"severity_color,omitempty"`
	RawScore      int    `json:"raw_score"`
	MaxScore      int    `json:"max_score"`
	QuestionCount int    `json:"question_count"`
	Percentage    int    `json:"percentage"`
	Level         Level  `json:"level"`
}

// Report is the scored result of one assessment.
type Report struct {
	AssessmentID     string         `json:"assessment_id,omitempty"`
	CatalogName      string         `json:"catalog_name"`
	CatalogVersion   string         `json:"catalog_version"`
	MaxPoints        int            `json:"max_points"`
	PatternScores    []PatternScore `json:"pattern_scores"`
	OverallScore     int            `json:"overall_score"`
	TotalQuestions   int            `json:"total_questions"`
	DefaultedAnswers int            `json:"defaulted_answers"`
	CompletedAt      time.Time      `json:"completed_at"`
	Diagnostics      []Diagnostic   `json:"diagnostics,omitempty"`
}

// Diagnostic records an input problem that was tolerated while scoring.
type Diagnostic struct {
	Code       DiagnosticCode `json:"code"`
	QuestionID int            `json:"question_id,omitempty"`
	Pattern    string         `json:"pattern,omitempty"`
	Message    string         `json:"message"`
}

// Options controls a single Score call.
type Options struct {
	AssessmentID string
	CompletedAt  time.Time
	// Severity classifies each pattern. The zero value selects SeverityBands.
	Severity BandTable
	// AbortOnInvalid makes Score fail on the first structurally unrecognized
	// answer instead of skipping it with a diagnostic.
	AbortOnInvalid bool
}

func (o Options) severity() BandTable {
	if len(o.Severity.Bands) == 0 {
		return SeverityBands
	}
	return o.Severity
}
