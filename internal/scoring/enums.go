package scoring

// Level is a band label produced by a BandTable.
type Level string

const (
	LevelStrong   Level = "Strongly Present"
	LevelModerate Level = "Moderately Present"
	LevelMild     Level = "Mild Pattern"
	LevelMinimal  Level = "Minimal Pattern"

	LevelPriority  Level = "Priority"
	LevelSecondary Level = "Secondary"

	LevelHigh   Level = "High"
	LevelMedium Level = "Moderate"
	LevelLow    Level = "Low"
)

// Valid reports whether l is one of the severity levels.
func (l Level) Valid() bool {
	switch l {
	case LevelStrong, LevelModerate, LevelMild, LevelMinimal:
		return true
	}
	return false
}

// DiagnosticCode classifies a Diagnostic.
type DiagnosticCode string

const (
	DiagInvalidAnswerKind DiagnosticCode = "INVALID_ANSWER_KIND"
	DiagDefaultedAnswer   DiagnosticCode = "DEFAULTED_ANSWER"
	DiagMissingDefinition DiagnosticCode = "MISSING_PATTERN_DEFINITION"
	DiagUnknownQuestion   DiagnosticCode = "UNKNOWN_QUESTION"
	DiagEmptyReport       DiagnosticCode = "EMPTY_REPORT"
)

func (d DiagnosticCode) Valid() bool {
	switch d {
	case DiagInvalidAnswerKind, DiagDefaultedAnswer, DiagMissingDefinition,
		DiagUnknownQuestion, DiagEmptyReport:
		return true
	}
	return false
}

// RawKind describes the shape a raw answer arrived in.
type RawKind string

const (
	KindNumber  RawKind = "number"
	KindOption  RawKind = "option"
	KindLabel   RawKind = "label"
	KindUnknown RawKind = "unknown"
)
