package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidAnswerKind is returned when a raw answer is neither a number, an
// answer option, nor a label.
var ErrInvalidAnswerKind = errors.New("invalid answer kind")

// ErrInvalidCatalog is returned when a catalog's answer scale cannot keep
// normalized scores inside [0, max_points].
var ErrInvalidCatalog = errors.New("invalid catalog")

// AnswerError ties ErrInvalidAnswerKind to the offending question.
type AnswerError struct {
	QuestionID int
	Type       string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("question %d: %s: %s", e.QuestionID, ErrInvalidAnswerKind, e.Type)
}

func (e *AnswerError) Unwrap() error { return ErrInvalidAnswerKind }
