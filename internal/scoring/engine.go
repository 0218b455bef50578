package scoring

import (
	"fmt"
	"sort"

	"github.com/dshills/nipscore/internal/catalog"
)

// Score runs the whole pipeline: normalize every answer, aggregate per
// pattern, classify with opts.Severity and assemble the ranked report.
//
// Input problems never fail the call unless opts.AbortOnInvalid is set and an
// answer has an unrecognizable shape. Everything else degrades to a smaller
// report with Diagnostics describing what was skipped or defaulted.
func Score(cat *catalog.Catalog, answers AnswerSet, opts Options) (*Report, error) {
	if cat.MaxPoints <= 0 {
		return nil, fmt.Errorf("scoring.Score: %w: max_points %d must be > 0", ErrInvalidCatalog, cat.MaxPoints)
	}
	if cat.LabelDefault < 0 || cat.LabelDefault > cat.MaxPoints {
		return nil, fmt.Errorf("scoring.Score: %w: label_default %d outside [0,%d]", ErrInvalidCatalog, cat.LabelDefault, cat.MaxPoints)
	}
	severity := opts.severity()
	if err := severity.Validate(); err != nil {
		return nil, fmt.Errorf("scoring.Score: %w", err)
	}

	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var diags []Diagnostic
	normalized := make([]Normalized, 0, len(ids))
	defaulted := 0
	for _, id := range ids {
		q, ok := cat.Question(id)
		if !ok {
			diags = append(diags, Diagnostic{
				Code:       DiagUnknownQuestion,
				QuestionID: id,
				Message:    fmt.Sprintf("question %d is not in catalog %s", id, cat.Name),
			})
			continue
		}
		n, err := Normalize(cat, q, answers[id])
		if err != nil {
			if opts.AbortOnInvalid {
				return nil, fmt.Errorf("scoring.Score: %w", err)
			}
			diags = append(diags, Diagnostic{
				Code:       DiagInvalidAnswerKind,
				QuestionID: id,
				Pattern:    q.Pattern,
				Message:    err.Error(),
			})
			continue
		}
		if n.Defaulted {
			defaulted++
			diags = append(diags, Diagnostic{
				Code:       DiagDefaultedAnswer,
				QuestionID: id,
				Pattern:    q.Pattern,
				Message:    fmt.Sprintf("answer %v not recognized; neutral default %d applied", answers[id], cat.LabelDefault),
			})
		}
		normalized = append(normalized, n)
	}

	scores, aggDiags := Aggregate(cat, normalized)
	diags = append(diags, aggDiags...)
	Classify(scores, severity)

	r := Assemble(scores, answers, opts)
	r.CatalogName = cat.Name
	r.CatalogVersion = cat.Version
	r.MaxPoints = cat.MaxPoints
	r.DefaultedAnswers = defaulted
	if r.Empty() {
		diags = append(diags, Diagnostic{
			Code:    DiagEmptyReport,
			Message: "no pattern could be scored",
		})
	}
	r.Diagnostics = diags
	return r, nil
}
