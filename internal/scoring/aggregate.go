package scoring

import (
	"fmt"

	"github.com/dshills/nipscore/internal/catalog"
)

// Aggregate groups normalized answers by pattern and computes raw, maximum and
// percentage scores. Only answered questions count toward MaxScore. Patterns
// without a definition are dropped and reported as diagnostics. Levels are
// left empty; see Classify.
func Aggregate(cat *catalog.Catalog, normalized []Normalized) ([]PatternScore, []Diagnostic) {
	type acc struct {
		raw, count int
	}
	groups := make(map[string]*acc)
	for _, n := range normalized {
		q, ok := cat.Question(n.QuestionID)
		if !ok {
			continue
		}
		g := groups[q.Pattern]
		if g == nil {
			g = &acc{}
			groups[q.Pattern] = g
		}
		g.raw += n.Score
		g.count++
	}

	var diags []Diagnostic
	scores := make([]PatternScore, 0, len(groups))
	for _, code := range cat.PatternCodes() {
		g, answered := groups[code]
		if !answered {
			continue
		}
		def, ok := cat.Pattern(code)
		if !ok {
			diags = append(diags, Diagnostic{
				Code:    DiagMissingDefinition,
				Pattern: code,
				Message: fmt.Sprintf("pattern %q has %d answered question(s) but no definition; excluded from report", code, g.count),
			})
			continue
		}
		maxScore := g.count * cat.MaxPoints
		scores = append(scores, PatternScore{
			Code:          code,
			Name:          def.Name,
			ShortName:     def.ShortName,
			Category:      def.Category,
			SeverityColor: def.SeverityColor,
			RawScore:      g.raw,
			MaxScore:      maxScore,
			QuestionCount: g.count,
			Percentage:    Percent(g.raw, maxScore),
		})
	}
	return scores, diags
}

// Percent returns round(raw / maxScore * 100) with halves rounded up, or 0
// when maxScore is not positive. Integer arithmetic keeps every caller's
// rounding identical.
func Percent(raw, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return (raw*200 + maxScore) / (2 * maxScore)
}

// Mean returns the mean of values rounded half up, or 0 for no values.
func Mean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	n := len(values)
	return (2*sum + n) / (2 * n)
}
