// Package render produces human-readable output from a scored report.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/nipscore/internal/scoring"
)

// Markdown renders the client view of a report: patterns grouped by their
// severity level, followed by the priority list. A zero priority table
// selects scoring.PriorityBands.
func Markdown(r *scoring.Report, priority scoring.BandTable) string {
	if len(priority.Bands) == 0 {
		priority = scoring.PriorityBands
	}
	var b strings.Builder

	// Summary
	b.WriteString("# Neural Imprint Pattern Report\n\n")
	if r.AssessmentID != "" {
		fmt.Fprintf(&b, "**Assessment:** %s\n", r.AssessmentID)
	}
	writeCompleted(&b, r)
	fmt.Fprintf(&b, "**Catalog:** %s %s\n", r.CatalogName, r.CatalogVersion)
	fmt.Fprintf(&b, "**Overall Score:** %d%%\n", r.OverallScore)
	fmt.Fprintf(&b, "**Questions:** %d submitted, %d scored, %d defaulted\n\n",
		r.TotalQuestions, scoredQuestions(r), r.DefaultedAnswers)

	if r.Empty() {
		b.WriteString("No patterns could be scored from these answers.\n\n")
		renderDiagnostics(&b, r.Diagnostics)
		return b.String()
	}

	// Patterns by severity level, most severe first.
	for _, g := range groupByLevel(r.PatternScores) {
		fmt.Fprintf(&b, "## %s\n\n", g.Level)
		for _, ps := range g.Patterns {
			renderPattern(&b, ps)
		}
	}

	// Priority list
	top := r.Priority(priority)
	fmt.Fprintf(&b, "## %s Patterns\n\n", priority.Bands[0].Label)
	if len(top) == 0 {
		fmt.Fprintf(&b, "No pattern reached %d%%.\n\n", priority.Bands[0].Min)
	} else {
		for i, ps := range top {
			fmt.Fprintf(&b, "%d. %s (%d%%)\n", i+1, displayName(ps), ps.Percentage)
		}
		b.WriteString("\n")
	}

	renderDiagnostics(&b, r.Diagnostics)
	return b.String()
}

// CoachSummary renders the practitioner view: the top n patterns followed by
// the emphasis split of every pattern.
func CoachSummary(r *scoring.Report, topN int) string {
	var b strings.Builder

	b.WriteString("# Coach Summary\n\n")
	if r.AssessmentID != "" {
		fmt.Fprintf(&b, "**Assessment:** %s\n", r.AssessmentID)
	}
	writeCompleted(&b, r)
	fmt.Fprintf(&b, "**Overall Score:** %d%%\n\n", r.OverallScore)

	if r.Empty() {
		b.WriteString("No scored patterns.\n")
		return b.String()
	}

	top := r.Top(topN)
	fmt.Fprintf(&b, "## Top %d\n\n", len(top))
	for i, ps := range top {
		fmt.Fprintf(&b, "%d. %s %s: %d%% (%d/%d, %s)\n",
			i+1, ps.Code, displayName(ps), ps.Percentage, ps.RawScore, ps.MaxScore, ps.Level)
	}
	b.WriteString("\n")

	for _, g := range r.Groups(scoring.EmphasisBands) {
		fmt.Fprintf(&b, "## %s Emphasis\n\n", g.Level)
		if len(g.Patterns) == 0 {
			b.WriteString("None.\n\n")
			continue
		}
		for _, ps := range g.Patterns {
			fmt.Fprintf(&b, "- %s (%d%%)\n", displayName(ps), ps.Percentage)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TableOptions controls Table output.
type TableOptions struct {
	// Color renders each pattern name in its catalog severity colour as ANSI
	// true-colour sequences, whether or not the output is a terminal.
	Color bool
}

// Table renders the pattern scores as aligned plain-text columns.
func Table(r *scoring.Report, opts TableOptions) string {
	headers := []string{"RANK", "CODE", "PATTERN", "SCORE", "PCT", "LEVEL"}
	rows := make([][]string, 0, len(r.PatternScores))
	for i, ps := range r.PatternScores {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ps.Code,
			ps.Name,
			fmt.Sprintf("%d/%d", ps.RawScore, ps.MaxScore),
			fmt.Sprintf("%d%%", ps.Percentage),
			string(ps.Level),
		})
	}

	var paint func(row, col int, cell string) string
	if opts.Color {
		renderer := colorRenderer()
		paint = func(row, col int, cell string) string {
			if col != 2 {
				return cell
			}
			return colorize(renderer, cell, r.PatternScores[row].SeverityColor)
		}
	}

	var b strings.Builder
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true}, paint) {
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nOverall: %d%%  Submitted: %d  Scored: %d  Defaulted: %d\n",
		r.OverallScore, r.TotalQuestions, scoredQuestions(r), r.DefaultedAnswers)
	return b.String()
}

type levelGroup struct {
	Level    scoring.Level
	Patterns []scoring.PatternScore
}

// groupByLevel groups ranked scores by their stored level, in order of first
// appearance. Ranked input keeps the most severe level first.
func groupByLevel(scores []scoring.PatternScore) []levelGroup {
	var groups []levelGroup
	idx := make(map[scoring.Level]int)
	for _, ps := range scores {
		i, ok := idx[ps.Level]
		if !ok {
			i = len(groups)
			idx[ps.Level] = i
			groups = append(groups, levelGroup{Level: ps.Level})
		}
		groups[i].Patterns = append(groups[i].Patterns, ps)
	}
	return groups
}

func renderPattern(b *strings.Builder, ps scoring.PatternScore) {
	fmt.Fprintf(b, "### %s [%s]\n\n", ps.Name, ps.Code)
	fmt.Fprintf(b, "**Score:** %d / %d (%d%%)\n", ps.RawScore, ps.MaxScore, ps.Percentage)
	fmt.Fprintf(b, "**Questions answered:** %d\n", ps.QuestionCount)
	if ps.Category != "" {
		fmt.Fprintf(b, "**Category:** %s\n", ps.Category)
	}
	b.WriteString("\n")
}

func renderDiagnostics(b *strings.Builder, diags []scoring.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	b.WriteString("## Notes\n\n")
	for _, d := range diags {
		fmt.Fprintf(b, "- `%s` %s\n", d.Code, d.Message)
	}
	b.WriteString("\n")
}

// completedLayout is the timestamp format of report headers.
const completedLayout = "2006-01-02 15:04 UTC"

func writeCompleted(b *strings.Builder, r *scoring.Report) {
	if r.CompletedAt.IsZero() {
		return
	}
	fmt.Fprintf(b, "**Completed:** %s\n", r.CompletedAt.UTC().Format(completedLayout))
}

// scoredQuestions counts the answers that contributed to a pattern score.
// Unknown, invalid and undefined-pattern answers are submitted but not scored.
func scoredQuestions(r *scoring.Report) int {
	n := 0
	for _, ps := range r.PatternScores {
		n += ps.QuestionCount
	}
	return n
}

func displayName(ps scoring.PatternScore) string {
	if ps.ShortName != "" {
		return ps.ShortName
	}
	return ps.Name
}
