package scoring

// DefaultTopN is the size of the top-pattern view used by notifications.
const DefaultTopN = 5

// Top returns a copy of the n highest ranked patterns. n <= 0 or n larger
// than the report returns every pattern.
func (r *Report) Top(n int) []PatternScore {
	if n <= 0 || n > len(r.PatternScores) {
		n = len(r.PatternScores)
	}
	out := make([]PatternScore, n)
	copy(out, r.PatternScores[:n])
	return out
}

// Select returns the patterns that table classifies as level, in rank order.
// The classification is computed here and never read from PatternScore.Level,
// so each view stays independent of the severity bands.
func (r *Report) Select(table BandTable, level Level) []PatternScore {
	out := []PatternScore{}
	for _, ps := range r.PatternScores {
		if table.Classify(ps.Percentage) == level {
			out = append(out, ps)
		}
	}
	return out
}

// Priority returns the patterns in the top band of table, e.g. >= 50% for
// PriorityBands.
func (r *Report) Priority(table BandTable) []PatternScore {
	if len(table.Bands) == 0 {
		return []PatternScore{}
	}
	return r.Select(table, table.Bands[0].Label)
}

// Group is the set of patterns that fall in one band.
type Group struct {
	Level    Level
	Patterns []PatternScore
}

// Groups partitions the report by table, one Group per band in table order.
func (r *Report) Groups(table BandTable) []Group {
	groups := make([]Group, len(table.Bands))
	for i, b := range table.Bands {
		groups[i] = Group{Level: b.Label, Patterns: r.Select(table, b.Label)}
	}
	return groups
}
