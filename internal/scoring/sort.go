package scoring

import "sort"

// SortPatternScores orders scores by percentage descending, then by code
// ascending so equal percentages always appear in the same order.
func SortPatternScores(scores []PatternScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Percentage != scores[j].Percentage {
			return scores[i].Percentage > scores[j].Percentage
		}
		return scores[i].Code < scores[j].Code
	})
}
