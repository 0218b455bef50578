package scoring

// Assemble ranks the pattern scores and derives the report totals.
// TotalQuestions counts the distinct question ids present in answers, so a
// partially completed assessment reports its real coverage. An empty score
// list yields OverallScore 0 and an empty, non-nil PatternScores.
func Assemble(scores []PatternScore, answers AnswerSet, opts Options) *Report {
	ranked := make([]PatternScore, len(scores))
	copy(ranked, scores)
	SortPatternScores(ranked)

	pcts := make([]int, len(ranked))
	for i, s := range ranked {
		pcts[i] = s.Percentage
	}

	return &Report{
		AssessmentID:   opts.AssessmentID,
		PatternScores:  ranked,
		OverallScore:   Mean(pcts),
		TotalQuestions: len(answers),
		CompletedAt:    opts.CompletedAt,
	}
}

// Empty reports whether no pattern could be scored.
func (r *Report) Empty() bool {
	return len(r.PatternScores) == 0
}
