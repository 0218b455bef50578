package catalog

import "fmt"

// ValidationError describes a single catalog consistency violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Check verifies that the catalog tables agree with each other: declared counts
// match the question list, ids are unique, every referenced pattern has exactly
// one definition, and label scores fit the answer scale.
func Check(c *Catalog) []ValidationError {
	var errs []ValidationError

	if c.MaxPoints <= 0 {
		errs = append(errs, ValidationError{"max_points", "must be > 0"})
	}
	if c.LabelDefault < 0 || c.LabelDefault > c.MaxPoints {
		errs = append(errs, ValidationError{"label_default", fmt.Sprintf("%d outside [0,%d]", c.LabelDefault, c.MaxPoints)})
	}
	if c.TotalQuestions != len(c.Questions) {
		errs = append(errs, ValidationError{"total_questions", fmt.Sprintf("declared %d, catalog has %d", c.TotalQuestions, len(c.Questions))})
	}

	definitions := make(map[string]int)
	for i, p := range c.Patterns {
		prefix := fmt.Sprintf("patterns[%d]", i)
		if p.Code == "" {
			errs = append(errs, ValidationError{prefix + ".code", "required"})
			continue
		}
		definitions[p.Code]++
		if definitions[p.Code] == 2 {
			errs = append(errs, ValidationError{prefix + ".code", fmt.Sprintf("duplicate definition: %q", p.Code)})
		}
	}

	ids := make(map[int]bool)
	perPattern := make(map[string]int)
	for i, q := range c.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if q.ID <= 0 {
			errs = append(errs, ValidationError{prefix + ".id", "must be > 0"})
		} else if ids[q.ID] {
			errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate ID: %d", q.ID)})
		} else {
			ids[q.ID] = true
		}
		perPattern[q.Pattern]++
		if definitions[q.Pattern] == 0 {
			errs = append(errs, ValidationError{prefix + ".pattern", fmt.Sprintf("no definition for %q", q.Pattern)})
		}
	}

	sum := 0
	for code := range definitions {
		sum += perPattern[code]
	}
	for i, p := range c.Patterns {
		if p.QuestionCount != 0 && p.QuestionCount != perPattern[p.Code] {
			errs = append(errs, ValidationError{fmt.Sprintf("patterns[%d].question_count", i),
				fmt.Sprintf("declared %d, catalog has %d", p.QuestionCount, perPattern[p.Code])})
		}
	}
	if orphans := len(c.Questions) - sum; orphans > 0 {
		errs = append(errs, ValidationError{"questions", fmt.Sprintf("%d question(s) belong to undefined patterns", orphans)})
	}

	labels := make(map[string]bool)
	for i, l := range c.Labels {
		prefix := fmt.Sprintf("labels[%d]", i)
		key := labelKey(l.Label)
		if labels[key] {
			errs = append(errs, ValidationError{prefix + ".label", fmt.Sprintf("duplicate label: %q", l.Label)})
		}
		labels[key] = true
		if l.Score < 0 || l.Score > c.MaxPoints {
			errs = append(errs, ValidationError{prefix + ".score", fmt.Sprintf("%d outside [0,%d]", l.Score, c.MaxPoints)})
		}
	}

	return errs
}
