// Package catalog holds the versioned question catalog, the pattern definition
// table, and the label table used to score NIP assessments.
package catalog

import (
	"strings"
	"sync"
)

// CurrentSchemaVersion is the catalog file schema understood by this build.
const CurrentSchemaVersion = 1

// Catalog is the single source of truth for questions and pattern definitions.
// A loaded Catalog is read-only and safe for concurrent use. Pass it by pointer.
type Catalog struct {
	SchemaVersion  int        `yaml:"schema_version" toml:"schema_version" validate:"required,gt=0"`
	Name           string     `yaml:"name" toml:"name" validate:"required"`
	Version        string     `yaml:"version" toml:"version" validate:"required"`
	Description    string     `yaml:"description" toml:"description"`
	MaxPoints      int        `yaml:"max_points" toml:"max_points" validate:"gt=0"`
	LabelDefault   int        `yaml:"label_default" toml:"label_default" validate:"min=0,ltefield=MaxPoints"`
	TotalQuestions int        `yaml:"total_questions" toml:"total_questions" validate:"min=0"`
	Labels         []Label    `yaml:"labels" toml:"labels" validate:"dive"`
	Patterns       []Pattern  `yaml:"patterns" toml:"patterns" validate:"required,dive"`
	Questions      []Question `yaml:"questions" toml:"questions" validate:"required,dive"`

	once      sync.Once
	questions map[int]Question
	patterns  map[string]Pattern
	labels    map[string]int
}

// Question is a single catalog item and the pattern it measures.
type Question struct {
	ID      int    `yaml:"id" toml:"id" validate:"gt=0"`
	Pattern string `yaml:"pattern" toml:"pattern" validate:"required"`
	Reverse bool   `yaml:"reverse" toml:"reverse"`
}

// Pattern is the display definition of a pattern code.
type Pattern struct {
	Code          string `yaml:"code" toml:"code" validate:"required"`
	Name          string `yaml:"name" toml:"name" validate:"required"`
	ShortName     string `yaml:"short_name" toml:"short_name"`
	Category      string `yaml:"category" toml:"category"`
	SeverityColor string `yaml:"severity_color" toml:"severity_color"`
	QuestionCount int    `yaml:"question_count" toml:"question_count" validate:"min=0"`
}

// Label maps an answer label onto a point value.
type Label struct {
	Label string `yaml:"label" toml:"label" validate:"required"`
	Score int    `yaml:"score" toml:"score" validate:"min=0"`
}

// New builds a catalog from explicit tables. It is mainly useful in tests and
// for callers that assemble a catalog in code.
func New(name string, maxPoints int, patterns []Pattern, questions []Question) *Catalog {
	return &Catalog{
		SchemaVersion:  CurrentSchemaVersion,
		Name:           name,
		Version:        "0",
		MaxPoints:      maxPoints,
		LabelDefault:   maxPoints / 2,
		TotalQuestions: len(questions),
		Patterns:       patterns,
		Questions:      questions,
	}
}

func (c *Catalog) index() {
	c.once.Do(func() {
		c.questions = make(map[int]Question, len(c.Questions))
		for _, q := range c.Questions {
			if _, dup := c.questions[q.ID]; !dup {
				c.questions[q.ID] = q
			}
		}
		c.patterns = make(map[string]Pattern, len(c.Patterns))
		for _, p := range c.Patterns {
			if _, dup := c.patterns[p.Code]; !dup {
				c.patterns[p.Code] = p
			}
		}
		c.labels = make(map[string]int, len(c.Labels))
		for _, l := range c.Labels {
			key := labelKey(l.Label)
			if _, dup := c.labels[key]; !dup {
				c.labels[key] = l.Score
			}
		}
	})
}

// Question returns the question with the given id.
func (c *Catalog) Question(id int) (Question, bool) {
	c.index()
	q, ok := c.questions[id]
	return q, ok
}

// Pattern returns the definition for a pattern code. When a code is defined
// more than once the first definition wins; Check reports the duplicate.
func (c *Catalog) Pattern(code string) (Pattern, bool) {
	c.index()
	p, ok := c.patterns[code]
	return p, ok
}

// LabelScore resolves an answer label. Matching ignores case and surrounding space.
func (c *Catalog) LabelScore(label string) (int, bool) {
	c.index()
	s, ok := c.labels[labelKey(label)]
	return s, ok
}

// PatternCodes returns the distinct pattern codes referenced by questions, in
// order of first appearance.
func (c *Catalog) PatternCodes() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, q := range c.Questions {
		if !seen[q.Pattern] {
			seen[q.Pattern] = true
			codes = append(codes, q.Pattern)
		}
	}
	return codes
}

func labelKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
