package scoring

import (
	"errors"
	"fmt"
)

// Band is one threshold in a BandTable: percentages >= Min map to Label.
type Band struct {
	Min   int   `json:"min" mapstructure:"min" yaml:"min"`
	Label Level `json:"label" mapstructure:"label" yaml:"label"`
}

// BandTable maps percentages to labels. Bands are ordered most severe first,
// with strictly descending Min and a final band at 0.
type BandTable struct {
	Name  string
	Bands []Band
}

var (
	// SeverityBands is the four-band classifier stored on every PatternScore.
	SeverityBands = BandTable{
		Name: "severity",
		Bands: []Band{
			{70, LevelStrong},
			{50, LevelModerate},
			{30, LevelMild},
			{0, LevelMinimal},
		},
	}

	// PriorityBands splits patterns into the priority view used by client reports.
	PriorityBands = NewPriorityBands(50)

	// EmphasisBands is the 60/40 high/low split used by coach summaries.
	EmphasisBands = BandTable{
		Name: "emphasis",
		Bands: []Band{
			{60, LevelHigh},
			{40, LevelMedium},
			{0, LevelLow},
		},
	}
)

// NewPriorityBands builds a two-band priority table at the given threshold.
func NewPriorityBands(threshold int) BandTable {
	return BandTable{
		Name: "priority",
		Bands: []Band{
			{threshold, LevelPriority},
			{0, LevelSecondary},
		},
	}
}

// Classify returns the label of the first band whose Min is <= pct.
func (t BandTable) Classify(pct int) Level {
	for _, b := range t.Bands {
		if pct >= b.Min {
			return b.Label
		}
	}
	if len(t.Bands) == 0 {
		return ""
	}
	return t.Bands[len(t.Bands)-1].Label
}

// Validate checks that the bands are non-overlapping and cover 0..100.
func (t BandTable) Validate() error {
	if len(t.Bands) == 0 {
		return errors.New("band table has no bands")
	}
	for i, b := range t.Bands {
		if b.Label == "" {
			return fmt.Errorf("band table %q: bands[%d] has no label", t.Name, i)
		}
		if b.Min < 0 || b.Min > 100 {
			return fmt.Errorf("band table %q: bands[%d].min %d outside [0,100]", t.Name, i, b.Min)
		}
		if i > 0 && b.Min >= t.Bands[i-1].Min {
			return fmt.Errorf("band table %q: bands[%d].min %d must be below %d", t.Name, i, b.Min, t.Bands[i-1].Min)
		}
	}
	if last := t.Bands[len(t.Bands)-1]; last.Min != 0 {
		return fmt.Errorf("band table %q: lowest band must start at 0, got %d", t.Name, last.Min)
	}
	return nil
}

// Classify sets Level on each score from the given table.
func Classify(scores []PatternScore, table BandTable) {
	for i := range scores {
		scores[i].Level = table.Classify(scores[i].Percentage)
	}
}
