package scoring

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/nipscore/internal/catalog"
)

func labelCatalog() *catalog.Catalog {
	c := catalog.New("labels", 3,
		[]catalog.Pattern{{Code: "A", Name: "Alpha"}},
		[]catalog.Question{{ID: 1, Pattern: "A"}, {ID: 2, Pattern: "A", Reverse: true}},
	)
	c.Labels = []catalog.Label{
		{Label: "Never", Score: 0},
		{Label: "Rarely", Score: 1},
		{Label: "Often", Score: 2},
		{Label: "Always", Score: 3},
	}
	return c
}

func intPtr(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	c := labelCatalog()
	plain := catalog.Question{ID: 1, Pattern: "A"}

	tests := []struct {
		name      string
		raw       any
		want      int
		kind      RawKind
		defaulted bool
	}{
		{"int", 2, 2, KindNumber, false},
		{"int64", int64(3), 3, KindNumber, false},
		{"uint8", uint8(0), 0, KindNumber, false},
		{"integral float from JSON", float64(1), 1, KindNumber, false},
		{"json number", json.Number("3"), 3, KindNumber, false},
		{"numeric string", " 2 ", 2, KindLabel, false},
		{"label", "Often", 2, KindLabel, false},
		{"label case-insensitive", "  always ", 3, KindLabel, false},
		{"option value", Option{Value: intPtr(1)}, 1, KindOption, false},
		{"option pointer label", &Option{Label: "Never"}, 0, KindOption, false},
		{"object value", map[string]any{"value": float64(3), "label": "ignored"}, 3, KindOption, false},
		{"object string value", map[string]any{"value": "1"}, 1, KindOption, false},
		{"object label", map[string]any{"label": "Rarely"}, 1, KindOption, false},
		{"unknown label", "Sometimes", 1, KindLabel, true},
		{"out of range", 7, 1, KindNumber, true},
		{"negative", -1, 1, KindNumber, true},
		{"fractional", 1.5, 1, KindNumber, true},
		{"huge unsigned", uint64(1 << 63), 1, KindNumber, true},
		{"option out of range", Option{Value: intPtr(4)}, 1, KindOption, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Normalize(c, plain, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Score)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.defaulted, n.Defaulted)
			assert.Equal(t, 1, n.QuestionID)
		})
	}
}

func TestNormalizeInvalidKinds(t *testing.T) {
	c := labelCatalog()
	q := catalog.Question{ID: 1, Pattern: "A"}

	for name, raw := range map[string]any{
		"nil":            nil,
		"bool":           true,
		"slice":          []int{1},
		"empty object":   map[string]any{"score": 2},
		"nested object":  map[string]any{"value": map[string]any{"value": 1}},
		"nil value":      map[string]any{"value": nil},
		"empty option":   Option{},
		"nil option ptr": (*Option)(nil),
		"struct":         struct{ V int }{1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(c, q, raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAnswerKind))

			var ae *AnswerError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, 1, ae.QuestionID)
		})
	}
}

func TestNormalizeReverse(t *testing.T) {
	c := labelCatalog()
	reversed := catalog.Question{ID: 2, Pattern: "A", Reverse: true}

	for v := 0; v <= 3; v++ {
		n, err := Normalize(c, reversed, v)
		require.NoError(t, err)
		assert.Equal(t, 3-v, n.Score)
		assert.Equal(t, v, Reverse(3, n.Score), "reverse scoring must be involutive")
	}

	n, err := Normalize(c, reversed, "Always")
	require.NoError(t, err)
	assert.Equal(t, 0, n.Score)

	// A defaulted answer is reversed like any other.
	n, err = Normalize(c, reversed, "unheard of")
	require.NoError(t, err)
	assert.True(t, n.Defaulted)
	assert.Equal(t, 2, n.Score)
}
