package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/nipscore/internal/catalog"
)

// Normalize maps one raw answer onto [0, K] for its question and applies
// reverse scoring. Irregular but typed values (unknown labels, out-of-range
// numbers) degrade to the catalog's neutral default and are flagged; only an
// unrecognizable shape is an error.
func Normalize(cat *catalog.Catalog, q catalog.Question, raw any) (Normalized, error) {
	r := resolver{cat: cat}
	score, kind, ok := r.resolve(raw)
	if !ok {
		return Normalized{QuestionID: q.ID, Kind: KindUnknown}, &AnswerError{QuestionID: q.ID, Type: fmt.Sprintf("%T", raw)}
	}
	if q.Reverse {
		score = Reverse(cat.MaxPoints, score)
	}
	return Normalized{
		QuestionID: q.ID,
		Score:      score,
		Kind:       kind,
		Defaulted:  r.defaulted,
	}, nil
}

// Reverse inverts a score on a 0..k scale. Reverse(k, Reverse(k, s)) == s.
func Reverse(k, score int) int {
	return k - score
}

type resolver struct {
	cat       *catalog.Catalog
	defaulted bool
}

func (r *resolver) resolve(raw any) (int, RawKind, bool) {
	switch v := raw.(type) {
	case int:
		return r.number(int64(v)), KindNumber, true
	case int8:
		return r.number(int64(v)), KindNumber, true
	case int16:
		return r.number(int64(v)), KindNumber, true
	case int32:
		return r.number(int64(v)), KindNumber, true
	case int64:
		return r.number(v), KindNumber, true
	case uint:
		return r.unsigned(uint64(v)), KindNumber, true
	case uint8:
		return r.unsigned(uint64(v)), KindNumber, true
	case uint16:
		return r.unsigned(uint64(v)), KindNumber, true
	case uint32:
		return r.unsigned(uint64(v)), KindNumber, true
	case uint64:
		return r.unsigned(v), KindNumber, true
	case float32:
		return r.float(float64(v)), KindNumber, true
	case float64:
		return r.float(v), KindNumber, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return r.number(n), KindNumber, true
		}
		if f, err := v.Float64(); err == nil {
			return r.float(f), KindNumber, true
		}
		return r.fallback(), KindNumber, true
	case string:
		return r.label(v), KindLabel, true
	case Option:
		return r.option(v.Value, v.Label)
	case *Option:
		if v == nil {
			return 0, KindUnknown, false
		}
		return r.option(v.Value, v.Label)
	case map[string]any:
		return r.object(v)
	}
	return 0, KindUnknown, false
}

func (r *resolver) number(n int64) int {
	if n < 0 || n > int64(r.cat.MaxPoints) {
		return r.fallback()
	}
	return int(n)
}

func (r *resolver) unsigned(n uint64) int {
	if n > uint64(r.cat.MaxPoints) {
		return r.fallback()
	}
	return int(n)
}

func (r *resolver) float(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return r.fallback()
	}
	if f < 0 || f > float64(r.cat.MaxPoints) {
		return r.fallback()
	}
	return int(f)
}

func (r *resolver) label(s string) int {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return r.number(n)
	}
	if score, ok := r.cat.LabelScore(trimmed); ok {
		return r.number(int64(score))
	}
	return r.fallback()
}

func (r *resolver) option(value *int, label string) (int, RawKind, bool) {
	switch {
	case value != nil:
		return r.number(int64(*value)), KindOption, true
	case label != "":
		return r.label(label), KindOption, true
	}
	return 0, KindUnknown, false
}

// object accepts {"value": <number|string>} or {"label": <string>}.
func (r *resolver) object(m map[string]any) (int, RawKind, bool) {
	if v, ok := m["value"]; ok {
		switch v.(type) {
		case map[string]any, Option, *Option:
			return 0, KindUnknown, false
		}
		score, _, ok := r.resolve(v)
		return score, KindOption, ok
	}
	if l, ok := m["label"].(string); ok {
		return r.label(l), KindOption, true
	}
	return 0, KindUnknown, false
}

func (r *resolver) fallback() int {
	r.defaulted = true
	return r.cat.LabelDefault
}
