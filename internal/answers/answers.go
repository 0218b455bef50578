// Package answers reads assessment answer files and hashes their content.
package answers

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/dshills/nipscore/internal/scoring"
)

// File holds a loaded answer file with its content hash.
//
// Two layouts are accepted, in JSON or YAML:
//
//	{"assessment_id": "a-1", "completed_at": "...", "answers": {"1": 3, "2": "Often"}}
//	{"1": 3, "2": {"value": 2}}
type File struct {
	FilePath     string
	AssessmentID string
	CompletedAt  time.Time
	Answers      scoring.AnswerSet
	Hash         string
}

type document struct {
	AssessmentID string         `json:"assessment_id" yaml:"assessment_id"`
	CompletedAt  time.Time      `json:"completed_at" yaml:"completed_at"`
	Answers      map[string]any `json:"answers" yaml:"answers"`
}

// Load reads an answer file and computes its SHA-256 hash. The format is
// chosen by extension: .json, .yaml or .yml.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("answers.Load: %w", err)
	}
	set, doc, err := parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("answers.Load: %s: %w", path, err)
	}
	h := sha256.Sum256(data)
	return &File{
		FilePath:     path,
		AssessmentID: doc.AssessmentID,
		CompletedAt:  doc.CompletedAt,
		Answers:      set,
		Hash:         fmt.Sprintf("sha256:%x", h),
	}, nil
}

// parse decodes answer file content. ext selects the decoder.
func parse(data []byte, ext string) (scoring.AnswerSet, document, error) {
	var unmarshal func([]byte, any) error
	switch strings.ToLower(ext) {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, document{}, fmt.Errorf("unsupported answer format %q", ext)
	}

	var doc document
	if err := unmarshal(data, &doc); err == nil && doc.Answers != nil {
		set, err := keyByID(doc.Answers)
		return set, doc, err
	}

	var bare map[string]any
	if err := unmarshal(data, &bare); err != nil {
		return nil, document{}, fmt.Errorf("decode answers: %w", err)
	}
	set, err := keyByID(bare)
	return set, document{}, err
}

func keyByID(raw map[string]any) (scoring.AnswerSet, error) {
	set := make(scoring.AnswerSet, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("question id %q is not an integer", k)
		}
		set[id] = v
	}
	return set, nil
}
