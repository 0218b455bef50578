package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/dshills/nipscore/internal/config"
	"github.com/dshills/nipscore/internal/scoring"
	"github.com/dshills/nipscore/internal/store"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testApp returns an app wired to a temp database and the builtin catalog.
func testApp(t *testing.T) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{
		stdout: &stdout,
		stderr: &stderr,
		cfg: &config.Config{
			Catalog:    "builtin:nip-core",
			DB:         filepath.Join(t.TempDir(), "test.db"),
			Log:        config.Log{Level: "info", Format: "text"},
			Report:     config.Report{TopN: 5, Format: "json"},
			Batch:      config.Batch{Workers: 2},
			Thresholds: config.Thresholds{Priority: 50},
		},
		log: discardLogger(),
	}
	return a, &stdout, &stderr
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Questions 1-3 belong to NIP01, 7 and 9 to NIP02; none are reverse scored.
const mixedAnswers = `{"assessment_id": "asm-1", "completed_at": "2024-05-01T10:00:00Z", "answers": {"1": 3, "2": "Always", "3": {"value": 3}, "7": 0, "9": "Never"}}`

func assertExitCode(t *testing.T, err error, wantCode int) {
	t.Helper()
	if wantCode == 0 {
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected exit code %d, got nil error", wantCode)
	}
	var ee *exitErr
	if !errors.As(err, &ee) {
		t.Fatalf("expected *exitErr, got %T: %v", err, err)
	}
	if ee.code != wantCode {
		t.Errorf("exit code = %d, want %d (msg: %s)", ee.code, wantCode, ee.msg)
	}
}

func defaultScoreFlags() *scoreFlags {
	return &scoreFlags{format: "json", top: scoring.DefaultTopN}
}

func TestRunScoreJSON(t *testing.T) {
	a, stdout, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", mixedAnswers)

	err := runScore(context.Background(), a, path, defaultScoreFlags())
	assertExitCode(t, err, 0)

	var r scoring.Report
	if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, stdout.String())
	}
	if r.AssessmentID != "asm-1" {
		t.Errorf("AssessmentID = %q, want asm-1", r.AssessmentID)
	}
	if len(r.PatternScores) != 2 {
		t.Fatalf("got %d pattern scores, want 2", len(r.PatternScores))
	}
	if r.PatternScores[0].Code != "NIP01" || r.PatternScores[0].Percentage != 100 {
		t.Errorf("first pattern = %+v, want NIP01 at 100%%", r.PatternScores[0])
	}
	if r.PatternScores[1].Code != "NIP02" || r.PatternScores[1].Percentage != 0 {
		t.Errorf("second pattern = %+v, want NIP02 at 0%%", r.PatternScores[1])
	}
	if r.OverallScore != 50 {
		t.Errorf("OverallScore = %d, want 50", r.OverallScore)
	}
}

func TestRunScoreFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"md", "# Neural Imprint Pattern Report"},
		{"coach", "# Coach Summary"},
		{"table", "RANK"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			a, stdout, _ := testApp(t)
			path := writeTempFile(t, t.TempDir(), "answers.json", mixedAnswers)
			f := defaultScoreFlags()
			f.format = tt.format
			assertExitCode(t, runScore(context.Background(), a, path, f), 0)
			if !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, stdout.String())
			}
		})
	}
}

func TestRunScoreFormatUnknown(t *testing.T) {
	a, _, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", mixedAnswers)
	f := defaultScoreFlags()
	f.format = "pdf"
	assertExitCode(t, runScore(context.Background(), a, path, f), 3)
}

func TestRunScoreMissingFile(t *testing.T) {
	a, _, _ := testApp(t)
	assertExitCode(t, runScore(context.Background(), a, "/nonexistent/answers.json", defaultScoreFlags()), 3)
}

func TestRunScoreUnknownCatalog(t *testing.T) {
	a, _, _ := testApp(t)
	a.cfg.Catalog = "builtin:nope"
	path := writeTempFile(t, t.TempDir(), "answers.json", mixedAnswers)
	assertExitCode(t, runScore(context.Background(), a, path, defaultScoreFlags()), 3)
}

func TestRunScoreOutFile(t *testing.T) {
	a, stdout, _ := testApp(t)
	dir := t.TempDir()
	path := writeTempFile(t, dir, "answers.json", mixedAnswers)
	f := defaultScoreFlags()
	f.out = filepath.Join(dir, "report.json")

	assertExitCode(t, runScore(context.Background(), a, path, f), 0)
	if stdout.Len() != 0 {
		t.Error("expected nothing on stdout with --out")
	}
	data, err := os.ReadFile(f.out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"overall_score": 50`) {
		t.Errorf("unexpected report file:\n%s", data)
	}
}

func TestRunScoreFailOnLevel(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"Strongly Present", 2},
		{"moderately present", 2},
		{"Minimal Pattern", 2},
		{"bogus", 3},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			a, _, _ := testApp(t)
			path := writeTempFile(t, t.TempDir(), "answers.json", mixedAnswers)
			f := defaultScoreFlags()
			f.failOnLevel = tt.level
			assertExitCode(t, runScore(context.Background(), a, path, f), tt.want)
		})
	}
}

func TestRunScoreFailOnLevelNotReached(t *testing.T) {
	a, _, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", `{"7": 0, "9": 1}`)
	f := defaultScoreFlags()
	f.failOnLevel = "Mild Pattern"
	assertExitCode(t, runScore(context.Background(), a, path, f), 0)
}

func TestRunScoreInvalidAnswer(t *testing.T) {
	answers := `{"1": 3, "2": true}`

	a, stdout, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", answers)
	assertExitCode(t, runScore(context.Background(), a, path, defaultScoreFlags()), 0)
	if !strings.Contains(stdout.String(), "INVALID_ANSWER_KIND") {
		t.Error("expected skipped answer to be flagged in the report")
	}

	a, _, _ = testApp(t)
	f := defaultScoreFlags()
	f.abortOnInvalid = true
	assertExitCode(t, runScore(context.Background(), a, path, f), 5)
}

func TestRunScoreEmpty(t *testing.T) {
	a, stdout, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", `{}`)
	assertExitCode(t, runScore(context.Background(), a, path, defaultScoreFlags()), 0)
	if !strings.Contains(stdout.String(), `"pattern_scores": []`) {
		t.Errorf("expected empty pattern_scores array:\n%s", stdout.String())
	}
}

func TestRunScoreSaveAndValidateStored(t *testing.T) {
	a, _, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", mixedAnswers)
	f := defaultScoreFlags()
	f.save = true
	assertExitCode(t, runScore(context.Background(), a, path, f), 0)

	a2, stdout, _ := testApp(t)
	a2.cfg.DB = a.cfg.DB
	assertExitCode(t, runValidate(context.Background(), a2, "asm-1", &validateFlags{stored: true}), 0)
	if !strings.Contains(stdout.String(), "report ok") {
		t.Error("expected stored report to validate")
	}
}

func TestRunScoreSaveNeedsID(t *testing.T) {
	a, _, _ := testApp(t)
	path := writeTempFile(t, t.TempDir(), "answers.json", `{"1": 2}`)
	f := defaultScoreFlags()
	f.save = true
	assertExitCode(t, runScore(context.Background(), a, path, f), 3)
}

func TestImportScoreStoredAndBatch(t *testing.T) {
	a, stdout, _ := testApp(t)
	ctx := context.Background()
	dir := t.TempDir()

	assertExitCode(t, runImport(ctx, a, "asm-1", writeTempFile(t, dir, "one.json", mixedAnswers)), 0)
	assertExitCode(t, runImport(ctx, a, "asm-2", writeTempFile(t, dir, "two.yaml", "1: 0\n2: Rarely\n")), 0)
	assertExitCode(t, runImport(ctx, a, "asm-3", writeTempFile(t, dir, "three.json", `{"999": 2}`)), 0)

	f := defaultScoreFlags()
	f.stored = true
	assertExitCode(t, runScore(ctx, a, "asm-2", f), 0)
	if !strings.Contains(stdout.String(), `"assessment_id": "asm-2"`) {
		t.Errorf("stored score missing assessment id:\n%s", stdout.String())
	}

	stdout.Reset()
	assertExitCode(t, runScore(ctx, a, "asm-1", f), 0)
	if !strings.Contains(stdout.String(), `"completed_at": "2024-05-01T10:00:00Z"`) {
		t.Errorf("stored score lost completed_at:\n%s", stdout.String())
	}

	stdout.Reset()
	assertExitCode(t, runBatch(ctx, a, &batchFlags{workers: 2}), 0)
	if !strings.Contains(stdout.String(), "scored 3 assessments (1 empty") {
		t.Errorf("unexpected batch summary: %s", stdout.String())
	}

	st, err := store.Open(a.cfg.DB)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r, err := st.LoadReport(ctx, "asm-1")
	if err != nil {
		t.Fatal(err)
	}
	if !r.CompletedAt.Equal(want) {
		t.Errorf("batch report CompletedAt = %v, want %v", r.CompletedAt, want)
	}
	r, err = st.LoadReport(ctx, "asm-2")
	if err != nil {
		t.Fatal(err)
	}
	if !r.CompletedAt.IsZero() {
		t.Errorf("undated assessment got CompletedAt %v", r.CompletedAt)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	// Everything has a report now, so a second pending-only run is a no-op.
	stdout.Reset()
	assertExitCode(t, runBatch(ctx, a, &batchFlags{workers: 2}), 0)
	if !strings.Contains(stdout.String(), "scored 0 assessments") {
		t.Errorf("unexpected second batch summary: %s", stdout.String())
	}

	stdout.Reset()
	assertExitCode(t, runBatch(ctx, a, &batchFlags{workers: 1, all: true}), 0)
	if !strings.Contains(stdout.String(), "scored 3 assessments") {
		t.Errorf("unexpected --all batch summary: %s", stdout.String())
	}
}

func TestRunScoreStoredMissing(t *testing.T) {
	a, _, _ := testApp(t)
	f := defaultScoreFlags()
	f.stored = true
	assertExitCode(t, runScore(context.Background(), a, "nobody", f), 3)
}

func TestRunImportErrors(t *testing.T) {
	a, _, _ := testApp(t)
	ctx := context.Background()
	assertExitCode(t, runImport(ctx, a, "asm-1", "/nonexistent/answers.json"), 3)
	assertExitCode(t, runImport(ctx, a, "asm-1", writeTempFile(t, t.TempDir(), "empty.json", `{}`)), 3)
}

func TestRunBatchBadWorkers(t *testing.T) {
	a, _, _ := testApp(t)
	assertExitCode(t, runBatch(context.Background(), a, &batchFlags{workers: 0}), 3)
}

func TestRunCatalogList(t *testing.T) {
	a, stdout, _ := testApp(t)
	assertExitCode(t, runCatalogList(a), 0)
	if !strings.Contains(stdout.String(), "builtin:nip-core") {
		t.Errorf("catalog list missing nip-core: %s", stdout.String())
	}
}

func TestRunCatalogCheck(t *testing.T) {
	a, stdout, _ := testApp(t)
	assertExitCode(t, runCatalogCheck(a), 0)
	if !strings.Contains(stdout.String(), "ok") {
		t.Errorf("unexpected check output: %s", stdout.String())
	}

	drifted := `schema_version = 1
name = "drifted"
version = "1"
max_points = 3
label_default = 1
total_questions = 5

[[patterns]]
code = "A"
name = "Alpha"
question_count = 3

[[questions]]
id = 1
pattern = "A"

[[questions]]
id = 2
pattern = "B"
`
	a, _, stderr := testApp(t)
	a.cfg.Catalog = writeTempFile(t, t.TempDir(), "drifted.toml", drifted)
	assertExitCode(t, runCatalogCheck(a), 4)
	if !strings.Contains(stderr.String(), "total_questions") {
		t.Errorf("expected total_questions problem, got: %s", stderr.String())
	}
}

func TestRunValidateFile(t *testing.T) {
	a, stdout, _ := testApp(t)
	dir := t.TempDir()
	path := writeTempFile(t, dir, "answers.json", mixedAnswers)
	f := defaultScoreFlags()
	f.out = filepath.Join(dir, "report.json")
	assertExitCode(t, runScore(context.Background(), a, path, f), 0)

	assertExitCode(t, runValidate(context.Background(), a, f.out, &validateFlags{}), 0)
	if !strings.Contains(stdout.String(), "report ok") {
		t.Error("expected report ok")
	}

	tampered := writeTempFile(t, dir, "tampered.json",
		`{"catalog_name": "nip-core", "catalog_version": "1", "max_points": 3, "overall_score": 90,
		  "pattern_scores": [{"code": "NIP01", "name": "Mind In Distress", "raw_score": 9, "max_score": 9,
		  "question_count": 3, "percentage": 100, "level": "Strongly Present"}],
		  "total_questions": 3, "defaulted_answers": 0}`)
	assertExitCode(t, runValidate(context.Background(), a, tampered, &validateFlags{}), 4)

	assertExitCode(t, runValidate(context.Background(), a, writeTempFile(t, dir, "bad.json", "{"), &validateFlags{}), 3)
}

func TestBandIndex(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"Strongly Present", 0, true},
		{"  mild pattern ", 2, true},
		{"Minimal Pattern", 3, true},
		{"Priority", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := bandIndex(scoring.SeverityBands, tt.label)
			if ok != tt.ok || got != tt.want {
				t.Errorf("bandIndex(%q) = %d, %v; want %d, %v", tt.label, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// --- cobra wiring ---

func TestRootCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	cfgPath := writeTempFile(t, dir, "nipscore.yaml", "db: "+filepath.Join(dir, "cli.db")+"\nlog:\n  level: error\n")
	answersPath := writeTempFile(t, dir, "answers.json", mixedAnswers)

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"--config", cfgPath, "score", "--format", "table", answersPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(stdout.String(), "NIP01") {
		t.Errorf("table output missing NIP01:\n%s", stdout.String())
	}

	stdout.Reset()
	root = newRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"--config", cfgPath, "import", "asm-9", answersPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("import: %v", err)
	}

	root = newRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"--config", cfgPath, "batch", "--workers", "1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(stdout.String(), "scored 1 assessments") {
		t.Errorf("unexpected batch output: %s", stdout.String())
	}
}

func TestRootCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTempFile(t, dir, "nipscore.yaml", "batch:\n  workers: 0\n")

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"--config", cfgPath, "catalog", "list"})
	assertExitCode(t, root.Execute(), 3)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
