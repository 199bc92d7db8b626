package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shunyata/internal/judge/model"
	"shunyata/internal/judge/repository"
	appErr "shunyata/pkg/errors"
)

func TestLoadProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.json")
	data := `{
		"sum": {
			"title": "A + B",
			"time_limit": 2.5,
			"memory_limit": 128,
			"sample_test_cases": [{"input": "1 2\n", "output": "3\n"}],
			"hidden_test_cases": [{"input": "3 4\n", "output": "7\n"}]
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write problems: %v", err)
	}

	store, err := repository.LoadProblems(path)
	if err != nil {
		t.Fatalf("load problems: %v", err)
	}

	prob, err := store.Get("sum")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prob.TimeLimitSec != 2.5 || prob.MemoryLimitMB != 128 {
		t.Errorf("limits = %v/%v, want 2.5/128", prob.TimeLimitSec, prob.MemoryLimitMB)
	}
	if got := len(prob.AllTestCases()); got != 2 {
		t.Errorf("total cases = %d, want 2", got)
	}

	if _, err := store.Get("missing"); !appErr.Is(err, appErr.ProblemNotFound) {
		t.Errorf("get missing = %v, want ProblemNotFound", err)
	}
}

func TestLoadProblemsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.json")
	if err := os.WriteFile(path, []byte("{oops"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := repository.LoadProblems(path); !appErr.Is(err, appErr.ProblemDataInvalid) {
		t.Errorf("load invalid = %v, want ProblemDataInvalid", err)
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	store, err := repository.NewSubmissionStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	sub := model.Submission{
		ParticipantName: "alice",
		ProblemID:       "sum",
		Language:        "python",
		Code:            "print(sum(map(int, input().split())))",
	}
	rec, err := store.Save(ctx, sub)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.SubmittedAt == 0 {
		t.Errorf("record should carry a timestamp")
	}

	// Another problem's submission must not appear in the corpus.
	other := sub
	other.ProblemID = "echo"
	if _, err := store.Save(ctx, other); err != nil {
		t.Fatalf("save other: %v", err)
	}

	records, err := store.ListByProblem(ctx, "sum")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Code != sub.Code || records[0].ParticipantName != "alice" {
		t.Errorf("round-tripped record mismatch: %+v", records[0])
	}
}

func TestListSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := repository.NewSubmissionStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Save(ctx, model.Submission{ParticipantName: "alice", ProblemID: "sum", Language: "python", Code: "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	records, err := store.ListByProblem(ctx, "sum")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1 (bad files skipped)", len(records))
	}
}

func TestSanitizedFileNames(t *testing.T) {
	dir := t.TempDir()
	store, err := repository.NewSubmissionStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Save(context.Background(), model.Submission{
		ParticipantName: "ali ce/../etc", ProblemID: "sum", Language: "python", Code: "x",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (no path traversal)", len(entries))
	}
}
