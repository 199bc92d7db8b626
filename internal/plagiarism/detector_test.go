package plagiarism_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shunyata/internal/judge/model"
	"shunyata/internal/plagiarism"
)

type fakeCorpus struct {
	records []model.SubmissionRecord
	err     error
}

func (f *fakeCorpus) ListByProblem(ctx context.Context, problemID string) ([]model.SubmissionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.SubmissionRecord
	for _, r := range f.records {
		if r.ProblemID == problemID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestRatioIdentical(t *testing.T) {
	if got := plagiarism.Ratio("abc", "abc"); got != 1.0 {
		t.Errorf("Ratio(identical) = %v, want 1.0", got)
	}
	if got := plagiarism.Ratio("", ""); got != 1.0 {
		t.Errorf("Ratio(empty, empty) = %v, want 1.0", got)
	}
}

func TestRatioDisjoint(t *testing.T) {
	if got := plagiarism.Ratio("aaa", "bbb"); got != 0.0 {
		t.Errorf("Ratio(disjoint) = %v, want 0.0", got)
	}
}

func TestRatioThresholdBoundary(t *testing.T) {
	base := strings.Repeat("x", 100)

	// 90 shared chars of 200 total: ratio exactly 0.90.
	at := strings.Repeat("x", 90) + strings.Repeat("y", 10)
	if got := plagiarism.Ratio(base, at); got != 0.90 {
		t.Fatalf("Ratio at boundary = %v, want 0.90", got)
	}

	// 89 shared chars: ratio 0.89, just under.
	under := strings.Repeat("x", 89) + strings.Repeat("y", 11)
	if got := plagiarism.Ratio(base, under); got >= 0.90 {
		t.Fatalf("Ratio under boundary = %v, want < 0.90", got)
	}
}

func TestCheckFlagsAtThreshold(t *testing.T) {
	base := strings.Repeat("x", 100)
	corpus := &fakeCorpus{records: []model.SubmissionRecord{
		{ParticipantName: "bob", ProblemID: "sum", Code: strings.Repeat("x", 90) + strings.Repeat("y", 10)},
	}}
	det := plagiarism.NewDetector(corpus, 0)

	match := det.Check(context.Background(), model.Submission{
		ParticipantName: "alice", ProblemID: "sum", Code: base,
	})
	if match == nil {
		t.Fatalf("expected a match at the threshold")
	}
	if match.Participant != "bob" {
		t.Errorf("match participant = %q, want bob", match.Participant)
	}
	if match.Ratio < 0.90 {
		t.Errorf("match ratio = %v, want >= 0.90", match.Ratio)
	}
}

func TestCheckCleanUnderThreshold(t *testing.T) {
	base := strings.Repeat("x", 100)
	corpus := &fakeCorpus{records: []model.SubmissionRecord{
		{ParticipantName: "bob", ProblemID: "sum", Code: strings.Repeat("x", 89) + strings.Repeat("y", 11)},
	}}
	det := plagiarism.NewDetector(corpus, 0)

	if match := det.Check(context.Background(), model.Submission{
		ParticipantName: "alice", ProblemID: "sum", Code: base,
	}); match != nil {
		t.Errorf("expected clean, got match against %q (%v)", match.Participant, match.Ratio)
	}
}

func TestCheckSkipsOwnSubmissions(t *testing.T) {
	code := "print(1+2)"
	corpus := &fakeCorpus{records: []model.SubmissionRecord{
		{ParticipantName: "alice", ProblemID: "sum", Code: code},
	}}
	det := plagiarism.NewDetector(corpus, 0)

	if match := det.Check(context.Background(), model.Submission{
		ParticipantName: "alice", ProblemID: "sum", Code: code,
	}); match != nil {
		t.Errorf("resubmitting identical code must not flag the same participant")
	}
}

func TestCheckIgnoresOtherProblems(t *testing.T) {
	code := "print(1+2)"
	corpus := &fakeCorpus{records: []model.SubmissionRecord{
		{ParticipantName: "bob", ProblemID: "echo", Code: code},
	}}
	det := plagiarism.NewDetector(corpus, 0)

	if match := det.Check(context.Background(), model.Submission{
		ParticipantName: "alice", ProblemID: "sum", Code: code,
	}); match != nil {
		t.Errorf("identical code on a different problem must not flag")
	}
}

func TestCheckAbsorbsCorpusError(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("disk on fire")}
	det := plagiarism.NewDetector(corpus, 0)

	if match := det.Check(context.Background(), model.Submission{
		ParticipantName: "alice", ProblemID: "sum", Code: "x",
	}); match != nil {
		t.Errorf("corpus failure must be treated as clean")
	}
}
