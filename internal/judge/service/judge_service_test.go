package service_test

import (
	"context"
	"os/exec"
	"testing"

	"shunyata/internal/judge/model"
	"shunyata/internal/judge/pipeline"
	"shunyata/internal/judge/repository"
	"shunyata/internal/judge/sandbox/engine"
	"shunyata/internal/judge/sandbox/profile"
	"shunyata/internal/judge/sandbox/result"
	"shunyata/internal/judge/sandbox/runner"
	"shunyata/internal/judge/service"
	"shunyata/internal/plagiarism"
	"shunyata/internal/scoreboard"
)

const solutionCode = "a, b = map(int, input().split())\nprint(a + b)\n"

func newService(t *testing.T) (*service.JudgeService, *scoreboard.Manager) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	problems := repository.NewProblemStore(model.ProblemSet{
		"sum": {
			Title:         "A + B",
			TimeLimitSec:  5,
			MemoryLimitMB: 256,
			SampleTestCases: []model.TestCase{
				{Input: "1 2\n", Output: "3\n"},
			},
			HiddenTestCases: []model.TestCase{
				{Input: "10 20\n", Output: "30\n"},
			},
		},
	})
	submissions, err := repository.NewSubmissionStore(t.TempDir())
	if err != nil {
		t.Fatalf("new submission store: %v", err)
	}
	pl, err := pipeline.New(pipeline.Config{
		Runner:    runner.NewRunner(engine.New(engine.Config{})),
		Languages: profile.DefaultRegistry(),
		WorkRoot:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	board := scoreboard.NewManager(t.TempDir() + "/scoreboard.json")
	detector := plagiarism.NewDetector(submissions, 0)
	return service.NewJudgeService(problems, submissions, detector, pl, board), board
}

func TestJudgeAcceptedThenPlagiarised(t *testing.T) {
	svc, board := newService(t)
	ctx := context.Background()

	resp := svc.Judge(ctx, model.Submission{
		ParticipantName: "alice", ProblemID: "sum", Language: "python", Code: solutionCode,
	})
	if resp.Verdict != result.VerdictAccepted {
		t.Fatalf("alice verdict = %q (%s), want accepted", resp.Verdict, resp.Details)
	}

	snap := board.Load(ctx)
	if snap["alice"].Score != scoreboard.PointsPerProblem {
		t.Fatalf("alice score = %d, want %d", snap["alice"].Score, scoreboard.PointsPerProblem)
	}

	// Bob submits alice's code verbatim: flagged before execution.
	resp = svc.Judge(ctx, model.Submission{
		ParticipantName: "bob", ProblemID: "sum", Language: "python", Code: solutionCode,
	})
	if resp.Verdict != result.VerdictPlagiarism {
		t.Fatalf("bob verdict = %q, want plagiarism detected", resp.Verdict)
	}

	snap = board.Load(ctx)
	if snap["bob"].Score != 0 {
		t.Errorf("bob score = %d, want 0", snap["bob"].Score)
	}
	rec := snap["bob"].ProblemsSolved["sum"]
	if rec.Verdict != result.VerdictPlagiarism {
		t.Errorf("bob record verdict = %q, want plagiarism", rec.Verdict)
	}
	if rec.Code == "" {
		t.Errorf("flagged submission should be recorded with its code")
	}
}

func TestJudgeWrongAnswerCarriesDiff(t *testing.T) {
	svc, _ := newService(t)

	resp := svc.Judge(context.Background(), model.Submission{
		ParticipantName: "carol", ProblemID: "sum", Language: "python",
		Code: "a, b = map(int, input().split())\nprint(a - b)\n",
	})
	if resp.Verdict != result.VerdictWrongAnswer {
		t.Fatalf("verdict = %q (%s), want wrong answer", resp.Verdict, resp.Details)
	}
	if resp.Expected == "" || resp.Got == "" {
		t.Errorf("wrong answer should expose expected and got, have %+v", resp)
	}
}

func TestJudgeResubmitOwnCodeNotFlagged(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sub := model.Submission{ParticipantName: "alice", ProblemID: "sum", Language: "python", Code: solutionCode}
	if resp := svc.Judge(ctx, sub); resp.Verdict != result.VerdictAccepted {
		t.Fatalf("first submit verdict = %q", resp.Verdict)
	}
	if resp := svc.Judge(ctx, sub); resp.Verdict == result.VerdictPlagiarism {
		t.Errorf("own resubmission must not be flagged")
	}
}

func TestJudgeUnknownProblem(t *testing.T) {
	svc, _ := newService(t)

	resp := svc.Judge(context.Background(), model.Submission{
		ParticipantName: "alice", ProblemID: "no-such", Language: "python", Code: "print(1)",
	})
	if resp.Verdict != result.VerdictSystemError {
		t.Errorf("verdict = %q, want system error", resp.Verdict)
	}
}

func TestJudgeRuntimeErrorVerdict(t *testing.T) {
	svc, _ := newService(t)

	resp := svc.Judge(context.Background(), model.Submission{
		ParticipantName: "dave", ProblemID: "sum", Language: "python",
		Code: "raise RuntimeError('boom')\n",
	})
	if resp.Verdict != result.VerdictRuntimeError {
		t.Fatalf("verdict = %q (%s), want runtime error", resp.Verdict, resp.Details)
	}
}
