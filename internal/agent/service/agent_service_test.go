package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"shunyata/internal/agent/jobs"
	"shunyata/internal/agent/serverclient"
	"shunyata/internal/agent/service"
	"shunyata/internal/judge/model"
	"shunyata/internal/judge/pipeline"
	"shunyata/internal/judge/sandbox/engine"
	"shunyata/internal/judge/sandbox/profile"
	"shunyata/internal/judge/sandbox/result"
	"shunyata/internal/judge/sandbox/runner"
	appErr "shunyata/pkg/errors"
)

func problemServer(t *testing.T, hits *atomic.Int64, set model.ProblemSet) *serverclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": int(appErr.Success),
			"data": set,
		})
	}))
	t.Cleanup(srv.Close)
	return serverclient.New(srv.URL, 5*time.Second)
}

func sandboxPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	pl, err := pipeline.New(pipeline.Config{
		Runner:    runner.NewRunner(engine.New(engine.Config{})),
		Languages: profile.DefaultRegistry(),
		WorkRoot:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return pl
}

type recordingReporter struct {
	phases []string
	err    error
}

func (r *recordingReporter) Report(phase string, progress int, message string) error {
	r.phases = append(r.phases, phase)
	return r.err
}

func TestProblemsCached(t *testing.T) {
	var hits atomic.Int64
	client := problemServer(t, &hits, model.ProblemSet{"sum": {TimeLimitSec: 3}})
	svc := service.NewAgentService(client, nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Problems(ctx); err != nil {
			t.Fatalf("problems: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (cached)", hits.Load())
	}
}

func TestProblemsRefetchAfterTTL(t *testing.T) {
	var hits atomic.Int64
	client := problemServer(t, &hits, model.ProblemSet{"sum": {TimeLimitSec: 3}})
	svc := service.NewAgentService(client, nil, time.Nanosecond)
	ctx := context.Background()

	if _, err := svc.Problems(ctx); err != nil {
		t.Fatalf("problems: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := svc.Problems(ctx); err != nil {
		t.Fatalf("problems: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (ttl expired)", hits.Load())
	}
}

func TestProblemUnknown(t *testing.T) {
	var hits atomic.Int64
	client := problemServer(t, &hits, model.ProblemSet{})
	svc := service.NewAgentService(client, nil, time.Minute)

	_, err := svc.Problem(context.Background(), "missing")
	if !appErr.Is(err, appErr.ProblemNotFound) {
		t.Errorf("error = %v, want ProblemNotFound", err)
	}
}

func TestExecuteRunsOnlyFirstSample(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	var hits atomic.Int64
	client := problemServer(t, &hits, model.ProblemSet{
		"sum": {
			TimeLimitSec:  5,
			MemoryLimitMB: 256,
			SampleTestCases: []model.TestCase{
				{Input: "1 2\n", Output: "3\n"},
				{Input: "never run\n", Output: "would fail\n"},
			},
			HiddenTestCases: []model.TestCase{
				{Input: "also never run\n", Output: "would fail\n"},
			},
		},
	})
	svc := service.NewAgentService(client, sandboxPipeline(t), time.Minute)

	rep := &recordingReporter{}
	res, err := svc.Execute(context.Background(), jobs.Request{
		ProblemID: "sum",
		Language:  "python",
		Code:      "a, b = map(int, input().split())\nprint(a + b)\n",
	}, rep)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	report, ok := res.(service.RunReport)
	if !ok {
		t.Fatalf("result type = %T, want RunReport", res)
	}
	if report.Status != result.StatusSuccess {
		t.Fatalf("status = %q (%s), want success", report.Status, report.Details)
	}

	wantEarly := []string{"initializing", "loading_problem", "ready"}
	for i, phase := range wantEarly {
		if rep.phases[i] != phase {
			t.Errorf("phase %d = %q, want %q", i, rep.phases[i], phase)
		}
	}
	running := 0
	for _, phase := range rep.phases {
		if phase == "running" {
			running++
		}
	}
	if running != 1 {
		t.Errorf("running reported %d times, want 1 (first sample only)", running)
	}
}

func TestExecuteCancelledBeforeWork(t *testing.T) {
	var hits atomic.Int64
	client := problemServer(t, &hits, model.ProblemSet{"sum": {TimeLimitSec: 3}})
	svc := service.NewAgentService(client, nil, time.Minute)

	rep := &recordingReporter{err: jobs.ErrCancelled}
	_, err := svc.Execute(context.Background(), jobs.Request{ProblemID: "sum", Language: "python", Code: "x"}, rep)
	if err != jobs.ErrCancelled {
		t.Errorf("error = %v, want ErrCancelled", err)
	}
	if hits.Load() != 0 {
		t.Errorf("cancelled job should not touch the server")
	}
}

func TestRunLocalNoSamples(t *testing.T) {
	var hits atomic.Int64
	client := problemServer(t, &hits, model.ProblemSet{"sum": {TimeLimitSec: 3}})
	svc := service.NewAgentService(client, nil, time.Minute)

	_, err := svc.RunLocal(context.Background(), jobs.Request{ProblemID: "sum", Language: "python", Code: "x"})
	if !appErr.Is(err, appErr.NoTestCases) {
		t.Errorf("error = %v, want NoTestCases", err)
	}
}
