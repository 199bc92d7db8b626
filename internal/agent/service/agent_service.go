// Package service implements the participant agent: local test runs in
// the sandbox, async job execution and proxying to the judge server.
package service

import (
	"context"
	"sync"
	"time"

	"shunyata/internal/agent/jobs"
	"shunyata/internal/agent/serverclient"
	"shunyata/internal/judge/model"
	"shunyata/internal/judge/pipeline"
	"shunyata/internal/judge/sandbox/result"
	"shunyata/internal/scoreboard"
	appErr "shunyata/pkg/errors"
	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// DefaultProblemTTL bounds how long the agent serves a cached problem
// set before refetching from the server.
const DefaultProblemTTL = 30 * time.Second

// RunReport is the payload of a finished local run.
type RunReport struct {
	Status       result.ExecStatus `json:"status"`
	Output       string            `json:"output"`
	Expected     string            `json:"expected,omitempty"`
	Details      string            `json:"details,omitempty"`
	TimeMs       int64             `json:"time_ms"`
	PeakMemoryKB int64             `json:"peak_memory_kb"`
}

// TerminalPhase names the job's terminal phase after the execution
// status, so polling clients read the outcome without unwrapping the
// result payload.
func (r RunReport) TerminalPhase() string {
	return string(r.Status)
}

// AgentService runs participant code locally and talks to the central
// judge server for everything else.
type AgentService struct {
	server   *serverclient.Client
	pipeline *pipeline.Pipeline

	problemTTL time.Duration
	cacheMu    sync.Mutex
	cached     model.ProblemSet
	fetchedAt  time.Time
}

// NewAgentService assembles the agent service.
func NewAgentService(server *serverclient.Client, pl *pipeline.Pipeline, problemTTL time.Duration) *AgentService {
	if problemTTL <= 0 {
		problemTTL = DefaultProblemTTL
	}
	return &AgentService{server: server, pipeline: pl, problemTTL: problemTTL}
}

// Problems returns the problem set, served from a short-lived cache so
// interactive use does not hammer the server.
func (s *AgentService) Problems(ctx context.Context) (model.ProblemSet, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < s.problemTTL {
		return s.cached, nil
	}
	set, err := s.server.FetchProblems(ctx)
	if err != nil {
		if s.cached != nil {
			logger.Warn(ctx, "problem refresh failed, serving stale cache", zap.Error(err))
			return s.cached, nil
		}
		return nil, err
	}
	s.cached = set
	s.fetchedAt = time.Now()
	return set, nil
}

// Problem returns one problem by id.
func (s *AgentService) Problem(ctx context.Context, id string) (model.Problem, error) {
	set, err := s.Problems(ctx)
	if err != nil {
		return model.Problem{}, err
	}
	prob, ok := set[id]
	if !ok {
		return model.Problem{}, appErr.New(appErr.ProblemNotFound).WithDetail("id", id)
	}
	return prob, nil
}

// Submit forwards a submission to the central judge server.
func (s *AgentService) Submit(ctx context.Context, sub model.Submission) (model.JudgeResponse, error) {
	return s.server.Submit(ctx, sub)
}

// Scoreboard proxies the current standings from the server.
func (s *AgentService) Scoreboard(ctx context.Context) (scoreboard.Snapshot, error) {
	return s.server.FetchScoreboard(ctx)
}

// RunLocal executes code against the problem's first sample case,
// blocking until done. This is the console's quick test path.
func (s *AgentService) RunLocal(ctx context.Context, req jobs.Request) (RunReport, error) {
	prob, err := s.testProblem(ctx, req.ProblemID)
	if err != nil {
		return RunReport{}, err
	}
	out := s.pipeline.Judge(ctx, model.Submission{
		ParticipantName: "local",
		ProblemID:       req.ProblemID,
		Language:        req.Language,
		Code:            req.Code,
	}, prob, nil)
	return reportFrom(out), nil
}

// Execute runs one async job: fetch the problem, then judge against its
// first sample case, streaming phase checkpoints to the tracker.
func (s *AgentService) Execute(ctx context.Context, req jobs.Request, rep jobs.Reporter) (any, error) {
	if err := rep.Report("initializing", 5, "Preparing execution environment..."); err != nil {
		return nil, err
	}
	if err := rep.Report("loading_problem", 10, "Fetching problem data..."); err != nil {
		return nil, err
	}
	prob, err := s.testProblem(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if err := rep.Report("ready", 20, "Problem loaded."); err != nil {
		return nil, err
	}

	out := s.pipeline.Judge(ctx, model.Submission{
		ParticipantName: "local",
		ProblemID:       req.ProblemID,
		Language:        req.Language,
		Code:            req.Code,
	}, prob, func(stage pipeline.Stage, progress int, note string) error {
		return rep.Report(phaseFor(stage), progress, note)
	})
	if out.Aborted {
		return nil, jobs.ErrCancelled
	}
	return reportFrom(out), nil
}

// testProblem reduces a problem to its first sample case, which is what
// local test runs execute against.
func (s *AgentService) testProblem(ctx context.Context, id string) (model.Problem, error) {
	prob, err := s.Problem(ctx, id)
	if err != nil {
		return model.Problem{}, err
	}
	if len(prob.SampleTestCases) == 0 {
		return model.Problem{}, appErr.New(appErr.NoTestCases).WithDetail("id", id)
	}
	prob.SampleTestCases = prob.SampleTestCases[:1]
	prob.HiddenTestCases = nil
	return prob, nil
}

func phaseFor(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageCompiling:
		return "compiling"
	case pipeline.StageCompiled:
		return "compiled"
	case pipeline.StageRunning:
		return "running"
	case pipeline.StageVerifying:
		return "verifying"
	default:
		return string(stage)
	}
}

func reportFrom(out pipeline.Outcome) RunReport {
	return RunReport{
		Status:       out.Status,
		Output:       out.Output,
		Expected:     out.Expected,
		Details:      out.Details,
		TimeMs:       out.TimeMs,
		PeakMemoryKB: out.PeakMemoryKB,
	}
}
