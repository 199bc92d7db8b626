// Package pipeline drives the execution sandbox across the ordered test
// cases of one submission and aggregates a terminal verdict.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"shunyata/internal/judge/model"
	"shunyata/internal/judge/sandbox/profile"
	"shunyata/internal/judge/sandbox/result"
	"shunyata/internal/judge/sandbox/runner"
	"shunyata/internal/judge/sandbox/spec"
	"shunyata/internal/judge/sandbox/workspace"
	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// Stage labels the coarse phases of judging one submission.
type Stage string

const (
	StageCompiling Stage = "Compiling"
	StageCompiled  Stage = "Compiled"
	StageRunning   Stage = "Running"
	StageVerifying Stage = "Verifying"
)

// ProgressFunc receives stage checkpoints during judging. Returning a
// non-nil error aborts the pipeline at the next checkpoint; in-flight
// child processes are not interrupted.
type ProgressFunc func(stage Stage, progress int, note string) error

// Guard scopes an external resource (network lockdown) around one
// program execution. Release must be called on every exit path.
type Guard interface {
	Acquire(ctx context.Context) (release func())
}

// Outcome is the aggregated judging result for one submission.
type Outcome struct {
	Verdict      result.Verdict
	Status       result.ExecStatus
	Details      string
	Output       string
	Expected     string
	TimeMs       int64
	PeakMemoryKB int64
	FailedCase   int // 1-based index of the first failing case, 0 if none
	TestsRun     int
	Aborted      bool
}

// Config holds pipeline dependencies and settings.
type Config struct {
	Runner         runner.Runner
	Languages      *profile.Registry
	WorkRoot       string
	Guard          Guard
	CompileTimeout time.Duration
}

// Pipeline judges submissions. Safe for concurrent use; every judged
// submission gets its own workspace and child processes.
type Pipeline struct {
	runner         runner.Runner
	languages      *profile.Registry
	workRoot       string
	guard          Guard
	compileTimeout time.Duration
}

// New creates a verdict pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Languages == nil {
		return nil, fmt.Errorf("language registry is required")
	}
	if cfg.WorkRoot == "" {
		return nil, fmt.Errorf("work root is required")
	}
	return &Pipeline{
		runner:         cfg.Runner,
		languages:      cfg.Languages,
		workRoot:       cfg.WorkRoot,
		guard:          cfg.Guard,
		compileTimeout: cfg.CompileTimeout,
	}, nil
}

// Judge executes the submission against every test case in order and
// short-circuits on the first failure. It never panics past its own
// boundary: every path yields exactly one Outcome.
func (p *Pipeline) Judge(ctx context.Context, sub model.Submission, prob model.Problem, report ProgressFunc) Outcome {
	if report == nil {
		report = func(Stage, int, string) error { return nil }
	}

	cases := prob.AllTestCases()
	if len(cases) == 0 {
		return systemError("No test cases found for this problem.")
	}

	lang, err := p.languages.Lookup(sub.Language)
	if err != nil {
		return systemError(fmt.Sprintf("Unsupported language: %s", sub.Language))
	}

	ws, err := workspace.Create(p.workRoot, fmt.Sprintf("%s_%s", sub.ParticipantName, sub.ProblemID))
	if err != nil {
		return systemError(fmt.Sprintf("Failed to prepare execution environment: %v", err))
	}
	defer ws.Remove(ctx)

	sourcePath, err := ws.WriteSource(lang.SourceFile, sub.Code)
	if err != nil {
		return systemError(fmt.Sprintf("Failed to materialize source: %v", err))
	}
	binaryPath := ws.Path(lang.BinaryFile)

	if err := report(StageCompiling, 30, "Writing source code to file..."); err != nil {
		return aborted(err)
	}

	if lang.CompileEnabled {
		if err := report(StageCompiling, 40, fmt.Sprintf("Compiling with %s...", lang.Name)); err != nil {
			return aborted(err)
		}
		compileRes, err := p.runner.Compile(ctx, runner.CompileRequest{
			Language:   lang,
			WorkDir:    ws.Dir,
			SourcePath: sourcePath,
			BinaryPath: binaryPath,
			Timeout:    p.compileTimeout,
		})
		if err != nil {
			return systemError(fmt.Sprintf("Compilation failed to start: %v", err))
		}
		if !compileRes.OK {
			return Outcome{
				Verdict: result.VerdictCompileError,
				Status:  result.StatusCompileError,
				Details: compileRes.Log,
				Output:  compileRes.Log,
			}
		}
	}
	if err := report(StageCompiled, 60, "Ready to run."); err != nil {
		return aborted(err)
	}

	limits := spec.ResourceLimit{
		TimeLimitSec:  prob.TimeLimitSec,
		MemoryLimitMB: prob.MemoryLimitMB,
	}

	var out Outcome
	for i, tc := range cases {
		progress := 70
		if len(cases) > 1 {
			progress += 15 * i / (len(cases) - 1)
		}
		if err := report(StageRunning, progress, fmt.Sprintf("Executing test case %d/%d...", i+1, len(cases))); err != nil {
			return aborted(err)
		}

		execRes := p.runCase(ctx, lang, ws.Dir, sourcePath, binaryPath, tc, limits)
		out.TestsRun++
		out.TimeMs += execRes.TimeMs
		if execRes.PeakMemoryKB > out.PeakMemoryKB {
			out.PeakMemoryKB = execRes.PeakMemoryKB
		}

		if err := report(StageVerifying, 90, "Checking output against expected result..."); err != nil {
			return aborted(err)
		}

		if execRes.Status != result.StatusSuccess {
			out.Verdict = execRes.Status.Verdict()
			out.Status = execRes.Status
			out.FailedCase = i + 1
			out.Output = execRes.Output
			out.Expected = execRes.Expected
			out.Details = failureDetails(i+1, execRes)
			return out
		}
		out.Output = execRes.Output
		out.Expected = execRes.Expected
	}

	out.Verdict = result.VerdictAccepted
	out.Status = result.StatusSuccess
	return out
}

// runCase wraps one program execution in the lockdown guard, when one is
// configured, with unconditional release.
func (p *Pipeline) runCase(ctx context.Context, lang profile.LanguageSpec, workDir, sourcePath, binaryPath string, tc model.TestCase, limits spec.ResourceLimit) result.ExecutionResult {
	if p.guard != nil {
		release := p.guard.Acquire(ctx)
		defer release()
	}
	execRes, err := p.runner.Run(ctx, runner.RunRequest{
		Language:   lang,
		WorkDir:    workDir,
		SourcePath: sourcePath,
		BinaryPath: binaryPath,
		Input:      tc.Input,
		Expected:   tc.Output,
		Limits:     limits,
	})
	if err != nil {
		logger.Warn(ctx, "sandbox execution failed", zap.Error(err))
		return result.ExecutionResult{
			Status: result.StatusInternalError,
			Output: fmt.Sprintf("An unexpected execution error occurred: %v", err),
		}
	}
	return execRes
}

func failureDetails(caseNo int, res result.ExecutionResult) string {
	switch res.Status {
	case result.StatusRuntimeError:
		return fmt.Sprintf("Failed on test case #%d. %s", caseNo, res.Stderr)
	case result.StatusWrongAnswer:
		return fmt.Sprintf("Failed on test case #%d", caseNo)
	default:
		return fmt.Sprintf("Failed on test case #%d. %s", caseNo, res.Output)
	}
}

func systemError(details string) Outcome {
	return Outcome{
		Verdict: result.VerdictSystemError,
		Status:  result.StatusInternalError,
		Details: details,
		Output:  details,
	}
}

func aborted(err error) Outcome {
	return Outcome{
		Verdict: result.VerdictSystemError,
		Status:  result.StatusInternalError,
		Details: err.Error(),
		Aborted: true,
	}
}
