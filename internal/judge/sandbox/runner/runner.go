// Package runner orchestrates compile and per-test run workflows on top
// of the process engine.
package runner

import (
	"context"
	"fmt"
	"time"

	"shunyata/internal/judge/sandbox/engine"
	"shunyata/internal/judge/sandbox/output"
	"shunyata/internal/judge/sandbox/profile"
	"shunyata/internal/judge/sandbox/result"
	"shunyata/internal/judge/sandbox/spec"
)

// CompileRequest describes one compilation task.
type CompileRequest struct {
	Language   profile.LanguageSpec
	WorkDir    string
	SourcePath string
	BinaryPath string
	Timeout    time.Duration
}

// RunRequest describes one execution task against a single test case.
type RunRequest struct {
	Language   profile.LanguageSpec
	WorkDir    string
	SourcePath string
	BinaryPath string
	Input      string
	Expected   string
	Limits     spec.ResourceLimit
}

// Runner orchestrates compile and run workflows.
type Runner interface {
	Compile(ctx context.Context, req CompileRequest) (result.CompileResult, error)
	Run(ctx context.Context, req RunRequest) (result.ExecutionResult, error)
}

// DefaultRunner executes via the process engine.
type DefaultRunner struct {
	engine engine.Engine
}

// NewRunner creates a runner backed by the given engine.
func NewRunner(eng engine.Engine) *DefaultRunner {
	return &DefaultRunner{engine: eng}
}

// Compile runs the language toolchain under the compilation timeout.
// A timeout is reported as a failed compilation, never as TLE.
func (r *DefaultRunner) Compile(ctx context.Context, req CompileRequest) (result.CompileResult, error) {
	if !req.Language.CompileEnabled {
		return result.CompileResult{OK: true}, nil
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = spec.DefaultCompileTimeout
	}
	runRes, err := r.engine.Run(ctx, engine.RunSpec{
		Cmd:      req.Language.ExpandCompileCmd(req.SourcePath, req.BinaryPath),
		Dir:      req.WorkDir,
		WallTime: timeout,
	})
	if err != nil {
		return result.CompileResult{}, fmt.Errorf("compile: %w", err)
	}
	if runRes.TimedOut {
		return result.CompileResult{
			ExitCode: runRes.ExitCode,
			Log:      fmt.Sprintf("Compilation timed out (>%s).", timeout),
			TimeMs:   runRes.WallTimeMs,
		}, nil
	}
	if runRes.ExitCode != 0 {
		return result.CompileResult{
			ExitCode: runRes.ExitCode,
			Log:      runRes.Stderr,
			TimeMs:   runRes.WallTimeMs,
		}, nil
	}
	return result.CompileResult{OK: true, TimeMs: runRes.WallTimeMs}, nil
}

// Run executes the compiled (or interpreted) program against one test
// case and classifies the outcome. Host failures surface as an error;
// everything the program itself does maps to an ExecStatus.
func (r *DefaultRunner) Run(ctx context.Context, req RunRequest) (result.ExecutionResult, error) {
	limits := req.Limits.WithDefaults()
	runRes, err := r.engine.Run(ctx, engine.RunSpec{
		Cmd:           req.Language.ExpandRunCmd(req.SourcePath, req.BinaryPath),
		Dir:           req.WorkDir,
		Input:         req.Input,
		WallTime:      limits.WallTime(),
		MemoryLimitKB: limits.MemoryLimitKB(),
	})
	if err != nil {
		return result.ExecutionResult{}, fmt.Errorf("run: %w", err)
	}

	res := result.ExecutionResult{
		Output:       runRes.Stdout,
		Expected:     req.Expected,
		Stderr:       runRes.Stderr,
		TimeMs:       runRes.WallTimeMs,
		PeakMemoryKB: runRes.PeakMemoryKB,
	}
	switch {
	case runRes.MemoryExceeded:
		res.Status = result.StatusMemoryLimit
		res.Output = fmt.Sprintf("Memory usage exceeded %d MB", limits.MemoryLimitMB)
	case runRes.TimedOut:
		res.Status = result.StatusTimeLimit
		res.Output = fmt.Sprintf("Execution time exceeded %g seconds", limits.TimeLimitSec)
	case runRes.ExitCode != 0:
		res.Status = result.StatusRuntimeError
		if res.Stderr == "" {
			res.Stderr = fmt.Sprintf("Program exited with non-zero code: %d", runRes.ExitCode)
		}
	case output.Equal(runRes.Stdout, req.Expected):
		res.Status = result.StatusSuccess
	default:
		res.Status = result.StatusWrongAnswer
	}
	return res, nil
}
