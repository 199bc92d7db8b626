// Package engine runs one child process under wall-clock and resident
// memory supervision.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultPollInterval   = 10 * time.Millisecond
	defaultOutputMaxBytes = 64 * 1024
)

// RunSpec describes one supervised execution.
type RunSpec struct {
	Cmd           []string
	Dir           string
	Input         string
	WallTime      time.Duration
	MemoryLimitKB int64
}

// RunResult captures raw execution data for one process.
type RunResult struct {
	ExitCode       int
	Stdout         string
	Stderr         string
	WallTimeMs     int64
	PeakMemoryKB   int64
	TimedOut       bool
	MemoryExceeded bool
}

// Engine executes a RunSpec as a supervised child process.
type Engine interface {
	Run(ctx context.Context, runSpec RunSpec) (RunResult, error)
}

// Config tunes the process engine.
type Config struct {
	PollInterval   time.Duration
	OutputMaxBytes int64
}

type procEngine struct {
	cfg Config
}

// New creates a process supervision engine.
func New(cfg Config) Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.OutputMaxBytes <= 0 {
		cfg.OutputMaxBytes = defaultOutputMaxBytes
	}
	return &procEngine{cfg: cfg}
}

func (e *procEngine) Run(ctx context.Context, runSpec RunSpec) (RunResult, error) {
	if len(runSpec.Cmd) == 0 {
		return RunResult{}, fmt.Errorf("command is required")
	}

	cmd := exec.CommandContext(ctx, runSpec.Cmd[0], runSpec.Cmd[1:]...)
	cmd.Dir = runSpec.Dir
	cmd.Stdin = strings.NewReader(runSpec.Input)
	cmd.SysProcAttr = sysProcAttr()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return RunResult{}, fmt.Errorf("start process: %w", err)
	}
	pid := cmd.Process.Pid

	var timedOut, memExceeded atomic.Bool
	var peakKB atomic.Int64
	done := make(chan struct{})

	// Wall-clock watchdog. The context cancel path also kills the whole
	// process group so grandchildren cannot outlive the run.
	go func() {
		var wallTimer <-chan time.Time
		if runSpec.WallTime > 0 {
			wallTimer = time.After(runSpec.WallTime)
		}
		select {
		case <-ctx.Done():
			killProcessGroup(pid)
		case <-wallTimer:
			timedOut.Store(true)
			killProcessGroup(pid)
		case <-done:
		}
	}()

	// Resident memory sampler. Best effort: hosts that cannot report RSS
	// stop sampling and the run proceeds with time/correctness supervision
	// only. The limit check runs every tick so it wins the race against
	// normal completion.
	samplerStopped := make(chan struct{})
	go func() {
		defer close(samplerStopped)
		ticker := time.NewTicker(e.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rssKB, err := sampleRSSKB(pid)
				if err != nil {
					if errors.Is(err, errRSSUnsupported) {
						return
					}
					continue // process likely exited between ticks
				}
				if rssKB > peakKB.Load() {
					peakKB.Store(rssKB)
				}
				if runSpec.MemoryLimitKB > 0 && rssKB > runSpec.MemoryLimitKB {
					memExceeded.Store(true)
					killProcessGroup(pid)
					return
				}
			}
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	<-samplerStopped

	res := RunResult{
		ExitCode:       exitCodeFromErr(waitErr, cmd.ProcessState),
		Stdout:         truncate(stdout.String(), e.cfg.OutputMaxBytes),
		Stderr:         truncate(stderr.String(), e.cfg.OutputMaxBytes),
		WallTimeMs:     time.Since(start).Milliseconds(),
		PeakMemoryKB:   peakKB.Load(),
		TimedOut:       timedOut.Load(),
		MemoryExceeded: memExceeded.Load(),
	}
	if res.TimedOut || res.MemoryExceeded {
		if res.ExitCode == 0 {
			res.ExitCode = -1
		}
	}
	if waitErr != nil && !res.TimedOut && !res.MemoryExceeded && res.ExitCode == 0 {
		logger.Warn(ctx, "process wait failed", zap.Error(waitErr))
		res.ExitCode = -1
	}
	return res, nil
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func truncate(s string, maxBytes int64) string {
	if int64(len(s)) <= maxBytes {
		return s
	}
	return s[:maxBytes]
}
