package engine_test

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"shunyata/internal/judge/sandbox/engine"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)
	eng := engine.New(engine.Config{})

	res, err := eng.Run(context.Background(), engine.RunSpec{
		Cmd:      []string{"sh", "-c", "echo out; echo err >&2"},
		Dir:      t.TempDir(),
		WallTime: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("stdout = %q, want out", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("stderr = %q, want err", res.Stderr)
	}
	if res.TimedOut || res.MemoryExceeded {
		t.Errorf("unexpected supervision flags: %+v", res)
	}
}

func TestRunFeedsStdin(t *testing.T) {
	requireShell(t)
	eng := engine.New(engine.Config{})

	res, err := eng.Run(context.Background(), engine.RunSpec{
		Cmd:      []string{"sh", "-c", "cat"},
		Dir:      t.TempDir(),
		Input:    "1 2\n",
		WallTime: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stdout != "1 2\n" {
		t.Errorf("stdout = %q, want input echoed", res.Stdout)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	requireShell(t)
	eng := engine.New(engine.Config{})

	res, err := eng.Run(context.Background(), engine.RunSpec{
		Cmd:      []string{"sh", "-c", "exit 3"},
		Dir:      t.TempDir(),
		WallTime: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestRunWallClockTimeout(t *testing.T) {
	requireShell(t)
	eng := engine.New(engine.Config{})

	start := time.Now()
	res, err := eng.Run(context.Background(), engine.RunSpec{
		Cmd:      []string{"sh", "-c", "sleep 10"},
		Dir:      t.TempDir(),
		WallTime: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("kill took too long: %s", elapsed)
	}
}

func TestRunTruncatesOutput(t *testing.T) {
	requireShell(t)
	eng := engine.New(engine.Config{OutputMaxBytes: 16})

	res, err := eng.Run(context.Background(), engine.RunSpec{
		Cmd:      []string{"sh", "-c", "yes | head -c 1000"},
		Dir:      t.TempDir(),
		WallTime: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Stdout) > 16 {
		t.Errorf("stdout length = %d, want <= 16", len(res.Stdout))
	}
}

func TestRunMemoryLimitKillsBeforeCompletion(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("rss sampling requires linux")
	}
	requirePython(t)
	eng := engine.New(engine.Config{})

	// Allocate well past the limit, then linger so the sampler always
	// observes the oversized RSS before a normal exit.
	code := "x = bytearray(300 * 1024 * 1024)\nimport time\ntime.sleep(5)\nprint('done')"
	res, err := eng.Run(context.Background(), engine.RunSpec{
		Cmd:           []string{"python3", "-c", code},
		Dir:           t.TempDir(),
		WallTime:      20 * time.Second,
		MemoryLimitKB: 64 * 1024,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.MemoryExceeded {
		t.Fatalf("expected memory limit kill, got %+v", res)
	}
	if strings.Contains(res.Stdout, "done") {
		t.Errorf("process should have been killed before finishing")
	}
	if res.PeakMemoryKB <= 64*1024 {
		t.Errorf("peak memory = %d KB, want above the limit", res.PeakMemoryKB)
	}
}

func TestRunContextCancel(t *testing.T) {
	requireShell(t)
	eng := engine.New(engine.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res, err := eng.Run(ctx, engine.RunSpec{
		Cmd:      []string{"sh", "-c", "sleep 10"},
		Dir:      t.TempDir(),
		WallTime: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode == 0 {
		t.Errorf("cancelled run should not exit cleanly")
	}
}
