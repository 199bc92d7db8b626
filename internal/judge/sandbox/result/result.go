// Package result defines sandbox execution results and verdict mapping.
package result

// ExecStatus is the tagged outcome of executing one program against one
// test case. Every sandbox code path produces exactly one status; nothing
// is ever signalled by panicking past the sandbox boundary.
type ExecStatus string

const (
	StatusSuccess       ExecStatus = "success"
	StatusWrongAnswer   ExecStatus = "wrong_answer"
	StatusRuntimeError  ExecStatus = "runtime_error"
	StatusTimeLimit     ExecStatus = "time_limit_exceeded"
	StatusMemoryLimit   ExecStatus = "memory_limit_exceeded"
	StatusCompileError  ExecStatus = "compilation_error"
	StatusInternalError ExecStatus = "error"
)

// Verdict represents the terminal outcome of judging a submission.
type Verdict string

const (
	VerdictAccepted     Verdict = "Accepted"
	VerdictWrongAnswer  Verdict = "Wrong Answer"
	VerdictRuntimeError Verdict = "Runtime Error"
	VerdictTimeLimit    Verdict = "Time Limit Exceeded"
	VerdictMemoryLimit  Verdict = "Memory Limit Exceeded"
	VerdictCompileError Verdict = "Compilation Error"
	VerdictPlagiarism   Verdict = "Plagiarism Detected"
	VerdictSystemError  Verdict = "System Error"
)

// Verdict maps an execution status to the corresponding submission verdict.
// StatusSuccess maps to Accepted; callers aggregating multiple test cases
// only use that mapping once every case has succeeded.
func (s ExecStatus) Verdict() Verdict {
	switch s {
	case StatusSuccess:
		return VerdictAccepted
	case StatusWrongAnswer:
		return VerdictWrongAnswer
	case StatusRuntimeError:
		return VerdictRuntimeError
	case StatusTimeLimit:
		return VerdictTimeLimit
	case StatusMemoryLimit:
		return VerdictMemoryLimit
	case StatusCompileError:
		return VerdictCompileError
	default:
		return VerdictSystemError
	}
}

// ExecutionResult captures the outcome of one test case execution.
type ExecutionResult struct {
	Status       ExecStatus
	Output       string
	Expected     string
	Stderr       string
	TimeMs       int64
	PeakMemoryKB int64
}

// CompileResult contains compilation outcomes.
type CompileResult struct {
	OK       bool
	ExitCode int
	Log      string
	TimeMs   int64
}
