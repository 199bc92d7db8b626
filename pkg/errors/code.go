package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Problem & test data errors
// 13000-13999: Submission & Judge errors
// 14000-14999: Scoreboard errors
// 15000-15999: Agent job errors
// 16000-16999: Network lockdown errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10004
	Timeout             ErrorCode = 10005

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== Problem & Test Data Errors (12000-12999) ==========

	ProblemNotFound    ErrorCode = 12000
	ProblemDataInvalid ErrorCode = 12001
	NoTestCases        ErrorCode = 12002

	// ========== Submission & Judge Errors (13000-13999) ==========

	SubmissionPersistFailed ErrorCode = 13000
	LanguageNotSupported    ErrorCode = 13001
	CodeEmpty               ErrorCode = 13002

	JudgeSystemError    ErrorCode = 13100
	CompilationError    ErrorCode = 13101
	RuntimeError        ErrorCode = 13102
	TimeLimitExceeded   ErrorCode = 13103
	MemoryLimitExceeded ErrorCode = 13104
	PlagiarismDetected  ErrorCode = 13110

	// ========== Scoreboard Errors (14000-14999) ==========

	ScoreboardLoadFailed    ErrorCode = 14000
	ScoreboardPersistFailed ErrorCode = 14001

	// ========== Agent Job Errors (15000-15999) ==========

	JobNotFound         ErrorCode = 15000
	JobAlreadyCompleted ErrorCode = 15001
	ExecutorUnavailable ErrorCode = 15002

	// ========== Network Lockdown Errors (16000-16999) ==========

	LockdownUnavailable   ErrorCode = 16000
	LockdownEnableFailed  ErrorCode = 16001
	LockdownReleaseFailed ErrorCode = 16002
	PrivilegeRequired     ErrorCode = 16003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	ProblemNotFound:    "Problem not found",
	ProblemDataInvalid: "Problem data is invalid",
	NoTestCases:        "No test cases configured for this problem",

	SubmissionPersistFailed: "Failed to persist submission",
	LanguageNotSupported:    "Programming language not supported",
	CodeEmpty:               "Source code is empty",

	JudgeSystemError:    "Judge system error",
	CompilationError:    "Compilation error",
	RuntimeError:        "Runtime error",
	TimeLimitExceeded:   "Time limit exceeded",
	MemoryLimitExceeded: "Memory limit exceeded",
	PlagiarismDetected:  "Plagiarism detected",

	ScoreboardLoadFailed:    "Failed to load scoreboard",
	ScoreboardPersistFailed: "Failed to persist scoreboard",

	JobNotFound:         "Job not found or expired",
	JobAlreadyCompleted: "Job already completed",
	ExecutorUnavailable: "Local executor not available",

	LockdownUnavailable:   "Lockdown module not available",
	LockdownEnableFailed:  "Failed to enable network lockdown",
	LockdownReleaseFailed: "Failed to release network lockdown",
	PrivilegeRequired:     "Elevated privileges required for lockdown",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ProblemNotFound, c == JobNotFound:
		return 404
	case c == InvalidParams, c == RequiredFieldEmpty, c == CodeEmpty, c == ValidationFailed, c == LanguageNotSupported:
		return 400
	case c == PrivilegeRequired:
		return 403
	case c == ServiceUnavailable, c == ExecutorUnavailable, c == LockdownUnavailable:
		return 503
	default:
		return 500
	}
}
