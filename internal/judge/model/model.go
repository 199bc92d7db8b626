// Package model defines the contest data model shared by the central
// judge and the participant agent.
package model

import "shunyata/internal/judge/sandbox/result"

// TestCase is one ordered pair of input and expected output.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Problem holds limits and the ordered test case groups. Judging runs
// sample cases first, then hidden cases, as one ordered sequence.
type Problem struct {
	Title           string     `json:"title,omitempty"`
	Statement       string     `json:"statement,omitempty"`
	TimeLimitSec    float64    `json:"time_limit"`
	MemoryLimitMB   int64      `json:"memory_limit"`
	SampleTestCases []TestCase `json:"sample_test_cases"`
	HiddenTestCases []TestCase `json:"hidden_test_cases"`
}

// AllTestCases returns sample-then-hidden as one ordered sequence.
func (p Problem) AllTestCases() []TestCase {
	out := make([]TestCase, 0, len(p.SampleTestCases)+len(p.HiddenTestCases))
	out = append(out, p.SampleTestCases...)
	out = append(out, p.HiddenTestCases...)
	return out
}

// ProblemSet maps problem identifiers to problems.
type ProblemSet map[string]Problem

// Submission is one judging request. Immutable once accepted.
type Submission struct {
	ParticipantName string `json:"participant_name"`
	ProblemID       string `json:"problem_id"`
	Language        string `json:"language"`
	Code            string `json:"code"`
}

// SubmissionRecord is the persisted form of a submission, kept for
// plagiarism comparison.
type SubmissionRecord struct {
	ParticipantName string `json:"participant_name"`
	ProblemID       string `json:"problem_id"`
	Language        string `json:"language"`
	Code            string `json:"code"`
	SubmittedAt     int64  `json:"submitted_at"`
}

// JudgeResponse is the terminal answer for one judging request. Every
// request gets exactly one.
type JudgeResponse struct {
	Verdict  result.Verdict `json:"verdict"`
	Details  string         `json:"details,omitempty"`
	Expected string         `json:"expected,omitempty"`
	Got      string         `json:"got,omitempty"`
}
