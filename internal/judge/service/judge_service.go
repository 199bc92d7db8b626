// Package service implements the central judging flow: persistence,
// plagiarism screening, sandbox execution and scoreboard recording.
package service

import (
	"context"
	"fmt"

	"shunyata/internal/judge/model"
	"shunyata/internal/judge/pipeline"
	"shunyata/internal/judge/repository"
	"shunyata/internal/judge/sandbox/result"
	"shunyata/internal/plagiarism"
	"shunyata/internal/scoreboard"
	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// JudgeService wires the judging stages together. One instance serves
// all requests; each submission judges in its own workspace.
type JudgeService struct {
	problems    *repository.ProblemStore
	submissions *repository.SubmissionStore
	detector    *plagiarism.Detector
	pipeline    *pipeline.Pipeline
	board       *scoreboard.Manager
}

// NewJudgeService assembles the judging service.
func NewJudgeService(
	problems *repository.ProblemStore,
	submissions *repository.SubmissionStore,
	detector *plagiarism.Detector,
	pl *pipeline.Pipeline,
	board *scoreboard.Manager,
) *JudgeService {
	return &JudgeService{
		problems:    problems,
		submissions: submissions,
		detector:    detector,
		pipeline:    pl,
		board:       board,
	}
}

// Judge runs one submission through the full flow and always returns a
// terminal response. The plagiarism screen runs before any code is
// executed, so flagged code never reaches the sandbox.
func (s *JudgeService) Judge(ctx context.Context, sub model.Submission) model.JudgeResponse {
	logger.Info(ctx, "judging submission",
		zap.String("participant", sub.ParticipantName),
		zap.String("problem_id", sub.ProblemID),
		zap.String("language", sub.Language))

	if match := s.detector.Check(ctx, sub); match != nil {
		details := fmt.Sprintf("Code is %.0f%% similar to a submission by %s", match.Ratio*100, match.Participant)
		s.board.Update(ctx, sub.ParticipantName, sub.ProblemID, result.VerdictPlagiarism, details, sub.Code)
		s.persist(ctx, sub)
		return model.JudgeResponse{Verdict: result.VerdictPlagiarism, Details: details}
	}

	// Persist before judging so the corpus grows even when execution
	// later fails.
	s.persist(ctx, sub)

	prob, err := s.problems.Get(sub.ProblemID)
	if err != nil {
		details := fmt.Sprintf("Unknown problem: %s", sub.ProblemID)
		logger.Warn(ctx, "problem lookup failed", zap.String("problem_id", sub.ProblemID), zap.Error(err))
		return model.JudgeResponse{Verdict: result.VerdictSystemError, Details: details}
	}

	out := s.pipeline.Judge(ctx, sub, prob, nil)
	s.board.Update(ctx, sub.ParticipantName, sub.ProblemID, out.Verdict, out.Details, "")

	resp := model.JudgeResponse{Verdict: out.Verdict, Details: out.Details}
	if out.Status == result.StatusWrongAnswer {
		resp.Expected = out.Expected
		resp.Got = out.Output
	}
	return resp
}

// persist saves the submission for the plagiarism corpus. Storage
// failures are logged and absorbed; judging continues regardless.
func (s *JudgeService) persist(ctx context.Context, sub model.Submission) {
	if _, err := s.submissions.Save(ctx, sub); err != nil {
		logger.Warn(ctx, "submission persist failed",
			zap.String("participant", sub.ParticipantName), zap.Error(err))
	}
}

// Problems returns the full problem set for agents to mirror.
func (s *JudgeService) Problems() model.ProblemSet {
	return s.problems.All()
}

// Problem returns one problem by id.
func (s *JudgeService) Problem(id string) (model.Problem, error) {
	return s.problems.Get(id)
}

// Scoreboard returns the current standings snapshot.
func (s *JudgeService) Scoreboard(ctx context.Context) scoreboard.Snapshot {
	return s.board.Load(ctx)
}
