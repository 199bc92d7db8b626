// Package plagiarism screens submissions against previously persisted
// code for the same problem using sequence similarity.
package plagiarism

import (
	"context"

	"shunyata/internal/judge/model"
	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// DefaultThreshold is the similarity ratio at or above which a
// submission is flagged.
const DefaultThreshold = 0.90

// Corpus supplies the persisted submissions to compare against.
type Corpus interface {
	ListByProblem(ctx context.Context, problemID string) ([]model.SubmissionRecord, error)
}

// Match describes the first prior submission found over the threshold.
type Match struct {
	Participant string
	Ratio       float64
}

// Detector compares incoming code against the stored corpus.
type Detector struct {
	corpus    Corpus
	threshold float64
}

// NewDetector creates a detector. A non-positive threshold falls back
// to the default.
func NewDetector(corpus Corpus, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{corpus: corpus, threshold: threshold}
}

// Check screens sub against all persisted submissions for the same
// problem, excluding the submitter's own. Detection is best effort: any
// corpus failure is logged and treated as clean so a storage hiccup can
// never block judging.
func (d *Detector) Check(ctx context.Context, sub model.Submission) *Match {
	records, err := d.corpus.ListByProblem(ctx, sub.ProblemID)
	if err != nil {
		logger.Warn(ctx, "plagiarism corpus unavailable, treating as clean",
			zap.String("problem_id", sub.ProblemID), zap.Error(err))
		return nil
	}
	for _, rec := range records {
		if rec.ParticipantName == sub.ParticipantName {
			continue
		}
		ratio := Ratio(sub.Code, rec.Code)
		if ratio >= d.threshold {
			logger.Info(ctx, "plagiarism detected",
				zap.String("participant", sub.ParticipantName),
				zap.String("against", rec.ParticipantName),
				zap.Float64("ratio", ratio))
			return &Match{Participant: rec.ParticipantName, Ratio: ratio}
		}
	}
	return nil
}

// Ratio is 2*M/T where M is the length of the longest common
// subsequence of a and b and T the sum of their lengths. Two empty
// strings are identical.
func Ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(lcsLen(a, b)) / float64(total)
}

// lcsLen computes LCS length with two rolling rows, keeping memory
// proportional to the shorter string.
func lcsLen(a, b string) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				curr[j+1] = prev[j] + 1
			} else if prev[j+1] >= curr[j] {
				curr[j+1] = prev[j+1]
			} else {
				curr[j+1] = curr[j]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
