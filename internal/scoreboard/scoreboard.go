// Package scoreboard maintains the persistent contest standings.
package scoreboard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shunyata/internal/judge/sandbox/result"
	appErr "shunyata/pkg/errors"
	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// PointsPerProblem is the score awarded for each accepted problem.
const PointsPerProblem = 100

// ProblemRecord is the outcome recorded for one participant on one
// problem. Code is kept only for flagged submissions.
type ProblemRecord struct {
	Verdict   result.Verdict `json:"verdict"`
	Details   string         `json:"details,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Code      string         `json:"code,omitempty"`
}

// Entry is one participant's standings row.
type Entry struct {
	Score          int                      `json:"score"`
	ProblemsSolved map[string]ProblemRecord `json:"problems_solved"`
}

// Snapshot is the full scoreboard keyed by participant name.
type Snapshot map[string]Entry

// Manager serializes every load-modify-persist cycle behind one mutex
// so concurrent verdicts cannot interleave on the backing file.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a scoreboard manager over the given JSON file.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the current snapshot. A missing or unreadable file yields
// an empty scoreboard so the contest keeps running.
func (m *Manager) Load(ctx context.Context) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// Update records a verdict for one participant on one problem and
// recomputes the participant's score. First accepted answer wins: once
// a problem is recorded as accepted no later verdict changes it.
// Failures are logged, never surfaced, so scoreboard trouble cannot
// disturb judging.
func (m *Manager) Update(ctx context.Context, participant, problemID string, verdict result.Verdict, details, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	board := m.load(ctx)
	entry, ok := board[participant]
	if !ok {
		entry = Entry{ProblemsSolved: make(map[string]ProblemRecord)}
	}
	if entry.ProblemsSolved == nil {
		entry.ProblemsSolved = make(map[string]ProblemRecord)
	}

	if prev, ok := entry.ProblemsSolved[problemID]; ok && prev.Verdict == result.VerdictAccepted {
		return
	}

	rec := ProblemRecord{
		Verdict:   verdict,
		Details:   details,
		Timestamp: time.Now().Unix(),
	}
	if verdict == result.VerdictPlagiarism {
		rec.Code = code
	}
	entry.ProblemsSolved[problemID] = rec

	score := 0
	for _, r := range entry.ProblemsSolved {
		if r.Verdict == result.VerdictAccepted {
			score += PointsPerProblem
		}
	}
	entry.Score = score
	board[participant] = entry

	if err := m.persist(board); err != nil {
		logger.Error(ctx, "scoreboard persist failed",
			zap.String("participant", participant),
			zap.String("problem_id", problemID),
			zap.Error(err))
	}
}

func (m *Manager) load(ctx context.Context) Snapshot {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "scoreboard unreadable, starting empty", zap.String("path", m.path), zap.Error(err))
		}
		return Snapshot{}
	}
	var board Snapshot
	if err := json.Unmarshal(data, &board); err != nil {
		logger.Warn(ctx, "scoreboard corrupt, starting empty", zap.String("path", m.path), zap.Error(err))
		return Snapshot{}
	}
	if board == nil {
		board = Snapshot{}
	}
	return board
}

// persist writes to a temp file in the same directory and renames it
// over the target so readers never observe a partial write.
func (m *Manager) persist(board Snapshot) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return appErr.Wrap(err, appErr.ScoreboardPersistFailed)
	}
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return appErr.Wrap(err, appErr.ScoreboardPersistFailed)
	}
	tmp, err := os.CreateTemp(dir, ".scoreboard_*.json")
	if err != nil {
		return appErr.Wrap(err, appErr.ScoreboardPersistFailed)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return appErr.Wrap(err, appErr.ScoreboardPersistFailed)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return appErr.Wrap(err, appErr.ScoreboardPersistFailed)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return appErr.Wrap(err, appErr.ScoreboardPersistFailed)
	}
	return nil
}
