package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shunyata/internal/judge/model"
	appErr "shunyata/pkg/errors"
	"shunyata/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionStore keeps one JSON file per submission under a flat
// directory. Files are append-only; nothing ever rewrites them.
type SubmissionStore struct {
	dir string
}

// NewSubmissionStore ensures the storage directory exists.
func NewSubmissionStore(dir string) (*SubmissionStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("submission directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, appErr.Wrap(err, appErr.SubmissionPersistFailed)
	}
	return &SubmissionStore{dir: dir}, nil
}

// Save persists one submission as its own file and returns the record.
func (s *SubmissionStore) Save(ctx context.Context, sub model.Submission) (model.SubmissionRecord, error) {
	rec := model.SubmissionRecord{
		ParticipantName: sub.ParticipantName,
		ProblemID:       sub.ProblemID,
		Language:        sub.Language,
		Code:            sub.Code,
		SubmittedAt:     time.Now().Unix(),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return rec, appErr.Wrap(err, appErr.SubmissionPersistFailed)
	}
	name := fmt.Sprintf("%s_%s_%d_%s.json",
		sanitize(sub.ParticipantName), sanitize(sub.ProblemID), rec.SubmittedAt, uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return rec, appErr.Wrap(err, appErr.SubmissionPersistFailed).WithDetail("path", path)
	}
	logger.Debug(ctx, "submission persisted", zap.String("path", path))
	return rec, nil
}

// ListByProblem returns every readable persisted submission for the
// problem. Unreadable or malformed files are skipped with a warning so
// one bad file cannot poison the corpus.
func (s *SubmissionStore) ListByProblem(ctx context.Context, problemID string) ([]model.SubmissionRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read submission dir: %w", err)
	}
	var out []model.SubmissionRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn(ctx, "skip unreadable submission", zap.String("path", path), zap.Error(err))
			continue
		}
		var rec model.SubmissionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			logger.Warn(ctx, "skip malformed submission", zap.String("path", path), zap.Error(err))
			continue
		}
		if rec.ProblemID != problemID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// sanitize keeps file names portable across filesystems.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
