// Package workspace manages per-execution working directories.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shunyata/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workspace is a uniquely named working directory for one judged
// submission. Directories are never reused across submissions.
type Workspace struct {
	Dir string
}

// Create makes a fresh working directory under root. The tag comes
// from request fields, so it is sanitized to keep the directory inside
// the work root.
func Create(root, submissionTag string) (*Workspace, error) {
	if root == "" {
		return nil, fmt.Errorf("work root is required")
	}
	dir := filepath.Join(root, fmt.Sprintf("run_%s_%s", sanitizeTag(submissionTag), uuid.NewString()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// sanitizeTag maps anything outside [a-zA-Z0-9-_] to '_' so path
// separators and dot runs in submission fields cannot escape the root.
func sanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// WriteSource materializes source code into the workspace and returns its path.
func (w *Workspace) WriteSource(fileName, code string) (string, error) {
	path := filepath.Join(w.Dir, fileName)
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return "", fmt.Errorf("write source: %w", err)
	}
	return path, nil
}

// Path joins a file name onto the workspace directory.
func (w *Workspace) Path(fileName string) string {
	return filepath.Join(w.Dir, fileName)
}

// Remove deletes the workspace. Safe to call on every exit path.
func (w *Workspace) Remove(ctx context.Context) {
	if w == nil || w.Dir == "" {
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		logger.Warn(ctx, "remove workspace failed", zap.String("dir", w.Dir), zap.Error(err))
	}
}
