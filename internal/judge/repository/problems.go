// Package repository persists contest state as flat JSON files: the
// problem set, individual submissions, and nothing else.
package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"shunyata/internal/judge/model"
	appErr "shunyata/pkg/errors"
)

// ProblemStore serves the problem set loaded from a single JSON file.
type ProblemStore struct {
	problems model.ProblemSet
}

// LoadProblems reads the problem set file and validates basic shape.
func LoadProblems(path string) (*ProblemStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.ProblemDataInvalid).WithMessage(fmt.Sprintf("read problem set %s", path))
	}
	var set model.ProblemSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, appErr.Wrap(err, appErr.ProblemDataInvalid).WithMessage("parse problem set")
	}
	return &ProblemStore{problems: set}, nil
}

// NewProblemStore wraps an in-memory problem set.
func NewProblemStore(set model.ProblemSet) *ProblemStore {
	return &ProblemStore{problems: set}
}

// Get returns the problem for id.
func (s *ProblemStore) Get(id string) (model.Problem, error) {
	prob, ok := s.problems[id]
	if !ok {
		return model.Problem{}, appErr.New(appErr.ProblemNotFound).WithDetail("id", id)
	}
	return prob, nil
}

// All returns the full problem set.
func (s *ProblemStore) All() model.ProblemSet {
	return s.problems
}

// IDs returns every known problem identifier.
func (s *ProblemStore) IDs() []string {
	ids := make([]string, 0, len(s.problems))
	for id := range s.problems {
		ids = append(ids, id)
	}
	return ids
}
