package classification

import (
	"context"
	"fmt"
	"os"

	"riskgrade/pkg/threshold"
)

// Repository supplies the threshold rule set the service classifies with.
type Repository interface {
	GetRuleSet(ctx context.Context) (*threshold.RuleSet, error)
}

// FileRepository reads rules from a thresholds JSON document on disk.
// The file is re-read on every reload so edits are picked up without a
// restart.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) GetRuleSet(ctx context.Context) (*threshold.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file %s: %w", r.path, err)
	}

	rs, err := threshold.ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file %s: %w", r.path, err)
	}

	return rs, nil
}
