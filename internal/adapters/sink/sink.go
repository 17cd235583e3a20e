// Package sink defines where decoded match results go.
//
// The persistent store fed by production deployments is an external
// collaborator; the decode core only depends on the Sink port. The JSON
// file sink here backs the CLI: one file per match, replaced whole, which
// preserves the delete-then-insert semantics the output contract requires.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strafelab/filmdec/internal/domain/model"
)

// Sink receives one match's decoded output. Writes for the same match id
// must be idempotently replaceable.
type Sink interface {
	Write(ctx context.Context, result model.MatchResult) error
}

// JSONSink writes each match result to <dir>/<matchID>.json.
type JSONSink struct {
	dir string
}

// NewJSONSink creates a sink writing into dir, creating it if needed.
func NewJSONSink(dir string) (*JSONSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink dir %q: %w", dir, err)
	}
	return &JSONSink{dir: dir}, nil
}

// Write replaces the match's result file. A temp-file rename keeps a
// concurrent reader from observing a partial write.
func (s *JSONSink) Write(ctx context.Context, result model.MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result for match %q: %w", result.MatchID, err)
	}

	final := filepath.Join(s.dir, result.MatchID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write result for match %q: %w", result.MatchID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("replace result for match %q: %w", result.MatchID, err)
	}
	return nil
}
