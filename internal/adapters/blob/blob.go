// Package blob defines how chunk bytes are acquired.
//
// The real network client that talks to the statistics service lives
// outside this repo; the decode core only depends on the Fetcher port. The
// filesystem store here serves films that have already been downloaded to
// disk, one directory per match.
package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strafelab/filmdec/internal/domain/model"
)

// Fetcher retrieves the raw bytes of a chunk by its manifest blob ref.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// manifestFile mirrors the manifest.json layout written by the downloader.
type manifestFile struct {
	MatchID    string `json:"match_id"`
	DurationMS uint32 `json:"duration_ms"`
	Chunks     []struct {
		ChunkIndex uint32 `json:"chunk_index"`
		Type       string `json:"type"`
		File       string `json:"file"`
	} `json:"chunks"`
	Totals map[string]model.Totals `json:"totals,omitempty"`
}

// FSStore is a Fetcher over a local directory of downloaded films.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

// Fetch reads the chunk file for ref. Refs are paths relative to the store
// root; anything escaping the root is refused.
func (s *FSStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(ref)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("blob ref %q escapes store root", ref)
	}
	b, err := os.ReadFile(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("fetch blob %q: %w", ref, err)
	}
	return b, nil
}

// ReadManifest parses a match directory's manifest.json into a MatchJob.
// Chunk file paths in the manifest are made relative to the store root so
// they can be handed straight to Fetch. Unknown chunk type tags are skipped,
// not fatal: a manifest from a newer format revision should still decode
// its known chunks.
func (s *FSStore) ReadManifest(matchDir string) (model.MatchJob, error) {
	var job model.MatchJob

	b, err := os.ReadFile(filepath.Join(s.root, matchDir, "manifest.json"))
	if err != nil {
		return job, fmt.Errorf("read manifest for %q: %w", matchDir, err)
	}
	var mf manifestFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return job, fmt.Errorf("parse manifest for %q: %w", matchDir, err)
	}

	job.MatchID = mf.MatchID
	if job.MatchID == "" {
		job.MatchID = filepath.Base(matchDir)
	}
	job.DurationMS = mf.DurationMS
	job.Totals = mf.Totals
	for _, c := range mf.Chunks {
		t, ok := model.ParseChunkType(c.Type)
		if !ok {
			continue
		}
		job.Manifest = append(job.Manifest, model.ChunkManifestEntry{
			ChunkIndex:   c.ChunkIndex,
			DeclaredType: t,
			BlobRef:      filepath.Join(matchDir, c.File),
		})
	}
	return job, nil
}

// ListMatches returns the match directories under the store root.
func (s *FSStore) ListMatches() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list films in %q: %w", s.root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}
