// Package sanitize recovers best-effort display names from the fixed-width
// text field of a film record.
//
// The field is nominally UTF-16LE but is corrupted by embedded control bytes
// from the game client more often than not, so strict decoding loses more
// names than it saves. Recovery instead takes the longest contiguous run of
// ASCII alphanumerics out of a permissive decode, falling back to a
// single-byte read for fields whose UTF-16 interpretation yields nothing
// usable. The same raw field recurs for every event of a participant, so
// results are memoized in an LRU cache.
package sanitize

import (
	"unicode/utf16"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// Defaults. Three characters is the shortest gamertag the platform issues;
// anything shorter is treated as a decode artifact.
const (
	defaultMinLength = 3
	defaultCacheSize = 4096
)

// Sanitizer converts raw display-name bytes into usable names. Safe for
// concurrent use.
type Sanitizer struct {
	minLength int
	cache     *lru.Cache[[model.NameFieldSize]byte, *string]
}

// Option applies a configuration option to the Sanitizer.
type Option func(*Sanitizer)

// WithMinLength sets the minimum accepted name length.
func WithMinLength(n int) Option {
	return func(s *Sanitizer) {
		if n > 0 {
			s.minLength = n
		}
	}
}

// WithCacheSize sets the memoization cache size.
func WithCacheSize(n int) Option {
	return func(s *Sanitizer) {
		if n > 0 {
			cache, err := lru.New[[model.NameFieldSize]byte, *string](n)
			if err == nil {
				s.cache = cache
			}
		}
	}
}

// New creates a sanitizer with configuration options.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		minLength: defaultMinLength,
	}
	cache, _ := lru.New[[model.NameFieldSize]byte, *string](defaultCacheSize)
	s.cache = cache
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name recovers a human-readable name from the raw field, or nil when no
// run of at least the minimum length survives. Pure and total: it never
// fails on malformed input.
func (s *Sanitizer) Name(b [model.NameFieldSize]byte) *string {
	if v, ok := s.cache.Get(b); ok {
		metrics.RecordNameCacheHit()
		return v
	}
	metrics.RecordNameCacheMiss()
	v := s.recover(b)
	s.cache.Add(b, v)
	return v
}

func (s *Sanitizer) recover(b [model.NameFieldSize]byte) *string {
	// Permissive UTF-16LE decode; invalid code units become replacement
	// characters rather than aborting.
	units := make([]uint16, 0, model.NameFieldSize/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])|uint16(b[i+1])<<8)
	}
	if run := longestRun(utf16.Decode(units)); len(run) >= s.minLength {
		v := string(run)
		return &v
	}

	// Fields written by older clients are plain single-byte text; a
	// zero-interleaved read above produces no usable run for those.
	wide := make([]rune, len(b))
	for i, c := range b {
		wide[i] = rune(c)
	}
	if run := longestRun(wide); len(run) >= s.minLength {
		v := string(run)
		return &v
	}
	return nil
}

// longestRun returns the longest contiguous run of ASCII alphanumerics.
// Gamertags are drawn from the ASCII alphabet, which also keeps byte-swapped
// garbage (often valid CJK letters) from passing as names.
func longestRun(rs []rune) []rune {
	var best, cur []rune
	for _, r := range rs {
		if isAlnum(r) {
			cur = append(cur, r)
			if len(cur) > len(best) {
				best = cur
			}
			continue
		}
		cur = nil
	}
	return best
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
