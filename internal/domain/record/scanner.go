// Package record locates and decodes event records inside decompressed film
// payloads.
//
// Records are found by a 3-byte marker pattern rather than a fixed stride:
// valid records are not always aligned to simple offsets, so the scanner
// slides over the payload looking for [0x00, code, 0x00] and emits a
// fixed-size candidate window around each hit. Field extraction then trials
// a small set of empirically derived offset profiles per chunk type.
package record

import (
	"github.com/strafelab/filmdec/pkg/metrics"
)

// Marker event codes observed in film payloads. Kill and the two
// death-class codes are the load-bearing ones; mode, medal and assist ride
// the summary chunk's auxiliary record class and decode without a weapon
// field.
const (
	CodeKill     byte = 0x32
	CodeDeath    byte = 0x14
	CodeDeathAlt byte = 0x20
	CodeMode     byte = 0x48
	CodeMedal    byte = 0x4b
	CodeAssist   byte = 0x2f
)

// Candidate window geometry. The window must cover the 32-byte name field of
// the deepest profile before the marker and the weapon field of the widest
// profile after it.
const (
	windowBack  = 40
	windowAhead = 28
)

// Candidate is a byte-offset window into a decompressed payload, tagged with
// the marker code that triggered its detection. Many candidates are false
// positives and are discarded during profile trial or normalization.
type Candidate struct {
	MarkerOff int
	Code      byte

	payload []byte
}

// Scanner locates candidate event records in a payload.
type Scanner struct {
	codes map[byte]struct{}
}

// Option applies a configuration option to the Scanner.
type Option func(*Scanner)

// WithCodes replaces the set of marker codes the scanner recognizes.
func WithCodes(codes ...byte) Option {
	return func(s *Scanner) {
		if len(codes) == 0 {
			return
		}
		s.codes = make(map[byte]struct{}, len(codes))
		for _, c := range codes {
			s.codes[c] = struct{}{}
		}
	}
}

// NewScanner creates a scanner recognizing the full known code set.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		codes: map[byte]struct{}{
			CodeKill:     {},
			CodeDeath:    {},
			CodeDeathAlt: {},
			CodeMode:     {},
			CodeMedal:    {},
			CodeAssist:   {},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns every candidate record window in payload. A marker offset is
// emitted at most once even when candidate windows overlap, and two records
// sharing the same millisecond are both kept. Markers too close to either
// edge of the payload cannot hold a complete record and are skipped.
func (s *Scanner) Scan(payload []byte) []Candidate {
	var out []Candidate
	if len(payload) < windowBack+windowAhead {
		return out
	}
	for i := windowBack; i+windowAhead <= len(payload); i++ {
		if payload[i] != 0x00 || payload[i+2] != 0x00 {
			continue
		}
		if _, ok := s.codes[payload[i+1]]; !ok {
			continue
		}
		out = append(out, Candidate{
			MarkerOff: i,
			Code:      payload[i+1],
			payload:   payload,
		})
	}
	metrics.RecordCandidatesScanned(len(out))
	return out
}
