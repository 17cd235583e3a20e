// Package filmtest builds synthetic film fixtures: binary payloads shaped
// like real chunk records, their compressed chunk forms, and on-disk match
// directories. It backs the package tests and the genfilm tool.
//
// Names containing characters whose byte value doubles as a marker code
// (for example '2', 'H', 'K') produce additional false-positive candidates
// when scanned, exactly as real payloads do; fixtures that need a clean
// scan should avoid them.
package filmtest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf16"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/record"
)

// Record window geometry mirrored from the scanner.
const (
	windowBack  = 40
	windowAhead = 28
	recordSize  = windowBack + windowAhead
)

// filler is a byte that can never start or continue a marker pattern.
const filler = 0x01

// Event describes one synthetic record.
type Event struct {
	Code        byte
	TimeMS      uint32
	Participant uint64
	Name        string
	Weapon      uint16
}

// BuildPayload lays events out as consecutive records using the given
// offset profile. The first record's marker lands exactly windowBack bytes
// in, so every record is scannable.
func BuildPayload(p record.Profile, events []Event) []byte {
	payload := make([]byte, 0, len(events)*recordSize)
	for _, ev := range events {
		payload = append(payload, buildRecord(p, ev)...)
	}
	return payload
}

func buildRecord(p record.Profile, ev Event) []byte {
	rec := make([]byte, recordSize)
	for i := range rec {
		rec[i] = filler
	}
	marker := windowBack

	copy(rec[marker-p.NameBack:], EncodeName(ev.Name))
	rec[marker] = 0x00
	rec[marker+1] = ev.Code
	rec[marker+2] = 0x00
	p.Order.PutUint32(rec[marker+p.TimeAhead:], ev.TimeMS)
	p.Order.PutUint64(rec[marker+p.PartAhead:], ev.Participant)
	if ev.Code == record.CodeKill && p.HasWeapon() {
		p.Order.PutUint16(rec[marker+p.WeaponAhead:], ev.Weapon)
	}
	return rec
}

// EncodeName renders a name as a null-padded UTF-16LE field of the fixed
// record width.
func EncodeName(name string) []byte {
	field := make([]byte, model.NameFieldSize)
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		if 2*i+1 >= len(field) {
			break
		}
		binary.LittleEndian.PutUint16(field[2*i:], u)
	}
	return field
}

// CompressZlib wraps a payload the way production chunks arrive.
func CompressZlib(payload []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(payload)
	_ = w.Close()
	return buf.Bytes()
}

// CompressGzip wraps a payload in gzip framing, as seen in newer film
// revisions.
func CompressGzip(payload []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(payload)
	_ = w.Close()
	return buf.Bytes()
}

// Match describes a synthetic match directory.
type Match struct {
	MatchID    string
	DurationMS uint32
	Summary    []Event
	Gameplay   []Event
	Totals     map[string]model.Totals
}

// WriteMatchDir writes a match directory with a manifest.json and one
// zlib-compressed chunk file per populated chunk type, in the layout the
// filesystem blob store reads.
func WriteMatchDir(root string, m Match) error {
	dir := filepath.Join(root, m.MatchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create match dir: %w", err)
	}

	type chunkEntry struct {
		ChunkIndex uint32 `json:"chunk_index"`
		Type       string `json:"type"`
		File       string `json:"file"`
	}
	manifest := struct {
		MatchID    string                  `json:"match_id"`
		DurationMS uint32                  `json:"duration_ms"`
		Chunks     []chunkEntry            `json:"chunks"`
		Totals     map[string]model.Totals `json:"totals,omitempty"`
	}{
		MatchID:    m.MatchID,
		DurationMS: m.DurationMS,
		Totals:     m.Totals,
	}

	write := func(idx uint32, typ string, profile record.Profile, events []Event) error {
		name := fmt.Sprintf("chunk_%d.bin", idx)
		data := CompressZlib(BuildPayload(profile, events))
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}
		manifest.Chunks = append(manifest.Chunks, chunkEntry{ChunkIndex: idx, Type: typ, File: name})
		return nil
	}

	idx := uint32(0)
	if len(m.Summary) > 0 {
		if err := write(idx, "summary", record.SummaryV5, m.Summary); err != nil {
			return err
		}
		idx++
	}
	if len(m.Gameplay) > 0 {
		if err := write(idx, "gameplay", record.GameplayV1, m.Gameplay); err != nil {
			return err
		}
	}

	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
