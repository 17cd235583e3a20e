// Package model contains domain models passed between pipeline stages.
package model

import "strconv"

// ChunkType is the declared type of a film chunk in a match manifest.
type ChunkType int

// Known chunk types. Summary chunks carry the per-kill weapon field;
// Gameplay chunks carry movement/state records without it.
const (
	ChunkBootstrap ChunkType = iota
	ChunkGameplay
	ChunkSummary
)

// String returns the manifest spelling of the chunk type.
func (t ChunkType) String() string {
	switch t {
	case ChunkBootstrap:
		return "bootstrap"
	case ChunkGameplay:
		return "gameplay"
	case ChunkSummary:
		return "summary"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseChunkType maps a manifest type tag to a ChunkType.
// The second return is false for tags outside the three known values.
func ParseChunkType(s string) (ChunkType, bool) {
	switch s {
	case "bootstrap":
		return ChunkBootstrap, true
	case "gameplay":
		return ChunkGameplay, true
	case "summary":
		return ChunkSummary, true
	default:
		return 0, false
	}
}

// ChunkManifestEntry describes one retrievable chunk of a match's film.
// Produced by the network client; read-only to the decode core.
type ChunkManifestEntry struct {
	ChunkIndex   uint32    `json:"chunk_index"`
	DeclaredType ChunkType `json:"declared_type"`
	BlobRef      string    `json:"blob_ref"`
}

// RawChunk is an owned byte buffer plus its declared type. It lives for a
// single decode call and is never persisted.
type RawChunk struct {
	DeclaredType ChunkType
	Data         []byte
}

// EventType is the closed set of normalized gameplay event variants.
type EventType int

const (
	EventKill EventType = iota
	EventDeath
	EventAssist
	EventMedal
	EventMode
)

func (t EventType) String() string {
	switch t {
	case EventKill:
		return "kill"
	case EventDeath:
		return "death"
	case EventAssist:
		return "assist"
	case EventMedal:
		return "medal"
	case EventMode:
		return "mode"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// NameFieldSize is the fixed width of the raw display-name field that
// precedes every event marker.
const NameFieldSize = 32

// RawEvent is a decoded but unvalidated record. The decoder always produces
// one; rejection happens in the normalizer.
type RawEvent struct {
	Marker        byte
	TimeRaw       uint32
	ParticipantID uint64
	NameBytes     [NameFieldSize]byte
	// WeaponRaw is only populated for kill-marker records decoded from a
	// profile that carries the weapon field.
	WeaponRaw *uint16
}

// GameEvent is a normalized gameplay event. Immutable once produced and
// scoped to a single match's decode pass. WeaponID is only ever present on
// Kill events.
type GameEvent struct {
	Type          EventType `json:"type"`
	TimeMS        uint32    `json:"time_ms"`
	ParticipantID string    `json:"participant_id"`
	DisplayName   *string   `json:"display_name,omitempty"`
	WeaponID      *uint16   `json:"weapon_id,omitempty"`
}

// KillerVictimPair is a reconstructed killer/victim relationship built from
// temporally coincident Kill and Death records. KillerID != VictimID always
// holds; self-inflicted deaths are never paired.
type KillerVictimPair struct {
	MatchID     string  `json:"match_id"`
	KillerID    string  `json:"killer_id"`
	KillerName  string  `json:"killer_name,omitempty"`
	VictimID    string  `json:"victim_id"`
	VictimName  string  `json:"victim_name,omitempty"`
	TimeMS      uint32  `json:"time_ms"`
	WeaponID    *uint16 `json:"weapon_id,omitempty"`
	IsValidated bool    `json:"is_validated"`
}

// Totals holds a participant's authoritative kill and death counts for one
// match, sourced from the service's own summary stats.
type Totals struct {
	Kills  int `json:"kills"`
	Deaths int `json:"deaths"`
}

// MatchJob is one unit of decode work for the worker pool.
type MatchJob struct {
	JobID      string
	MatchID    string
	Manifest   []ChunkManifestEntry
	DurationMS uint32
	// Totals is optional; when nil every pair is emitted unvalidated.
	Totals map[string]Totals
}

// MatchResult is the replaceable output of one match's decode pass. Both
// lists can fully replace any previously stored lists for the match.
type MatchResult struct {
	MatchID string             `json:"match_id"`
	Events  []GameEvent        `json:"events"`
	Pairs   []KillerVictimPair `json:"pairs"`
	// NoRecords distinguishes "no reconstructable events for this match"
	// from a match that genuinely has zero kills.
	NoRecords     bool `json:"no_records"`
	Discrepancies int  `json:"discrepancies"`
}
