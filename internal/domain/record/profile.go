package record

import (
	"encoding/binary"

	"github.com/strafelab/filmdec/internal/domain/model"
)

// Profile is a named set of byte-offset and byte-order rules for extracting
// fields from a candidate record. Field locations were recovered empirically
// by cross-referencing decoded timestamps and participant ids against known
// ground truth; they are not derivable from the container format itself.
// Profiles are tried in a fixed priority order per chunk type, and additions
// are additive so each profile stays unit-testable in isolation.
type Profile struct {
	Name string

	// Order is the byte order for every multi-byte integer in the record.
	// All shipped profiles are little-endian; the field exists so that a
	// big-endian profile, should cross-validation ever prove one, is an
	// additive change rather than a rewrite.
	Order binary.ByteOrder

	// NameBack is the distance back from the marker to the start of the
	// fixed 32-byte display-name field.
	NameBack int

	// TimeAhead is the distance forward from the marker start to the
	// uint32 millisecond timestamp.
	TimeAhead int

	// PartAhead is the distance forward from the marker start to the
	// uint64 participant identifier.
	PartAhead int

	// WeaponAhead is the distance forward from the marker start to the
	// uint16 weapon identifier. Negative when the layout has no weapon
	// field (gameplay chunks).
	WeaponAhead int
}

// HasWeapon reports whether the profile's layout carries a weapon field.
func (p Profile) HasWeapon() bool {
	return p.WeaponAhead >= 0
}

// Shipped offset profiles, highest priority first within each chunk type.
var (
	// SummaryV5 is the current summary-chunk layout: timestamp directly
	// after the 3-byte marker, participant id after it, weapon id twelve
	// bytes past the end of the timestamp field.
	SummaryV5 = Profile{
		Name:        "summary_v5",
		Order:       binary.LittleEndian,
		NameBack:    36,
		TimeAhead:   3,
		PartAhead:   7,
		WeaponAhead: 19,
	}

	// SummaryV4 is the pre-revision summary layout, shifted four bytes by
	// an extra header word.
	SummaryV4 = Profile{
		Name:        "summary_v4",
		Order:       binary.LittleEndian,
		NameBack:    40,
		TimeAhead:   7,
		PartAhead:   11,
		WeaponAhead: 23,
	}

	// GameplayV1 is the gameplay-chunk layout. It shares the summary_v5
	// field positions but has no weapon field.
	GameplayV1 = Profile{
		Name:        "gameplay_v1",
		Order:       binary.LittleEndian,
		NameBack:    36,
		TimeAhead:   3,
		PartAhead:   7,
		WeaponAhead: -1,
	}
)

// ProfilesFor returns the trial order of profiles for a chunk type.
// Bootstrap chunks have no event records and get none.
func ProfilesFor(t model.ChunkType) []Profile {
	switch t {
	case model.ChunkSummary:
		return []Profile{SummaryV5, SummaryV4}
	case model.ChunkGameplay:
		return []Profile{GameplayV1}
	default:
		return nil
	}
}
