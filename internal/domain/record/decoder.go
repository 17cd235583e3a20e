package record

import (
	"context"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/pkg/logger"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// Bounds holds the plausibility window for decoded timestamps. A decoded
// time outside [0, DurationMS+ToleranceMS] marks a profile as implausible
// for that candidate.
type Bounds struct {
	DurationMS  uint32
	ToleranceMS uint32
}

// Contains reports whether t falls inside the plausibility window.
func (b Bounds) Contains(t uint32) bool {
	return t <= b.DurationMS+b.ToleranceMS
}

// Decode extracts a RawEvent from a candidate window using the given
// profile. It never fails: malformed bytes produce a best-effort RawEvent
// and rejection is deferred to the normalizer.
func Decode(c Candidate, p Profile) model.RawEvent {
	ev := model.RawEvent{Marker: c.Code}

	ev.TimeRaw = p.Order.Uint32(c.payload[c.MarkerOff+p.TimeAhead:])
	ev.ParticipantID = p.Order.Uint64(c.payload[c.MarkerOff+p.PartAhead:])
	copy(ev.NameBytes[:], c.payload[c.MarkerOff-p.NameBack:])

	if c.Code == CodeKill && p.HasWeapon() {
		w := p.Order.Uint16(c.payload[c.MarkerOff+p.WeaponAhead:])
		ev.WeaponRaw = &w
	}
	return ev
}

// SelectProfile trials profiles in priority order against a candidate and
// returns the first whose decoded timestamp falls inside bounds and whose
// participant id bytes are non-zero. The second return reports whether any
// profile was plausible; the third reports ambiguity, meaning a lower
// priority profile also looked plausible but decoded a different timestamp.
func SelectProfile(c Candidate, profiles []Profile, b Bounds) (Profile, bool, bool) {
	var (
		chosen    Profile
		found     bool
		ambiguous bool
	)
	for _, p := range profiles {
		ev := Decode(c, p)
		if !b.Contains(ev.TimeRaw) || ev.ParticipantID == 0 {
			continue
		}
		if !found {
			chosen = p
			found = true
			continue
		}
		if ev.TimeRaw != Decode(c, chosen).TimeRaw {
			ambiguous = true
		}
	}
	return chosen, found, ambiguous
}

// Extractor runs the scan, profile trial, decode loop for one payload.
type Extractor struct {
	scanner *Scanner
	log     logger.Logger
}

// NewExtractor creates an extractor. A nil scanner gets the default code
// set.
func NewExtractor(scanner *Scanner) *Extractor {
	if scanner == nil {
		scanner = NewScanner()
	}
	return &Extractor{
		scanner: scanner,
		log:     logger.Get().Named("record"),
	}
}

// Extract scans payload and decodes every candidate that some profile finds
// plausible. Profile ambiguity is resolved by priority order and logged as a
// warning, never surfaced as an error. ErrNoRecognizedRecords is returned
// when the scan found zero candidate markers; an empty result with a nil
// error means candidates existed but none decoded plausibly.
func (e *Extractor) Extract(ctx context.Context, payload []byte, chunkType model.ChunkType, b Bounds) ([]model.RawEvent, error) {
	profiles := ProfilesFor(chunkType)
	if len(profiles) == 0 {
		return nil, ErrNoRecognizedRecords
	}

	candidates := e.scanner.Scan(payload)
	if len(candidates) == 0 {
		return nil, ErrNoRecognizedRecords
	}

	events := make([]model.RawEvent, 0, len(candidates))
	for _, c := range candidates {
		p, ok, ambiguous := SelectProfile(c, profiles, b)
		if ambiguous {
			metrics.RecordAmbiguousProfile()
			e.log.Warn(ctx, "ambiguous offset profile, priority order wins",
				logger.String("profile", p.Name),
				logger.Int("marker_offset", c.MarkerOff),
			)
		}
		if !ok {
			metrics.RecordCandidateRejected("no_plausible_profile")
			continue
		}
		events = append(events, Decode(c, p))
	}
	return events, nil
}
