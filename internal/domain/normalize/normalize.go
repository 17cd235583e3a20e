// Package normalize maps decoded records into the closed set of typed game
// events.
//
// The scanner and decoder stay permissive so that no plausible record is
// lost to an overly strict early stage; this package is the single point
// where garbage candidates are finally discarded.
package normalize

import (
	"strconv"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/record"
	"github.com/strafelab/filmdec/internal/domain/sanitize"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// Normalizer converts RawEvents into GameEvents.
type Normalizer struct {
	sanitizer *sanitize.Sanitizer
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithSanitizer sets the display-name sanitizer.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(n *Normalizer) {
		if s != nil {
			n.sanitizer = s
		}
	}
}

// New creates a normalizer with configuration options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		sanitizer: sanitize.New(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps a raw event to a game event, or nil when the record fails
// a structural sanity check: unknown marker, timestamp outside the match
// bounds, or missing participant id. A kill weapon of exactly zero means
// "no weapon determined" and maps to nil, never to a fabricated id.
func (n *Normalizer) Normalize(raw model.RawEvent, b record.Bounds) *model.GameEvent {
	t, ok := eventType(raw.Marker)
	if !ok {
		metrics.RecordEventRejected("unknown_marker")
		return nil
	}
	if !b.Contains(raw.TimeRaw) {
		metrics.RecordEventRejected("time_out_of_bounds")
		return nil
	}
	if raw.ParticipantID == 0 {
		metrics.RecordEventRejected("no_participant")
		return nil
	}

	ev := &model.GameEvent{
		Type:          t,
		TimeMS:        raw.TimeRaw,
		ParticipantID: strconv.FormatUint(raw.ParticipantID, 10),
		DisplayName:   n.sanitizer.Name(raw.NameBytes),
	}
	if t == model.EventKill && raw.WeaponRaw != nil && *raw.WeaponRaw != 0 {
		w := *raw.WeaponRaw
		ev.WeaponID = &w
	}
	metrics.RecordEventNormalized(t.String())
	return ev
}

// NormalizeAll maps a batch, dropping rejected records.
func (n *Normalizer) NormalizeAll(raws []model.RawEvent, b record.Bounds) []model.GameEvent {
	events := make([]model.GameEvent, 0, len(raws))
	for _, raw := range raws {
		if ev := n.Normalize(raw, b); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

func eventType(marker byte) (model.EventType, bool) {
	switch marker {
	case record.CodeKill:
		return model.EventKill, true
	case record.CodeDeath, record.CodeDeathAlt:
		return model.EventDeath, true
	case record.CodeAssist:
		return model.EventAssist, true
	case record.CodeMedal:
		return model.EventMedal, true
	case record.CodeMode:
		return model.EventMode, true
	default:
		return 0, false
	}
}
