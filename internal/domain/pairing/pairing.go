// Package pairing matches Kill and Death records into killer/victim pairs.
//
// Matching is greedy first-fit in time-ascending order rather than an
// optimal bipartite assignment: real telemetry rarely produces ambiguous
// close ties, each frag emits exactly one kill and one death record, and a
// consumed death is never reassigned to a closer kill discovered later.
package pairing

import (
	"sort"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// DefaultToleranceMS is the maximum millisecond gap between a kill and its
// matching death record. Empirically the two records of one frag land within
// a handful of milliseconds of each other.
const DefaultToleranceMS = 5

// Engine pairs kills with deaths for a single match.
type Engine struct {
	toleranceMS uint32
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTolerance sets the pairing tolerance in milliseconds.
func WithTolerance(ms uint32) Option {
	return func(e *Engine) {
		e.toleranceMS = ms
	}
}

// New creates a pairing engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		toleranceMS: DefaultToleranceMS,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ToleranceMS returns the configured pairing tolerance.
func (e *Engine) ToleranceMS() uint32 {
	return e.toleranceMS
}

// Pair consumes one match's normalized event stream and emits validated
// (killer, victim, time, weapon) tuples. Each death is consumed at most
// once. Kills with no matching death are dropped: they represent kills
// whose victim's own death record could not be decoded. Self-pairing is
// never emitted.
func (e *Engine) Pair(matchID string, events []model.GameEvent) []model.KillerVictimPair {
	var kills, deaths []model.GameEvent
	for _, ev := range events {
		switch ev.Type {
		case model.EventKill:
			kills = append(kills, ev)
		case model.EventDeath:
			deaths = append(deaths, ev)
		}
	}
	sort.SliceStable(kills, func(i, j int) bool { return kills[i].TimeMS < kills[j].TimeMS })
	sort.SliceStable(deaths, func(i, j int) bool { return deaths[i].TimeMS < deaths[j].TimeMS })

	consumed := make([]bool, len(deaths))
	pairs := make([]model.KillerVictimPair, 0, len(kills))

	for _, kill := range kills {
		best := -1
		var bestDelta uint32
		for j, death := range deaths {
			if consumed[j] {
				continue
			}
			if death.TimeMS > kill.TimeMS+e.toleranceMS {
				// Deaths are time-ascending; nothing further can match.
				break
			}
			delta := absDelta(kill.TimeMS, death.TimeMS)
			if delta > e.toleranceMS {
				continue
			}
			if death.ParticipantID == kill.ParticipantID {
				continue
			}
			// Ties break toward the smallest absolute delta; on equal
			// deltas the earliest death wins by scan order.
			if best == -1 || delta < bestDelta {
				best = j
				bestDelta = delta
			}
		}
		if best == -1 {
			metrics.RecordUnpairedKill()
			continue
		}
		consumed[best] = true
		victim := deaths[best]
		pairs = append(pairs, model.KillerVictimPair{
			MatchID:    matchID,
			KillerID:   kill.ParticipantID,
			KillerName: deref(kill.DisplayName),
			VictimID:   victim.ParticipantID,
			VictimName: deref(victim.DisplayName),
			TimeMS:     kill.TimeMS,
			WeaponID:   kill.WeaponID,
		})
		metrics.RecordPairEmitted()
	}
	return pairs
}

func absDelta(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
