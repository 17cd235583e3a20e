// Package validate cross-checks reconstructed pair counts against the
// match's authoritative per-participant kill and death totals.
//
// Validation is advisory, never blocking: a failed check leaves pairs
// unvalidated and surfaces a discrepancy count so downstream consumers can
// choose to trust or discount the match's reconstruction. It never prevents
// persistence.
package validate

import (
	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/pkg/metrics"
)

// tally is one participant's reconstructed counts.
type tally struct {
	kills  int
	deaths int
}

// Apply compares the aggregate counts implied by pairs against the supplied
// authoritative totals. A participant whose reconstructed kill and death
// counts both match exactly gets every pair involving them marked
// IsValidated. It returns the updated pairs and the number of participants
// whose totals disagree. A nil totals map leaves every pair unvalidated
// with zero discrepancies.
func Apply(pairs []model.KillerVictimPair, totals map[string]model.Totals) ([]model.KillerVictimPair, int) {
	if len(totals) == 0 {
		return pairs, 0
	}

	recon := make(map[string]tally)
	for _, p := range pairs {
		k := recon[p.KillerID]
		k.kills++
		recon[p.KillerID] = k

		v := recon[p.VictimID]
		v.deaths++
		recon[p.VictimID] = v
	}

	agreed := make(map[string]bool, len(totals))
	discrepancies := 0
	for id, want := range totals {
		got := recon[id]
		if got.kills == want.Kills && got.deaths == want.Deaths {
			agreed[id] = true
			continue
		}
		discrepancies++
		metrics.RecordValidationMismatch()
	}

	for i := range pairs {
		if agreed[pairs[i].KillerID] || agreed[pairs[i].VictimID] {
			pairs[i].IsValidated = true
		}
	}
	return pairs, discrepancies
}
