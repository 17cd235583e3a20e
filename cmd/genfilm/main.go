// Command genfilm writes synthetic film directories for exercising the
// decoder end to end without access to the statistics service.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/record"
	"github.com/strafelab/filmdec/internal/filmtest"
)

var roster = []struct {
	id   uint64
	name string
}{
	{2533274823041337, "JGtm"},
	{2533274811226688, "NovaStrider"},
	{2533274866613312, "qzt"},
	{2533274840011204, "IronVeil"},
	{2533274852214477, "Dustwake"},
	{2533274869977141, "marrowfox"},
}

var weapons = []uint16{57390, 42110, 30781, 19003}

func main() {
	out := flag.String("out", "films", "output directory")
	matches := flag.Int("matches", 3, "number of matches to generate")
	frags := flag.Int("frags", 24, "frags per match")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	for i := 0; i < *matches; i++ {
		m := buildMatch(rng, fmt.Sprintf("match-%04d", i+1), *frags)
		if err := filmtest.WriteMatchDir(*out, m); err != nil {
			fmt.Fprintln(os.Stderr, "genfilm:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("wrote %d matches under %s\n", *matches, *out)
}

// buildMatch emits one kill and one death record per frag, a couple of
// milliseconds apart, plus interleaved mode records, and tracks the totals
// the validation layer will check against.
func buildMatch(rng *rand.Rand, id string, frags int) filmtest.Match {
	const durationMS = 30 * 60 * 1000

	m := filmtest.Match{
		MatchID:    id,
		DurationMS: durationMS,
		Totals:     make(map[string]model.Totals),
	}

	t := uint32(5000)
	for i := 0; i < frags; i++ {
		killer := roster[rng.Intn(len(roster))]
		victim := roster[rng.Intn(len(roster))]
		for victim.id == killer.id {
			victim = roster[rng.Intn(len(roster))]
		}

		m.Summary = append(m.Summary,
			filmtest.Event{
				Code:        record.CodeKill,
				TimeMS:      t,
				Participant: killer.id,
				Name:        killer.name,
				Weapon:      weapons[rng.Intn(len(weapons))],
			},
			filmtest.Event{
				Code:        record.CodeDeath,
				TimeMS:      t + uint32(rng.Intn(4)),
				Participant: victim.id,
				Name:        victim.name,
			},
		)

		kt := m.Totals[fmt.Sprintf("%d", killer.id)]
		kt.Kills++
		m.Totals[fmt.Sprintf("%d", killer.id)] = kt
		vt := m.Totals[fmt.Sprintf("%d", victim.id)]
		vt.Deaths++
		m.Totals[fmt.Sprintf("%d", victim.id)] = vt

		if i%8 == 0 {
			m.Summary = append(m.Summary, filmtest.Event{
				Code:        record.CodeMode,
				TimeMS:      t + 1,
				Participant: killer.id,
				Name:        killer.name,
			})
		}
		t += uint32(10000 + rng.Intn(20000))
	}
	return m
}
