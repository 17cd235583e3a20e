package record_test

import (
	"context"
	"errors"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/record"
	"github.com/strafelab/filmdec/internal/filmtest"
	"github.com/strafelab/filmdec/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func TestScanner(t *testing.T) {
	Convey("Given a payload holding three records", t, func() {
		payload := filmtest.BuildPayload(record.SummaryV5, []filmtest.Event{
			{Code: record.CodeKill, TimeMS: 45000, Participant: 7777, Name: "JGtm", Weapon: 57390},
			{Code: record.CodeDeath, TimeMS: 45003, Participant: 8888, Name: "qzt"},
			{Code: record.CodeMode, TimeMS: 45003, Participant: 7777, Name: "JGtm"},
		})
		s := record.NewScanner()

		Convey("When scanning", func() {
			candidates := s.Scan(payload)

			Convey("Then each marker is found exactly once", func() {
				So(candidates, ShouldHaveLength, 3)
				So(candidates[0].Code, ShouldEqual, record.CodeKill)
				So(candidates[1].Code, ShouldEqual, record.CodeDeath)
				So(candidates[2].Code, ShouldEqual, record.CodeMode)

				seen := map[int]bool{}
				for _, c := range candidates {
					So(seen[c.MarkerOff], ShouldBeFalse)
					seen[c.MarkerOff] = true
				}
			})

			Convey("And two records sharing a millisecond are both kept", func() {
				b := record.Bounds{DurationMS: 60000, ToleranceMS: 5}
				ev1 := record.Decode(candidates[1], record.SummaryV5)
				ev2 := record.Decode(candidates[2], record.SummaryV5)
				So(ev1.TimeRaw, ShouldEqual, ev2.TimeRaw)
				So(b.Contains(ev1.TimeRaw), ShouldBeTrue)
			})
		})
	})

	Convey("Given a marker too close to the payload edge", t, func() {
		payload := make([]byte, 80)
		for i := range payload {
			payload[i] = 0x01
		}
		// Marker at offset 10 leaves no room for the name field before it.
		payload[10] = 0x00
		payload[11] = record.CodeKill
		payload[12] = 0x00

		Convey("When scanning", func() {
			candidates := record.NewScanner().Scan(payload)

			Convey("Then it is skipped", func() {
				So(candidates, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a scanner restricted to kill markers", t, func() {
		payload := filmtest.BuildPayload(record.SummaryV5, []filmtest.Event{
			{Code: record.CodeKill, TimeMS: 1000, Participant: 1, Name: "JGtm", Weapon: 1},
			{Code: record.CodeDeath, TimeMS: 1001, Participant: 2, Name: "qzt"},
		})

		Convey("When scanning", func() {
			candidates := record.NewScanner(record.WithCodes(record.CodeKill)).Scan(payload)

			Convey("Then only kill candidates are emitted", func() {
				So(candidates, ShouldHaveLength, 1)
				So(candidates[0].Code, ShouldEqual, record.CodeKill)
			})
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("Given a kill record with weapon bytes 0x2E 0xE0", t, func() {
		payload := filmtest.BuildPayload(record.SummaryV5, []filmtest.Event{
			{Code: record.CodeKill, TimeMS: 45000, Participant: 7777, Name: "JGtm", Weapon: 57390},
		})

		// The little-endian weapon field is laid down as [0x2E, 0xE0].
		So(payload[40+record.SummaryV5.WeaponAhead], ShouldEqual, 0x2e)
		So(payload[40+record.SummaryV5.WeaponAhead+1], ShouldEqual, 0xe0)

		Convey("When decoding with the summary_v5 profile", func() {
			candidates := record.NewScanner().Scan(payload)
			So(candidates, ShouldHaveLength, 1)
			ev := record.Decode(candidates[0], record.SummaryV5)

			Convey("Then the weapon id decodes to 57390", func() {
				So(ev.WeaponRaw, ShouldNotBeNil)
				So(*ev.WeaponRaw, ShouldEqual, 57390)
			})

			Convey("And timestamp, participant and name survive", func() {
				So(ev.TimeRaw, ShouldEqual, 45000)
				So(ev.ParticipantID, ShouldEqual, 7777)
				So(ev.Marker, ShouldEqual, record.CodeKill)
				So(ev.NameBytes[:8], ShouldResemble, filmtest.EncodeName("JGtm")[:8])
			})
		})
	})

	Convey("Given a death record", t, func() {
		payload := filmtest.BuildPayload(record.SummaryV5, []filmtest.Event{
			{Code: record.CodeDeath, TimeMS: 45003, Participant: 8888, Name: "qzt"},
		})

		Convey("When decoding", func() {
			candidates := record.NewScanner().Scan(payload)
			So(candidates, ShouldHaveLength, 1)
			ev := record.Decode(candidates[0], record.SummaryV5)

			Convey("Then no weapon is extracted", func() {
				So(ev.WeaponRaw, ShouldBeNil)
			})
		})
	})

	Convey("Given a kill record in a gameplay chunk", t, func() {
		payload := filmtest.BuildPayload(record.GameplayV1, []filmtest.Event{
			{Code: record.CodeKill, TimeMS: 1000, Participant: 42, Name: "qzt", Weapon: 999},
		})

		Convey("When decoding with the gameplay profile", func() {
			candidates := record.NewScanner().Scan(payload)
			So(candidates, ShouldHaveLength, 1)
			ev := record.Decode(candidates[0], record.GameplayV1)

			Convey("Then the layout carries no weapon field", func() {
				So(record.GameplayV1.HasWeapon(), ShouldBeFalse)
				So(ev.WeaponRaw, ShouldBeNil)
				So(ev.TimeRaw, ShouldEqual, 1000)
			})
		})
	})
}

func TestSelectProfile(t *testing.T) {
	bounds := record.Bounds{DurationMS: 60000, ToleranceMS: 5}
	profiles := record.ProfilesFor(model.ChunkSummary)

	Convey("Given a record written in the summary_v4 layout", t, func() {
		payload := filmtest.BuildPayload(record.SummaryV4, []filmtest.Event{
			{Code: record.CodeKill, TimeMS: 30000, Participant: 5555, Name: "JGtm", Weapon: 123},
		})

		Convey("When trialing profiles in priority order", func() {
			candidates := record.NewScanner().Scan(payload)
			So(candidates, ShouldHaveLength, 1)
			p, ok, ambiguous := record.SelectProfile(candidates[0], profiles, bounds)

			Convey("Then the v4 profile is chosen without ambiguity", func() {
				So(ok, ShouldBeTrue)
				So(ambiguous, ShouldBeFalse)
				So(p.Name, ShouldEqual, record.SummaryV4.Name)
				So(record.Decode(candidates[0], p).TimeRaw, ShouldEqual, 30000)
			})
		})
	})

	Convey("Given a window where two profiles decode different plausible timestamps", t, func() {
		payload := make([]byte, 68)
		for i := range payload {
			payload[i] = 0x01
		}
		payload[40] = 0x00
		payload[41] = record.CodeKill
		payload[42] = 0x00
		// summary_v5 time = 1000, summary_v4 time = 2000, both in bounds.
		copy(payload[43:], []byte{0xe8, 0x03, 0x00, 0x00})
		copy(payload[47:], []byte{0xd0, 0x07, 0x00, 0x00})
		copy(payload[51:], []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05})

		Convey("When trialing profiles", func() {
			candidates := record.NewScanner().Scan(payload)
			So(candidates, ShouldHaveLength, 1)
			p, ok, ambiguous := record.SelectProfile(candidates[0], profiles, bounds)

			Convey("Then priority order wins and ambiguity is reported", func() {
				So(ok, ShouldBeTrue)
				So(ambiguous, ShouldBeTrue)
				So(p.Name, ShouldEqual, record.SummaryV5.Name)
			})
		})
	})

	Convey("Given a candidate no profile finds plausible", t, func() {
		payload := filmtest.BuildPayload(record.SummaryV5, []filmtest.Event{
			{Code: record.CodeKill, TimeMS: 500000, Participant: 1, Name: "JGtm", Weapon: 1},
		})

		Convey("When trialing against tight bounds", func() {
			candidates := record.NewScanner().Scan(payload)
			So(candidates, ShouldHaveLength, 1)
			_, ok, _ := record.SelectProfile(candidates[0], profiles, record.Bounds{DurationMS: 1000, ToleranceMS: 5})

			Convey("Then no profile is selected", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestExtractor(t *testing.T) {
	ctx := context.Background()
	bounds := record.Bounds{DurationMS: 60000, ToleranceMS: 5}

	Convey("Given an extractor", t, func() {
		e := record.NewExtractor(nil)

		Convey("When the payload holds decodable records", func() {
			payload := filmtest.BuildPayload(record.SummaryV5, []filmtest.Event{
				{Code: record.CodeKill, TimeMS: 45000, Participant: 7777, Name: "JGtm", Weapon: 57390},
				{Code: record.CodeDeath, TimeMS: 45003, Participant: 8888, Name: "qzt"},
			})
			events, err := e.Extract(ctx, payload, model.ChunkSummary, bounds)

			Convey("Then every record is decoded", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
				So(events[0].TimeRaw, ShouldEqual, 45000)
				So(events[1].TimeRaw, ShouldEqual, 45003)
			})

			Convey("And extraction is deterministic", func() {
				again, err := e.Extract(ctx, payload, model.ChunkSummary, bounds)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, events)
			})
		})

		Convey("When the payload has no markers at all", func() {
			payload := make([]byte, 256)
			for i := range payload {
				payload[i] = 0x01
			}
			_, err := e.Extract(ctx, payload, model.ChunkSummary, bounds)

			Convey("Then it reports no recognized records", func() {
				So(errors.Is(err, record.ErrNoRecognizedRecords), ShouldBeTrue)
			})
		})

		Convey("When the chunk type has no profiles", func() {
			_, err := e.Extract(ctx, []byte{}, model.ChunkBootstrap, bounds)

			Convey("Then it reports no recognized records", func() {
				So(errors.Is(err, record.ErrNoRecognizedRecords), ShouldBeTrue)
			})
		})
	})
}
