package normalize_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/normalize"
	"github.com/strafelab/filmdec/internal/domain/record"
	"github.com/strafelab/filmdec/internal/filmtest"
)

func named(name string) [model.NameFieldSize]byte {
	var out [model.NameFieldSize]byte
	copy(out[:], filmtest.EncodeName(name))
	return out
}

func TestNormalizer(t *testing.T) {
	bounds := record.Bounds{DurationMS: 60000, ToleranceMS: 5}

	Convey("Given a normalizer with default options", t, func() {
		n := normalize.New()

		Convey("When normalizing a kill record", func() {
			w := uint16(57390)
			ev := n.Normalize(model.RawEvent{
				Marker:        record.CodeKill,
				TimeRaw:       45000,
				ParticipantID: 7777,
				NameBytes:     named("JGtm"),
				WeaponRaw:     &w,
			}, bounds)

			Convey("Then a Kill event with clean fields is produced", func() {
				So(ev, ShouldNotBeNil)
				So(ev.Type, ShouldEqual, model.EventKill)
				So(ev.TimeMS, ShouldEqual, 45000)
				So(ev.ParticipantID, ShouldEqual, "7777")
				So(ev.DisplayName, ShouldNotBeNil)
				So(*ev.DisplayName, ShouldEqual, "JGtm")
				So(ev.WeaponID, ShouldNotBeNil)
				So(*ev.WeaponID, ShouldEqual, 57390)
			})
		})

		Convey("When a kill record carries a weapon of exactly zero", func() {
			w := uint16(0)
			ev := n.Normalize(model.RawEvent{
				Marker:        record.CodeKill,
				TimeRaw:       1000,
				ParticipantID: 7777,
				WeaponRaw:     &w,
			}, bounds)

			Convey("Then no weapon id is fabricated", func() {
				So(ev, ShouldNotBeNil)
				So(ev.WeaponID, ShouldBeNil)
			})
		})

		Convey("When normalizing the death-class markers", func() {
			a := n.Normalize(model.RawEvent{Marker: record.CodeDeath, TimeRaw: 1, ParticipantID: 1}, bounds)
			b := n.Normalize(model.RawEvent{Marker: record.CodeDeathAlt, TimeRaw: 1, ParticipantID: 1}, bounds)

			Convey("Then both map to Death", func() {
				So(a, ShouldNotBeNil)
				So(a.Type, ShouldEqual, model.EventDeath)
				So(b, ShouldNotBeNil)
				So(b.Type, ShouldEqual, model.EventDeath)
			})
		})

		Convey("When normalizing mode, medal and assist markers", func() {
			mode := n.Normalize(model.RawEvent{Marker: record.CodeMode, TimeRaw: 1, ParticipantID: 1}, bounds)
			medal := n.Normalize(model.RawEvent{Marker: record.CodeMedal, TimeRaw: 1, ParticipantID: 1}, bounds)
			assist := n.Normalize(model.RawEvent{Marker: record.CodeAssist, TimeRaw: 1, ParticipantID: 1}, bounds)

			Convey("Then each maps to its own variant without weapons", func() {
				So(mode.Type, ShouldEqual, model.EventMode)
				So(medal.Type, ShouldEqual, model.EventMedal)
				So(assist.Type, ShouldEqual, model.EventAssist)
				So(mode.WeaponID, ShouldBeNil)
			})
		})

		Convey("When the marker is not a known value", func() {
			ev := n.Normalize(model.RawEvent{Marker: 0x99, TimeRaw: 1, ParticipantID: 1}, bounds)

			Convey("Then the record is rejected, not guessed", func() {
				So(ev, ShouldBeNil)
			})
		})

		Convey("When the timestamp exceeds the match duration plus tolerance", func() {
			ok := n.Normalize(model.RawEvent{Marker: record.CodeKill, TimeRaw: 60005, ParticipantID: 1}, bounds)
			bad := n.Normalize(model.RawEvent{Marker: record.CodeKill, TimeRaw: 60006, ParticipantID: 1}, bounds)

			Convey("Then the boundary is inclusive", func() {
				So(ok, ShouldNotBeNil)
				So(bad, ShouldBeNil)
			})
		})

		Convey("When the record has no participant id", func() {
			ev := n.Normalize(model.RawEvent{Marker: record.CodeKill, TimeRaw: 1}, bounds)

			Convey("Then the record is dropped", func() {
				So(ev, ShouldBeNil)
			})
		})

		Convey("When normalizing a batch with garbage mixed in", func() {
			events := n.NormalizeAll([]model.RawEvent{
				{Marker: record.CodeKill, TimeRaw: 100, ParticipantID: 1},
				{Marker: 0x55, TimeRaw: 200, ParticipantID: 2},
				{Marker: record.CodeDeath, TimeRaw: 300, ParticipantID: 3},
			}, bounds)

			Convey("Then only structurally sane records survive", func() {
				So(events, ShouldHaveLength, 2)
				So(events[0].Type, ShouldEqual, model.EventKill)
				So(events[1].Type, ShouldEqual, model.EventDeath)
			})
		})
	})
}
