package pairing_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/pairing"
)

func kill(id string, t uint32, weapon uint16) model.GameEvent {
	return model.GameEvent{Type: model.EventKill, TimeMS: t, ParticipantID: id, WeaponID: &weapon}
}

func death(id string, t uint32) model.GameEvent {
	return model.GameEvent{Type: model.EventDeath, TimeMS: t, ParticipantID: id}
}

func TestPair(t *testing.T) {
	Convey("Given an engine with the default tolerance", t, func() {
		e := pairing.New()

		Convey("When a kill at 45000 meets a death at 45003", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("7777", 45000, 57390),
				death("8888", 45003),
			})

			Convey("Then exactly one pair is emitted at the kill's timestamp", func() {
				So(pairs, ShouldHaveLength, 1)
				So(pairs[0].KillerID, ShouldEqual, "7777")
				So(pairs[0].VictimID, ShouldEqual, "8888")
				So(pairs[0].TimeMS, ShouldEqual, 45000)
				So(pairs[0].WeaponID, ShouldNotBeNil)
				So(*pairs[0].WeaponID, ShouldEqual, 57390)
				So(pairs[0].MatchID, ShouldEqual, "m1")
			})
		})

		Convey("When two kills compete for one death", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				kill("2", 1002, 20),
				death("3", 1001),
			})

			Convey("Then the death is consumed once, by the earlier kill", func() {
				So(pairs, ShouldHaveLength, 1)
				So(pairs[0].KillerID, ShouldEqual, "1")
				So(pairs[0].VictimID, ShouldEqual, "3")
				So(pairs[0].TimeMS, ShouldEqual, 1000)
			})
		})

		Convey("When the nearest death belongs to the killer", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				death("1", 1000),
				death("2", 1003),
			})

			Convey("Then the self-death is skipped for the next candidate", func() {
				So(pairs, ShouldHaveLength, 1)
				So(pairs[0].VictimID, ShouldEqual, "2")
			})
		})

		Convey("When the only death belongs to the killer", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				death("1", 1001),
			})

			Convey("Then no pair is emitted", func() {
				So(pairs, ShouldBeEmpty)
			})
		})

		Convey("When a kill has no death within tolerance", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				death("2", 1006),
			})

			Convey("Then the kill is dropped", func() {
				So(pairs, ShouldBeEmpty)
			})
		})

		Convey("When two equidistant deaths are available", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1002, 10),
				death("2", 1000),
				death("3", 1004),
			})

			Convey("Then the earlier death wins the tie", func() {
				So(pairs, ShouldHaveLength, 1)
				So(pairs[0].VictimID, ShouldEqual, "2")
			})
		})

		Convey("When two frags land in the same window", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				death("2", 1001),
				kill("3", 1002, 20),
				death("4", 1003),
			})

			Convey("Then each kill pairs with its nearest death", func() {
				So(pairs, ShouldHaveLength, 2)
				So(pairs[0].KillerID, ShouldEqual, "1")
				So(pairs[0].VictimID, ShouldEqual, "2")
				So(pairs[1].KillerID, ShouldEqual, "3")
				So(pairs[1].VictimID, ShouldEqual, "4")
			})
		})

		Convey("When the stream has no kill or death events", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				{Type: model.EventMode, TimeMS: 1, ParticipantID: "1"},
				{Type: model.EventMedal, TimeMS: 2, ParticipantID: "2"},
			})

			Convey("Then nothing is emitted", func() {
				So(pairs, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an engine with zero tolerance", t, func() {
		e := pairing.New(pairing.WithTolerance(0))

		Convey("When kill and death are one millisecond apart", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				death("2", 1001),
			})

			Convey("Then they do not pair", func() {
				So(pairs, ShouldBeEmpty)
			})
		})

		Convey("When kill and death share a millisecond", func() {
			pairs := e.Pair("m1", []model.GameEvent{
				kill("1", 1000, 10),
				death("2", 1000),
			})

			Convey("Then they pair", func() {
				So(pairs, ShouldHaveLength, 1)
			})
		})
	})
}
