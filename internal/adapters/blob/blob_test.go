package blob_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/strafelab/filmdec/internal/adapters/blob"
	"github.com/strafelab/filmdec/internal/domain/model"
	"github.com/strafelab/filmdec/internal/domain/record"
	"github.com/strafelab/filmdec/internal/filmtest"
)

func TestFSStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store over a written match directory", t, func() {
		root := t.TempDir()
		m := filmtest.Match{
			MatchID:    "match-0001",
			DurationMS: 60000,
			Summary: []filmtest.Event{
				{Code: record.CodeKill, TimeMS: 1000, Participant: 1, Name: "JGtm", Weapon: 57390},
			},
			Totals: map[string]model.Totals{"1": {Kills: 1}},
		}
		So(filmtest.WriteMatchDir(root, m), ShouldBeNil)
		store := blob.NewFSStore(root)

		Convey("When listing matches", func() {
			dirs, err := store.ListMatches()

			Convey("Then the match directory is found", func() {
				So(err, ShouldBeNil)
				So(dirs, ShouldResemble, []string{"match-0001"})
			})
		})

		Convey("When reading the manifest", func() {
			job, err := store.ReadManifest("match-0001")

			Convey("Then the job carries the match metadata", func() {
				So(err, ShouldBeNil)
				So(job.MatchID, ShouldEqual, "match-0001")
				So(job.DurationMS, ShouldEqual, 60000)
				So(job.Manifest, ShouldHaveLength, 1)
				So(job.Manifest[0].DeclaredType, ShouldEqual, model.ChunkSummary)
				So(job.Totals["1"].Kills, ShouldEqual, 1)
			})

			Convey("And the blob ref fetches the chunk bytes", func() {
				b, ferr := store.Fetch(ctx, job.Manifest[0].BlobRef)
				So(ferr, ShouldBeNil)
				So(len(b), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When fetching a ref that escapes the root", func() {
			_, err := store.Fetch(ctx, "../outside.bin")

			Convey("Then it is refused", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When fetching an absolute ref", func() {
			_, err := store.Fetch(ctx, "/etc/hostname")

			Convey("Then it is refused", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When reading a manifest that does not exist", func() {
			_, err := store.ReadManifest("match-9999")

			Convey("Then the error names the match", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "match-9999")
			})
		})
	})
}
