package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/strafelab/filmdec/internal/adapters/mq/queue"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			ok1 := q.Enqueue(ctx, queue.Job{MatchID: "m1"})
			ok2 := q.Enqueue(ctx, queue.Job{MatchID: "m2"})

			Convey("Then both jobs are accepted", func() {
				So(ok1, ShouldBeTrue)
				So(ok2, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a third job is refused without blocking", func() {
				So(q.Enqueue(ctx, queue.Job{MatchID: "m3"}), ShouldBeFalse)
			})
		})

		Convey("When dequeuing", func() {
			q.Enqueue(ctx, queue.Job{MatchID: "m1"})
			jobs := q.Dequeue(ctx)

			Convey("Then jobs come out in order", func() {
				j := <-jobs
				So(j.MatchID, ShouldEqual, "m1")
			})
		})

		Convey("When the queue is closed", func() {
			q.Enqueue(ctx, queue.Job{MatchID: "m1"})
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Job{MatchID: "m2"}), ShouldBeFalse)
			})

			Convey("And the dequeue channel drains then closes", func() {
				jobs := q.Dequeue(ctx)
				j, ok := <-jobs
				So(ok, ShouldBeTrue)
				So(j.MatchID, ShouldEqual, "m1")

				select {
				case _, ok := <-jobs:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("dequeue channel did not close")
				}
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When the consumer context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			jobs := q.Dequeue(cctx)
			cancel()
			q.Enqueue(ctx, queue.Job{MatchID: "m1"})
			q.Close()

			Convey("Then the dequeue channel closes without delivering", func() {
				select {
				case _, ok := <-jobs:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("dequeue channel did not close")
				}
			})
		})
	})
}
