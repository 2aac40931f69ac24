package inflight_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/trendscope/internal/domain/inflight"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGuard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new guard", t, func() {
		g := inflight.NewGuard()

		Convey("Then it should start empty", func() {
			So(g, ShouldNotBeNil)
			So(g.Size(), ShouldEqual, 0)
		})

		Convey("When a form is acquired", func() {
			ok := g.TryAcquire(ctx, "search")

			Convey("Then it should succeed", func() {
				So(ok, ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And the same form is submitted again", func() {
				again := g.TryAcquire(ctx, "search")

				Convey("Then the duplicate should be refused", func() {
					So(again, ShouldBeFalse)
					So(g.Size(), ShouldEqual, 1)
				})
			})

			Convey("And a different form is submitted", func() {
				other := g.TryAcquire(ctx, "insights")

				Convey("Then it should not be blocked", func() {
					So(other, ShouldBeTrue)
					So(g.Size(), ShouldEqual, 2)
				})
			})

			Convey("And the form is released", func() {
				g.Release(ctx, "search")

				Convey("Then it can be acquired again", func() {
					So(g.Size(), ShouldEqual, 0)
					So(g.TryAcquire(ctx, "search"), ShouldBeTrue)
				})
			})
		})

		Convey("When an idle form is released", func() {
			g.Release(ctx, "never")

			Convey("Then nothing changes", func() {
				So(g.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded guard", t, func() {
		g := inflight.NewGuard(inflight.WithMaxSize(2))
		So(g.TryAcquire(ctx, "a"), ShouldBeTrue)
		So(g.TryAcquire(ctx, "b"), ShouldBeTrue)

		Convey("When it is full", func() {
			ok := g.TryAcquire(ctx, "c")

			Convey("Then new forms are refused and busy ones are kept", func() {
				So(ok, ShouldBeFalse)
				So(g.TryAcquire(ctx, "a"), ShouldBeFalse)
				So(g.Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unbounded guard", t, func() {
		g := inflight.NewGuard(inflight.WithMaxSize(0))
		for i := 0; i < 200; i++ {
			g.TryAcquire(ctx, fmt.Sprintf("form-%d", i))
		}
		So(g.Size(), ShouldEqual, 200)
	})
}

func TestGuardConcurrency(t *testing.T) {
	Convey("Given many goroutines racing for one form", t, func() {
		g := inflight.NewGuard()
		var wins atomic.Int64
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if g.TryAcquire(context.Background(), "train") {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one should win", func() {
			So(wins.Load(), ShouldEqual, 1)
		})
	})
}
