package compare_test

import (
	"testing"

	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	Convey("Given a rising series", t, func() {
		s := compare.Compute("golang", []float64{10, 20, 30, 40, 50})

		Convey("Then totals, extremes and direction should match", func() {
			So(s.Keyword, ShouldEqual, "golang")
			So(s.Points, ShouldEqual, 5)
			So(s.TotalVolume, ShouldEqual, 150)
			So(s.PeakValue, ShouldEqual, 50)
			So(s.MinValue, ShouldEqual, 10)
			So(s.Average, ShouldEqual, 30)
			So(s.TrendSlope, ShouldAlmostEqual, 10)
			So(s.TrendDirection, ShouldEqual, types.DirectionRising)
			So(s.PeakRatio, ShouldAlmostEqual, 50.0/30.0)
			So(s.Consistency, ShouldAlmostEqual, 0.4)
		})
	})

	Convey("Given a falling series", t, func() {
		s := compare.Compute("cobol", []float64{9, 7, 5, 3})

		Convey("Then the direction is falling", func() {
			So(s.TrendSlope, ShouldAlmostEqual, -2)
			So(s.TrendDirection, ShouldEqual, types.DirectionFalling)
		})
	})

	Convey("Given a flat series", t, func() {
		s := compare.Compute("steady", []float64{4, 4, 4, 4})

		Convey("Then it is stable with no volatility", func() {
			So(s.TrendDirection, ShouldEqual, types.DirectionStable)
			So(s.Volatility, ShouldEqual, 0)
			So(s.Consistency, ShouldEqual, 0)
		})
	})

	Convey("Given an empty or all-zero series", t, func() {
		empty := compare.Compute("none", nil)
		zeros := compare.Compute("zero", []float64{0, 0, 0})

		Convey("Then nothing divides by zero", func() {
			So(empty.TotalVolume, ShouldEqual, 0)
			So(empty.TrendDirection, ShouldEqual, types.DirectionStable)
			So(zeros.Volatility, ShouldEqual, 0)
			So(zeros.PeakRatio, ShouldEqual, 0)
		})
	})
}

func TestCompareAndRank(t *testing.T) {
	Convey("Given a search result", t, func() {
		set := map[string]model.TrendSeries{
			"go":   {Values: []float64{10, 20, 30}},
			"rust": {SearchVolume: []float64{50, 60, 70}},
		}

		stats := compare.Compare([]string{"go", "rust", "zig"}, set)

		Convey("Then the caller's keyword order is kept", func() {
			So(len(stats), ShouldEqual, 3)
			So(stats[0].Keyword, ShouldEqual, "go")
			So(stats[1].TotalVolume, ShouldEqual, 180)
			So(stats[2].Points, ShouldEqual, 0)
		})

		Convey("When ranking by total volume", func() {
			compare.Rank(stats, compare.ByTotalVolume)

			Convey("Then the largest comes first", func() {
				So(stats[0].Keyword, ShouldEqual, "rust")
				So(stats[2].Keyword, ShouldEqual, "zig")
			})
		})

		Convey("When ranking by an unknown key", func() {
			compare.Rank(stats, "alphabet")

			Convey("Then the order is unchanged", func() {
				So(stats[0].Keyword, ShouldEqual, "go")
			})
		})
	})

	Convey("Given the slope helper", t, func() {
		So(compare.LinearSlope([]float64{5}), ShouldEqual, 0)
		So(compare.Direction(1e-12), ShouldEqual, types.DirectionStable)
	})
}
