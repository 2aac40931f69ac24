package types_test

import (
	"errors"
	"testing"

	types "github.com/okian/trendscope/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTimeframe(t *testing.T) {
	Convey("Given the timeframe enumeration", t, func() {
		Convey("When parsing every supported value", func() {
			Convey("Then each should round trip", func() {
				for _, tf := range types.Timeframes() {
					got, err := types.ParseTimeframe(string(tf))
					So(err, ShouldBeNil)
					So(got, ShouldEqual, tf)
				}
			})
		})

		Convey("When parsing with surrounding whitespace", func() {
			got, err := types.ParseTimeframe("  today 3-m ")

			Convey("Then it should be trimmed", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, types.Timeframe3Months)
			})
		})

		Convey("When parsing an unknown value", func() {
			_, err := types.ParseTimeframe("last tuesday")

			Convey("Then ErrInvalidTimeframe should be returned", func() {
				So(errors.Is(err, types.ErrInvalidTimeframe), ShouldBeTrue)
			})
		})
	})
}

func TestGeo(t *testing.T) {
	Convey("Given region codes", t, func() {
		Convey("When the code is empty", func() {
			g, err := types.ParseGeo("")

			Convey("Then it should mean worldwide", func() {
				So(err, ShouldBeNil)
				So(g, ShouldEqual, types.Worldwide)
				So(g.String(), ShouldEqual, "worldwide")
			})
		})

		Convey("When the code is lower case with a subdivision", func() {
			g, err := types.ParseGeo("us-ca")

			Convey("Then it should be normalized", func() {
				So(err, ShouldBeNil)
				So(g, ShouldEqual, types.Geo("US-CA"))
			})
		})

		Convey("When the code is malformed", func() {
			_, err := types.ParseGeo("United States")

			Convey("Then ErrInvalidGeo should be returned", func() {
				So(errors.Is(err, types.ErrInvalidGeo), ShouldBeTrue)
			})
		})
	})
}

func TestTrendDirection(t *testing.T) {
	Convey("Given direction labels", t, func() {
		d, err := types.ParseTrendDirection("Rising")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, types.DirectionRising)

		_, err = types.ParseTrendDirection("sideways")
		So(errors.Is(err, types.ErrInvalidDirection), ShouldBeTrue)
	})
}

func TestNormalizeKeywords(t *testing.T) {
	Convey("Given a keyword list", t, func() {
		Convey("When it has blanks and duplicates", func() {
			got, err := types.NormalizeKeywords([]string{" golang ", "", "rust", "Golang", "  "})

			Convey("Then they should be dropped keeping the first spelling", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []string{"golang", "rust"})
			})
		})

		Convey("When it is empty", func() {
			_, err := types.NormalizeKeywords([]string{" "})

			Convey("Then ErrInvalidKeywords should be returned", func() {
				So(errors.Is(err, types.ErrInvalidKeywords), ShouldBeTrue)
			})
		})

		Convey("When it has more than five keywords", func() {
			_, err := types.NormalizeKeywords([]string{"a", "b", "c", "d", "e", "f"})

			Convey("Then ErrInvalidKeywords should be returned", func() {
				So(errors.Is(err, types.ErrInvalidKeywords), ShouldBeTrue)
			})
		})
	})
}
