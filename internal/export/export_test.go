package export_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/pattern"
	"github.com/okian/trendscope/internal/domain/types"
	"github.com/okian/trendscope/internal/export"
	. "github.com/smartystreets/goconvey/convey"
)

func weekly() []float64 {
	week := []float64{100, 120, 140, 120, 100, 80, 60}
	var out []float64
	for i := 0; i < 4; i++ {
		out = append(out, week...)
	}
	return append(out, 100)
}

func sampleSearch() (model.SearchRequest, model.SearchResponse) {
	req := model.SearchRequest{Keywords: []string{"rust", "go", "zig"}, Timeframe: types.Timeframe12Months, Geo: "US"}
	resp := model.SearchResponse{
		"go":     {Values: []float64{10, 20, 30, 40, 50}},
		"rust":   {SearchVolume: weekly()},
		"python": {Values: []float64{100, 0, 0, 0, 0}},
	}
	return req, resp
}

func TestBuildAnalysis(t *testing.T) {
	Convey("Given a search result and insights", t, func() {
		req, resp := sampleSearch()
		insights := []model.Insight{
			{Type: types.InsightSpike, Keyword: "go", Confidence: 0.4},
			{Type: types.InsightDip, Keyword: "python", Confidence: 0.9},
			{Type: types.InsightSeasonal, Keyword: "rust", Confidence: 0.7},
		}

		e := export.BuildAnalysis("langs", req, resp, insights, 2)

		Convey("Then requested keywords come first and extras follow sorted", func() {
			So(e.Keywords, ShouldResemble, []string{"rust", "go", "python"})
			So(e.Version, ShouldEqual, export.FormatVersion)
		})

		Convey("Then statistics follow keyword order", func() {
			So(len(e.Statistics), ShouldEqual, 3)
			So(e.Statistics[1].Keyword, ShouldEqual, "go")
			So(e.Statistics[1].TotalVolume, ShouldEqual, 150)
		})

		Convey("Then every keyword has a pattern summary", func() {
			goPattern, ok := e.Pattern("go")
			So(ok, ShouldBeTrue)
			So(goPattern.TrendType, ShouldEqual, pattern.Exponential)

			rust, _ := e.Pattern("rust")
			So(rust.TrendType, ShouldEqual, pattern.Seasonal)
			So(rust.SeasonalStrength, ShouldNotBeNil)

			py, _ := e.Pattern("python")
			So(py.TrendType, ShouldEqual, pattern.Volatile)
			So(py.GrowthRate, ShouldEqual, -100)
		})

		Convey("Then only the most confident insights are kept", func() {
			So(len(e.Insights), ShouldEqual, 2)
			So(e.Insights[0].Keyword, ShouldEqual, "python")
			So(e.Insights[1].Keyword, ShouldEqual, "rust")
		})
	})

	Convey("Given topN of zero", t, func() {
		ins := export.TopInsights([]model.Insight{{Confidence: 0.1}, {Confidence: 0.2}}, 0)
		So(len(ins), ShouldEqual, 2)
		So(ins[0].Confidence, ShouldEqual, 0.2)
	})
}

func TestJSONRoundTrip(t *testing.T) {
	Convey("Given an analysis export", t, func() {
		req, resp := sampleSearch()
		e := export.BuildAnalysis("langs", req, resp, nil, 5)

		var buf bytes.Buffer
		So(export.WriteJSON(&buf, e), ShouldBeNil)

		Convey("When it is read back", func() {
			got, err := export.ReadJSON(&buf)

			Convey("Then keywords, volumes and classifications survive", func() {
				So(err, ShouldBeNil)
				So(got.Keywords, ShouldResemble, e.Keywords)
				for i := range e.Statistics {
					So(got.Statistics[i].TotalVolume, ShouldEqual, e.Statistics[i].TotalVolume)
				}
				for _, k := range e.Keywords {
					want, _ := e.Pattern(k)
					have, ok := got.Pattern(k)
					So(ok, ShouldBeTrue)
					So(have.TrendType, ShouldEqual, want.TrendType)
					So(have.IsSeasonal(), ShouldEqual, want.IsSeasonal())
				}
				So(got.ExportedAt.Equal(e.ExportedAt), ShouldBeTrue)
			})
		})

		Convey("Then non-seasonal patterns omit the strength field", func() {
			So(buf.String(), ShouldContainSubstring, `"trend_type": "exponential"`)
			So(strings.Count(buf.String(), "seasonal_strength"), ShouldEqual, 1)
		})
	})

	Convey("Given malformed input", t, func() {
		_, err := export.ReadJSON(strings.NewReader(`{"keywords":`))
		So(errors.Is(err, export.ErrInvalidExport), ShouldBeTrue)

		_, err = export.ReadJSON(strings.NewReader(`{"version":99}`))
		So(errors.Is(err, export.ErrInvalidExport), ShouldBeTrue)
	})
}

func TestComparisonCSV(t *testing.T) {
	Convey("Given comparison statistics", t, func() {
		stats := []compare.Stats{
			compare.Compute("go", []float64{10, 20, 30}),
			compare.Compute("cobol, legacy", []float64{9.5, 7, 5}),
		}

		var buf bytes.Buffer
		So(export.WriteComparisonCSV(&buf, stats), ShouldBeNil)

		Convey("Then the header is fixed", func() {
			So(strings.SplitN(buf.String(), "\n", 2)[0], ShouldEqual, "keyword,total_volume,trend_direction,peak_value")
		})

		Convey("When it is read back", func() {
			rows, err := export.ReadComparisonCSV(&buf)

			Convey("Then every row matches", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].TotalVolume, ShouldEqual, 60)
				So(rows[0].TrendDirection, ShouldEqual, types.DirectionRising)
				So(rows[1].Keyword, ShouldEqual, "cobol, legacy")
				So(rows[1].PeakValue, ShouldEqual, 9.5)
				So(rows[1].TrendDirection, ShouldEqual, types.DirectionFalling)
			})
		})
	})

	Convey("Given invalid CSV input", t, func() {
		_, err := export.ReadComparisonCSV(strings.NewReader(""))
		So(errors.Is(err, export.ErrInvalidExport), ShouldBeTrue)

		_, err = export.ReadComparisonCSV(strings.NewReader("name,total,dir,peak\n"))
		So(errors.Is(err, export.ErrInvalidExport), ShouldBeTrue)

		_, err = export.ReadComparisonCSV(strings.NewReader("keyword,total_volume,trend_direction,peak_value\ngo,abc,rising,1\n"))
		So(errors.Is(err, export.ErrInvalidExport), ShouldBeTrue)

		_, err = export.ReadComparisonCSV(strings.NewReader("keyword,total_volume,trend_direction,peak_value\ngo,1,sideways,1\n"))
		So(errors.Is(err, export.ErrInvalidExport), ShouldBeTrue)
	})
}
