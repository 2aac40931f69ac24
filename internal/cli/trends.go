package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/trendscope/internal/app"
	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/pattern"
	"github.com/okian/trendscope/internal/domain/types"
)

// searchFlags select the timeframe and region of a search.
type searchFlags struct {
	timeframe string
	geo       string
	worldwide bool
}

func (f *searchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.timeframe, "timeframe", "t", "", "timeframe, e.g. \"today 3-m\" (default from config)")
	cmd.Flags().StringVarP(&f.geo, "geo", "g", "", "region code, e.g. US or DE-BY (default from config)")
	cmd.Flags().BoolVar(&f.worldwide, "worldwide", false, "sample every region")
}

func (f searchFlags) query(keywords []string) service.SearchQuery {
	return service.SearchQuery{Keywords: keywords, Timeframe: f.timeframe, Geo: f.geo, Worldwide: f.worldwide}
}

func seasonal(s pattern.Summary) string {
	if !s.IsSeasonal() {
		return "-"
	}
	return num(*s.SeasonalStrength)
}

func (a *cliApp) searchCmd() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search KEYWORD...",
		Short: "Fetch and classify the trends of up to five keywords",
		Args:  validArgs(cobra.RangeArgs(1, types.MaxSearchKeywords)),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.svc.Search(cmd.Context(), f.query(args))
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(r, func(t *Table) {
				t.Header("KEYWORD", "POINTS", "AVERAGE", "PEAK", "DIRECTION", "PATTERN", "GROWTH", "VOLATILITY", "SEASONAL")
				for _, s := range r.Stats {
					p := r.Patterns[s.Keyword]
					t.AddRow(
						a.out.Bold(s.Keyword),
						strconv.Itoa(s.Points),
						num(s.Average),
						num(s.PeakValue),
						a.out.Direction(s.TrendDirection),
						a.out.TrendType(p.TrendType),
						percent(p.GrowthRate),
						num(p.Volatility),
						seasonal(p),
					)
				}
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *cliApp) compareCmd() *cobra.Command {
	var f searchFlags
	var by string
	cmd := &cobra.Command{
		Use:   "compare KEYWORD...",
		Short: "Compare keyword statistics side by side",
		Args:  validArgs(cobra.RangeArgs(2, types.MaxSearchKeywords)),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.svc.Compare(cmd.Context(), f.query(args), by)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(stats, func(t *Table) { a.statsTable(t, stats) })
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&by, "by", "", "rank by total_volume, peak_value or volatility")
	return cmd
}

func (a *cliApp) statsTable(t *Table, stats []compare.Stats) {
	t.Header("RANK", "KEYWORD", "TOTAL", "PEAK", "MIN", "AVERAGE", "STD DEV", "SLOPE", "DIRECTION", "VOLATILITY", "PEAK RATIO", "CONSISTENCY")
	for i, s := range stats {
		t.AddRow(
			strconv.Itoa(i+1),
			a.out.Bold(s.Keyword),
			num(s.TotalVolume),
			num(s.PeakValue),
			num(s.MinValue),
			num(s.Average),
			num(s.StdDev),
			num(s.TrendSlope),
			a.out.Direction(s.TrendDirection),
			num(s.Volatility),
			num(s.PeakRatio),
			percent(s.Consistency*100),
		)
	}
}

func (a *cliApp) predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict KEYWORD",
		Short: "Categorize a keyword with the ML ensemble",
		Args:  validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.Predict(cmd.Context(), args[0])
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			if p.Prediction.Error != "" {
				a.out.Warning("prediction unavailable: %s", p.Prediction.Error)
			}
			return a.out.Render(p, func(t *Table) {
				t.Header("MODEL", "CATEGORY", "CONFIDENCE")
				t.AddRow(a.out.Bold("ensemble"), p.Prediction.PredictedCategory, percent(p.Prediction.Confidence*100))
				names := make([]string, 0, len(p.Prediction.IndividualPredictions))
				for name := range p.Prediction.IndividualPredictions {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					conf := "-"
					if c, ok := p.Prediction.IndividualConfidences[name]; ok {
						conf = percent(c * 100)
					}
					t.AddRow(name, p.Prediction.IndividualPredictions[name], conf)
				}
			})
		},
	}
}

func (a *cliApp) insightsCmd() *cobra.Command {
	var timeframe string
	var top int
	cmd := &cobra.Command{
		Use:   "insights KEYWORD...",
		Short: "Show the server's insights over keywords",
		Args:  validArgs(cobra.RangeArgs(1, types.MaxSearchKeywords)),
		RunE: func(cmd *cobra.Command, args []string) error {
			insights, err := a.svc.Insights(cmd.Context(), args, timeframe)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			sort.SliceStable(insights, func(i, j int) bool { return insights[i].Confidence > insights[j].Confidence })
			if top > 0 && len(insights) > top {
				insights = insights[:top]
			}
			return a.out.Render(insights, func(t *Table) { a.insightTable(t, insights) })
		},
	}
	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "timeframe (default from config)")
	cmd.Flags().IntVar(&top, "top", 0, "show only the most confident insights")
	return cmd
}

func (a *cliApp) insightTable(t *Table, insights []model.Insight) {
	t.Header("TYPE", "KEYWORD", "CONFIDENCE", "DESCRIPTION")
	for _, in := range insights {
		desc := in.Description
		if in.Title != "" {
			desc = in.Title + ": " + desc
		}
		t.AddRow(string(in.Type), a.out.Bold(in.Keyword), percent(in.Confidence*100), desc)
	}
}

func (a *cliApp) publicCmd() *cobra.Command {
	var f searchFlags
	var ml bool
	cmd := &cobra.Command{
		Use:   "public KEYWORD",
		Short: "Fetch one keyword without logging in",
		Args:  validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.svc.PublicTrend(cmd.Context(), args[0], f.query(nil), ml)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(r, func(t *Table) {
				t.Header("FIELD", "VALUE")
				t.AddRow("keyword", a.out.Bold(r.Trend.Keyword))
				t.AddRow("timeframe", string(r.Trend.Timeframe))
				t.AddRow("geo", r.Trend.Geo.String())
				t.AddRow("points", strconv.Itoa(len(r.Trend.Values)))
				t.AddRow("pattern", a.out.TrendType(r.Pattern.TrendType))
				t.AddRow("growth", percent(r.Pattern.GrowthRate))
				t.AddRow("volatility", num(r.Pattern.Volatility))
				t.AddRow("seasonal", seasonal(r.Pattern))
				if m := r.Trend.MLInsights; m != nil {
					t.AddRow("avg interest", num(m.AvgInterest))
					t.AddRow("direction", a.out.Direction(m.TrendDirection))
				}
				t.AddRow("recent", sparkline(r.Trend.Values))
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&ml, "ml", false, "include ML features")
	return cmd
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the last values as block characters scaled to their range.
func sparkline(values []float64) string {
	const width = 30
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return "-"
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		b.WriteRune(sparks[i])
	}
	return b.String()
}
