package cli

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/trendscope/internal/domain/model"
)

const dateLayout = time.DateOnly

func (a *cliApp) analysesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "Browse stored analyses",
	}
	cmd.AddCommand(a.analysesListCmd(), a.analysesGetCmd())
	return cmd
}

func (a *cliApp) analysisTable(t *Table, list []model.Analysis) {
	t.Header("ID", "TITLE", "TYPE", "KEYWORDS", "CREATED")
	for _, an := range list {
		t.AddRow(
			strconv.FormatInt(an.ID, 10),
			a.out.Bold(an.Title),
			an.AnalysisType,
			strings.Join(an.Keywords, ", "),
			when(an.CreatedAt),
		)
	}
}

func (a *cliApp) analysesListCmd() *cobra.Command {
	var f model.AnalysisFilter
	var from, to string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored analyses",
		Args:    validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if from != "" {
				if f.From, err = time.Parse(dateLayout, from); err != nil {
					return usage("invalid --from %q: want YYYY-MM-DD", from)
				}
			}
			if to != "" {
				if f.To, err = time.Parse(dateLayout, to); err != nil {
					return usage("invalid --to %q: want YYYY-MM-DD", to)
				}
				// Include the whole day.
				f.To = f.To.Add(24*time.Hour - time.Second)
			}
			page, err := a.svc.ListAnalyses(cmd.Context(), f)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			if err := a.out.Render(page, func(t *Table) { a.analysisTable(t, page.Analyses) }); err != nil {
				return err
			}
			if !a.out.Structured() && page.Count > len(page.Analyses) {
				a.out.Warning("showing %d of %d; use --offset %d for more", len(page.Analyses), page.Count, page.Offset+len(page.Analyses))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Type, "type", "", "analysis type, e.g. watchlist_analysis")
	cmd.Flags().StringVar(&f.Status, "status", "", "analysis status")
	cmd.Flags().StringVar(&from, "from", "", "created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "created on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Sort, "sort", "", "newest, oldest or title")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "page size (at most 100)")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "entries to skip")
	return cmd
}

func (a *cliApp) analysesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one stored analysis",
		Args:  validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			an, err := a.svc.GetAnalysis(cmd.Context(), id)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(an, func(t *Table) {
				a.analysisTable(t, []model.Analysis{an})
				results, err := an.WatchlistResults()
				if err != nil || len(results) == 0 {
					return
				}
				keywords := make([]string, 0, len(results))
				for k := range results {
					keywords = append(keywords, k)
				}
				sort.Strings(keywords)
				t.AddRow("", "", "", "", "")
				t.AddRow("KEYWORD", "STATUS", "CATEGORY", "CONFIDENCE", "ERROR")
				for _, k := range keywords {
					r := results[k]
					category, confidence := "-", "-"
					if r.Prediction != nil && r.Prediction.Error == "" {
						category = r.Prediction.PredictedCategory
						confidence = percent(r.Prediction.Confidence * 100)
					}
					t.AddRow(a.out.Bold(k), r.Status, category, confidence, r.Error)
				}
			})
		},
	}
}

func (a *cliApp) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the per-user overview",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.svc.Dashboard(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(d, func(t *Table) {
				t.Header("FIELD", "VALUE")
				t.AddRow("watchlists", strconv.Itoa(d.Counts.Watchlists))
				t.AddRow("analyses", strconv.Itoa(d.Counts.Analyses))
				t.AddRow("alerts", strconv.Itoa(d.Counts.Alerts))
				t.AddRow("ml models", a.modelsLine(d.MLStatus))
				for _, an := range d.RecentAnalyses {
					t.AddRow("recent", "#"+strconv.FormatInt(an.ID, 10)+" "+an.Title+" ("+when(an.CreatedAt)+")")
				}
			})
		},
	}
}

func (a *cliApp) modelsLine(s model.MLStatus) string {
	if !s.ModelsAvailable {
		return a.out.paint("unavailable", errorColor...)
	}
	return a.out.paint(strconv.Itoa(s.ModelCount)+" loaded", okColor...)
}

func (a *cliApp) mlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ml",
		Short: "Inspect and retrain the ML models",
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show which models are loaded",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.svc.ModelStatus(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(s, func(t *Table) {
				t.Header("FIELD", "VALUE")
				t.AddRow("models", a.modelsLine(s))
				t.AddRow("names", strings.Join(s.ModelNames, ", "))
				t.AddRow("categories", strings.Join(s.Categories, ", "))
			})
		},
	}
	train := &cobra.Command{
		Use:   "train",
		Short: "Retrain the models",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.svc.TrainModels(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			if a.out.Structured() {
				return a.out.Render(r, nil)
			}
			took := time.Duration(r.TrainingTimeMS * float64(time.Millisecond)).Round(time.Millisecond)
			a.out.Success("%s (took %s)", r.Message, took)
			return nil
		},
	}
	cmd.AddCommand(status, train)
	return cmd
}
