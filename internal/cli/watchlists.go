package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/trendscope/internal/domain/model"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usage("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

func when(t model.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func (a *cliApp) watchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage watchlists",
	}
	cmd.AddCommand(
		a.watchlistListCmd(),
		a.watchlistCreateCmd(),
		a.watchlistUpdateCmd(),
		a.watchlistDeleteCmd(),
		a.watchlistAnalyzeCmd(),
	)
	return cmd
}

func (a *cliApp) watchlistTable(t *Table, lists []model.Watchlist) {
	t.Header("ID", "NAME", "CATEGORY", "KEYWORDS", "STATUS", "UPDATED")
	for _, w := range lists {
		t.AddRow(
			strconv.FormatInt(w.ID, 10),
			a.out.Bold(w.Name),
			w.Category,
			strings.Join(w.Keywords, ", "),
			w.Status(),
			when(w.UpdatedAt),
		)
	}
}

func (a *cliApp) watchlistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active watchlists",
		Args:    validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			lists, err := a.svc.ListWatchlists(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			return a.out.Render(lists, func(t *Table) { a.watchlistTable(t, lists) })
		},
	}
}

// watchlistFlags are the editable fields of a watchlist.
type watchlistFlags struct {
	name        string
	description string
	category    string
	keywords    []string
	active      bool
	public      bool
}

func (f *watchlistFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "watchlist name")
	cmd.Flags().StringVar(&f.description, "description", "", "free text description")
	cmd.Flags().StringVar(&f.category, "category", "", "category, e.g. technology")
	cmd.Flags().StringSliceVarP(&f.keywords, "keywords", "k", nil, "keywords, comma separated or repeated")
	cmd.Flags().BoolVar(&f.public, "public", false, "share the watchlist")
}

// input builds the request body. Flags the user did not set stay nil or empty.
func (f *watchlistFlags) input(cmd *cobra.Command) model.WatchlistInput {
	in := model.WatchlistInput{
		Name:        f.name,
		Description: f.description,
		Category:    f.category,
	}
	if cmd.Flags().Changed("keywords") {
		in.Keywords = f.keywords
		if in.Keywords == nil {
			in.Keywords = []string{}
		}
	}
	if cmd.Flags().Changed("public") {
		in.IsPublic = &f.public
	}
	if cmd.Flags().Lookup("active") != nil && cmd.Flags().Changed("active") {
		in.IsActive = &f.active
	}
	return in
}

func (a *cliApp) watchlistCreateCmd() *cobra.Command {
	var f watchlistFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a watchlist",
		Example: `  trendscope watchlist create --name langs --category technology -k golang,rust,zig`,
		Args: validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.svc.CreateWatchlist(cmd.Context(), f.input(cmd))
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("Created watchlist %d", w.ID)
			return a.out.Render(w, func(t *Table) { a.watchlistTable(t, []model.Watchlist{w}) })
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *cliApp) watchlistUpdateCmd() *cobra.Command {
	var f watchlistFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a watchlist",
		Args:  validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			w, err := a.svc.UpdateWatchlist(cmd.Context(), id, f.input(cmd))
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("Updated watchlist %d", w.ID)
			return a.out.Render(w, func(t *Table) { a.watchlistTable(t, []model.Watchlist{w}) })
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&f.active, "active", true, "pause (false) or resume (true) the watchlist")
	return cmd
}

func (a *cliApp) watchlistDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a watchlist",
		Args:    validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteWatchlist(cmd.Context(), id); err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("Deleted watchlist %d", id)
			return nil
		},
	}
}

func (a *cliApp) watchlistAnalyzeCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "analyze [ID...]",
		Short: "Run the ML analysis over watchlists",
		Long: `Analyze the given watchlists, or every active one with --all.
Several watchlists are analyzed concurrently (analyze_concurrency). A
failing watchlist does not stop the others; the command exits non-zero
when any of them failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return usage("give watchlist ids or --all, not both or neither")
			}
			ids := make([]int64, 0, len(args))
			for _, s := range args {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			outcomes, err := a.svc.AnalyzeWatchlists(cmd.Context(), ids)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
			}
			if err := a.out.Render(outcomes, func(t *Table) {
				t.Header("WATCHLIST", "STATUS", "ANALYSIS", "KEYWORDS", "ERROR")
				for _, o := range outcomes {
					if o.Analysis == nil {
						t.AddRow(strconv.FormatInt(o.WatchlistID, 10), a.out.paint("failed", errorColor...), "-", "-", o.Error)
						continue
					}
					t.AddRow(
						strconv.FormatInt(o.WatchlistID, 10),
						a.out.paint("analyzed", okColor...),
						strconv.FormatInt(o.Analysis.AnalysisID, 10),
						keywordSummary(o.Analysis.Results),
						"",
					)
				}
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d watchlist analyses failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "analyze every active watchlist")
	return cmd
}

// keywordSummary counts the analyzed keywords of a watchlist analysis.
func keywordSummary(results map[string]model.KeywordAnalysis) string {
	ok := 0
	for _, r := range results {
		if r.Status == model.KeywordAnalyzed {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d", ok, len(results))
}
