package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/trendscope/internal/domain/types"
)

func (a *cliApp) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analyses and comparisons to files",
	}
	cmd.AddCommand(a.exportJSONCmd(), a.exportCSVCmd())
	return cmd
}

// withOutput runs write against path, or stdout when path is empty or "-".
func (a *cliApp) withOutput(path string, write func(w io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(a.stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return write(f)
}

func (a *cliApp) exportJSONCmd() *cobra.Command {
	var f searchFlags
	var title, out string
	cmd := &cobra.Command{
		Use:   "json KEYWORD...",
		Short: "Export a trend analysis as JSON",
		Long: `Search the keywords and write an analysis file with per-keyword
statistics, pattern summaries and, when logged in, the most confident
insights.`,
		Args: validArgs(cobra.RangeArgs(1, types.MaxSearchKeywords)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var keywords int
			err := a.withOutput(out, func(w io.Writer) error {
				e, err := a.svc.ExportAnalysis(cmd.Context(), w, title, f.query(args))
				keywords = len(e.Keywords)
				return err //nolint:wrapcheck // rendered by report
			})
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				a.out.Success("Wrote analysis of %d keywords to %s", keywords, out)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&title, "title", "", "analysis title (default joins the keywords)")
	cmd.Flags().StringVarP(&out, "file", "f", "", "output file (default stdout)")
	return cmd
}

func (a *cliApp) exportCSVCmd() *cobra.Command {
	var f searchFlags
	var by, out string
	cmd := &cobra.Command{
		Use:   "csv KEYWORD...",
		Short: "Export a keyword comparison as CSV",
		Args:  validArgs(cobra.RangeArgs(1, types.MaxSearchKeywords)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows int
			err := a.withOutput(out, func(w io.Writer) error {
				stats, err := a.svc.ExportComparison(cmd.Context(), w, f.query(args), by)
				rows = len(stats)
				return err //nolint:wrapcheck // rendered by report
			})
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				a.out.Success("Wrote %d rows to %s", rows, out)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&by, "by", "", "rank by total_volume, peak_value or volatility")
	cmd.Flags().StringVarP(&out, "file", "f", "", "output file (default stdout)")
	return cmd
}

