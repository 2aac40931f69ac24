package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/types"
)

// ComparisonHeader is the first record of a comparison CSV.
var ComparisonHeader = []string{"keyword", "total_volume", "trend_direction", "peak_value"}

// ComparisonRow is one record of a comparison CSV.
type ComparisonRow struct {
	Keyword        string
	TotalVolume    float64
	TrendDirection types.TrendDirection
	PeakValue      float64
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteComparisonCSV writes one row per keyword in the given order.
func WriteComparisonCSV(w io.Writer, stats []compare.Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ComparisonHeader); err != nil {
		return fmt.Errorf("write comparison header: %w", err)
	}
	for _, s := range stats {
		rec := []string{s.Keyword, formatFloat(s.TotalVolume), string(s.TrendDirection), formatFloat(s.PeakValue)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write comparison row %q: %w", s.Keyword, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush comparison: %w", err)
	}
	return nil
}

// ReadComparisonCSV parses a file written by WriteComparisonCSV.
func ReadComparisonCSV(r io.Reader) ([]ComparisonRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ComparisonHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidExport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	for i, h := range ComparisonHeader {
		if header[i] != h {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidExport, i+1, header[i], h)
		}
	}

	var rows []ComparisonRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidExport, line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (ComparisonRow, error) {
	total, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return ComparisonRow{}, fmt.Errorf("total_volume: %w", err)
	}
	dir, err := types.ParseTrendDirection(rec[2])
	if err != nil {
		return ComparisonRow{}, err //nolint:wrapcheck // already names the field value
	}
	peak, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return ComparisonRow{}, fmt.Errorf("peak_value: %w", err)
	}
	return ComparisonRow{Keyword: rec[0], TotalVolume: total, TrendDirection: dir, PeakValue: peak}, nil
}
