package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/okian/trendscope/internal/config"
	"github.com/okian/trendscope/internal/domain/pattern"
	"github.com/okian/trendscope/internal/domain/types"
)

// Printer renders command results to stdout and messages to stderr.
type Printer struct {
	out       io.Writer
	err       io.Writer
	format    string
	useColors bool
}

// NewPrinter builds a printer for the given output format and color mode.
func NewPrinter(out, errOut io.Writer, format, colorMode string) *Printer {
	return &Printer{
		out:       out,
		err:       errOut,
		format:    format,
		useColors: resolveColors(colorMode),
	}
}

// resolveColors decides whether to color output. Auto defers to fatih/color,
// which already honors NO_COLOR, TERM=dumb and a non-terminal stdout.
func resolveColors(mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		return !color.NoColor
	}
}

// Render writes v as JSON or YAML, or calls table for the table format.
func (p *Printer) Render(v any, table func(t *Table)) error {
	switch p.format {
	case config.OutputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		return p.renderYAML(v)
	default:
		t := NewTable(p.out)
		table(t)
		return t.Render()
	}
}

// renderYAML goes through JSON so keys match the API field names.
func (p *Printer) renderYAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	if err := enc.Encode(numbers(doc)); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// numbers turns json.Number leaves into ints or floats for the YAML encoder.
func numbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = numbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = numbers(e)
		}
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	}
	return v
}

// Structured reports whether the output is machine readable.
func (p *Printer) Structured() bool {
	return p.format == config.OutputJSON || p.format == config.OutputYAML
}

// Success prints a confirmation. It is suppressed for structured output.
func (p *Printer) Success(format string, args ...interface{}) {
	if p.Structured() {
		return
	}
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
	}
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
	}
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
	}
}

// Status colors.
var (
	okColor    = []color.Attribute{color.FgGreen}
	errorColor = []color.Attribute{color.FgRed}
)

func (p *Printer) paint(s string, attrs ...color.Attribute) string {
	if !p.useColors {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// TrendType colors a pattern classification.
func (p *Printer) TrendType(t pattern.TrendType) string {
	switch t {
	case pattern.Volatile:
		return p.paint(string(t), color.FgRed)
	case pattern.Exponential:
		return p.paint(string(t), color.FgMagenta, color.Bold)
	case pattern.Linear:
		return p.paint(string(t), color.FgCyan)
	case pattern.Seasonal:
		return p.paint(string(t), color.FgBlue)
	default:
		return p.paint(string(t), color.Faint)
	}
}

// Direction colors a trend direction.
func (p *Printer) Direction(d types.TrendDirection) string {
	switch d {
	case types.DirectionRising:
		return p.paint("▲ "+string(d), color.FgGreen)
	case types.DirectionFalling:
		return p.paint("▼ "+string(d), color.FgRed)
	default:
		return p.paint("● "+string(d), color.FgYellow)
	}
}

// Bold returns text in bold
func (p *Printer) Bold(text string) string {
	return p.paint(text, color.Bold)
}

// Table collects rows and renders them with tablewriter.
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a borderless, left-aligned table writing to w.
func NewTable(w io.Writer) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
	return &Table{table: table}
}

// Header sets the column titles.
func (t *Table) Header(cols ...string) {
	t.header = cols
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render outputs the table
func (t *Table) Render() error {
	if len(t.header) > 0 {
		t.table.Header(t.header)
	}
	if err := t.table.Bulk(t.rows); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if err := t.table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func percent(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" }
