// Package format renders diagnostic and statistics tables for the CLI and
// for report methods of the analyzer and optimizer.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "markdown"/"md" to Markdown and anything else to ASCII.
func ParseMode(s string) Mode {
	switch s {
	case "markdown", "md":
		return Markdown
	default:
		return ASCII
	}
}

// Table is a single table under construction.
type Table struct {
	writer table.Writer
	mode   Mode
}

// NewTable returns a table that renders in the given Mode.
func NewTable(m Mode, title string) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	// Footers carry summaries such as "0 errors"; keep their case.
	w.Style().Format.Footer = text.FormatDefault
	if title != "" {
		w.SetTitle(title)
	}
	return &Table{writer: w, mode: m}
}

// Header sets the column headers.
func (t *Table) Header(cols ...string) *Table {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
	return t
}

// Row appends a data row.
func (t *Table) Row(vals ...any) *Table {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
	return t
}

// Footer appends a footer row (e.g. totals).
func (t *Table) Footer(vals ...any) *Table {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
	return t
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(cols ...int) *Table {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		cfgs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	t.writer.SetColumnConfigs(cfgs)
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.writer.Length()
}

// String renders the table in the configured Mode.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}
