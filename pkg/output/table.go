package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TableWriter collects rows and renders them aligned.
type TableWriter struct {
	writer    *tabwriter.Writer
	headers   []string
	rows      [][]string
	separator string
}

// NewTableTo creates a table writing to w.
func NewTableTo(w io.Writer) *TableWriter {
	return &TableWriter{
		writer:    tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		separator: "-",
	}
}

// WithHeaders sets the column headers.
func (t *TableWriter) WithHeaders(headers ...string) *TableWriter {
	t.headers = headers
	return t
}

// AddRow adds one row; short rows are padded with empty cells.
func (t *TableWriter) AddRow(values ...string) *TableWriter {
	t.rows = append(t.rows, values)
	return t
}

// Render writes headers, an underline and all rows, then flushes.
func (t *TableWriter) Render() error {
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, strings.Join(t.headers, "\t"))
		underline := make([]string, len(t.headers))
		for i, h := range t.headers {
			underline[i] = strings.Repeat(t.separator, len(h))
		}
		fmt.Fprintln(t.writer, strings.Join(underline, "\t"))
	}

	for _, row := range t.rows {
		if pad := len(t.headers) - len(row); pad > 0 {
			row = append(row, make([]string, pad)...)
		}
		fmt.Fprintln(t.writer, strings.Join(row, "\t"))
	}
	return t.writer.Flush()
}
