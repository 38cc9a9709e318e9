// Package render prints result tables as CSV, aligned text or a bordered grid.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/verte-zerg/pcrtt/internal/model"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatText = "text"
	FormatGrid = "grid"
)

// Table is a header row plus data rows.
type Table struct {
	Headers    []string
	Rows       [][]string
	RightAlign map[int]bool
}

// ParseFormat validates a format name. Empty selects CSV.
func ParseFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatText, FormatGrid:
		return format, nil
	}
	return "", model.Validationf("format", "%q (expected %s, %s or %s)", format, FormatCSV, FormatText, FormatGrid)
}

// Render writes t to w in the given format. The table is rendered in full
// before anything is written.
func Render(w io.Writer, t Table, format string) error {
	var buf bytes.Buffer
	switch format {
	case FormatCSV, "":
		if err := writeCSV(&buf, t); err != nil {
			return err
		}
	case FormatText:
		for _, line := range formatTable(t.Headers, t.Rows, t.RightAlign) {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	case FormatGrid:
		buf.WriteString(grid(lipgloss.NewRenderer(w), t))
		buf.WriteByte('\n')
	default:
		return model.Validationf("format", "%q", format)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

func grid(re *lipgloss.Renderer, t Table) string {
	headerStyle := re.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)
	rightStyle := cellStyle.Align(lipgloss.Right)
	borderStyle := re.NewStyle().Foreground(lipgloss.Color("240"))

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		BorderRow(true).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if t.RightAlign[col] {
				return rightStyle
			}
			return cellStyle
		})
	return tbl.String()
}
