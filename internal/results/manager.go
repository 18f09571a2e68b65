// Package results renders report rows for the console and for export.
package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ga4report/internal/api"
	"ga4report/internal/summary"
)

// Write renders rows to w in the given format
func Write(w io.Writer, rows []api.ReportRow, format Format) error {
	switch format {
	case FormatTable, "":
		for _, line := range FormatResultTable(rows, DefaultDisplayOptions()) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		if rows == nil {
			rows = []api.ReportRow{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rows); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
		return nil
	case FormatCSV:
		return writeDelimited(w, rows, ',')
	case FormatTSV:
		return writeDelimited(w, rows, '\t')
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFile exports rows to outputPath, creating parent directories
func WriteFile(outputPath string, rows []api.ReportRow, format Format) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := Write(file, rows, format); err != nil {
		return err
	}
	return file.Close()
}

func writeDelimited(w io.Writer, rows []api.ReportRow, comma rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = comma

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Date,
			row.Source,
			strconv.Itoa(row.Visitors),
			strconv.Itoa(row.Conversions),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatResultTable formats rows for console display
func FormatResultTable(rows []api.ReportRow, opts TableDisplayOptions) []string {
	if len(rows) == 0 {
		return []string{"No data returned"}
	}

	displayRows := rows
	if opts.MaxRows > 0 && len(displayRows) > opts.MaxRows {
		displayRows = displayRows[:opts.MaxRows]
	}

	cells := make([][]string, 0, len(displayRows))
	for _, row := range displayRows {
		cells = append(cells, []string{
			row.Date,
			row.Source,
			formatNumber(int64(row.Visitors), opts.NumberFormat),
			formatNumber(int64(row.Conversions), opts.NumberFormat),
		})
	}

	lines := renderTable(Columns, cells, opts.MaxColWidth)

	if len(displayRows) < len(rows) {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Showing %d of %d rows", len(displayRows), len(rows)))
	}

	return lines
}

// FormatSummary formats a per-source summary for console display
func FormatSummary(s *summary.Summary, opts TableDisplayOptions) []string {
	headers := []string{"source", "visitors", "conversions", "days"}
	cells := make([][]string, 0, len(s.Sources)+1)
	for _, source := range s.Sources {
		name := source.Source
		if name == "" {
			name = "(not set)"
		}
		cells = append(cells, []string{
			name,
			formatNumber(source.Visitors, opts.NumberFormat),
			formatNumber(source.Conversions, opts.NumberFormat),
			strconv.Itoa(source.Days),
		})
	}
	cells = append(cells, []string{
		"TOTAL",
		formatNumber(s.Visitors, opts.NumberFormat),
		formatNumber(s.Conversions, opts.NumberFormat),
		strconv.Itoa(s.Days),
	})

	lines := renderTable(headers, cells, opts.MaxColWidth)
	lines = append(lines, fmt.Sprintf("Conversion rate: %.2f%%", s.ConversionRate()))
	return lines
}

func renderTable(headers []string, cells [][]string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = DefaultDisplayOptions().MaxColWidth
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = min(len(header), maxWidth)
	}
	for _, row := range cells {
		for i, value := range row {
			if len(value) > colWidths[i] {
				colWidths[i] = min(len(value), maxWidth)
			}
		}
	}

	var lines []string

	headerParts := make([]string, len(headers))
	for i, header := range headers {
		headerParts[i] = padOrTruncate(header, colWidths[i])
	}
	lines = append(lines, "| "+strings.Join(headerParts, " | ")+" |")

	separatorParts := make([]string, len(headers))
	for i, width := range colWidths {
		separatorParts[i] = strings.Repeat("-", width+2)
	}
	lines = append(lines, "|"+strings.Join(separatorParts, "|")+"|")

	for _, row := range cells {
		rowParts := make([]string, len(headers))
		for i, value := range row {
			rowParts[i] = padOrTruncate(value, colWidths[i])
		}
		lines = append(lines, "| "+strings.Join(rowParts, " | ")+" |")
	}

	return lines
}

// formatNumber renders n, optionally with thousands separators
func formatNumber(n int64, separators bool) string {
	s := strconv.FormatInt(n, 10)
	if !separators {
		return s
	}

	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

func padOrTruncate(s string, width int) string {
	if len(s) > width {
		if width > 3 {
			return s[:width-3] + "..."
		}
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
