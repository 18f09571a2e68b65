package results

import (
	"fmt"
	"strings"
)

// Format represents supported output formats
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
)

// Columns is the fixed header of every tabular output
var Columns = []string{"date", "source", "visitors", "conversions"}

// ParseFormat maps a user-supplied name to a Format
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use table, json, csv or tsv)", name)
	}
}

// TableDisplayOptions represents options for formatting console output
type TableDisplayOptions struct {
	MaxRows      int  // Maximum rows to display, 0 for all
	MaxColWidth  int  // Maximum column width
	NumberFormat bool // Format numbers with commas
}

// DefaultDisplayOptions returns sensible defaults for table display
func DefaultDisplayOptions() TableDisplayOptions {
	return TableDisplayOptions{
		MaxRows:      50,
		MaxColWidth:  30,
		NumberFormat: true,
	}
}
