package query

import (
	"fmt"

	"ga4report/internal/api"
)

const (
	// DefaultWindowDays is the trailing window of the standard traffic report
	DefaultWindowDays = 7

	// MaxWindowDays bounds relative windows
	MaxWindowDays = 365
)

var (
	// DefaultDimensions are positional: date first, source second
	DefaultDimensions = []string{"date", "sessionSource"}

	// DefaultMetrics are positional: visitors first, conversions second
	DefaultMetrics = []string{"activeUsers", "conversions", "averageSessionDuration"}
)

// DateRangePreset represents common date range configurations
type DateRangePreset struct {
	Name      string `json:"name" yaml:"name"`
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
}

// Common relative date range presets
var CommonDateRanges = []DateRangePreset{
	{"Last 7 days", "7daysAgo", "today"},
	{"Last 14 days", "14daysAgo", "today"},
	{"Last 30 days", "30daysAgo", "today"},
	{"Last 90 days", "90daysAgo", "today"},
	{"Yesterday", "yesterday", "yesterday"},
}

// TrailingWindow returns the date range covering the last days days up to today
func TrailingWindow(days int) api.DateRange {
	return api.DateRange{
		StartDate: fmt.Sprintf("%ddaysAgo", days),
		EndDate:   "today",
	}
}

// DefaultQuery is the report the dashboard shows: 7 days of sources with visitors and conversions
func DefaultQuery(propertyID string) api.ReportQuery {
	return api.ReportQuery{
		PropertyID: propertyID,
		DateRange:  TrailingWindow(DefaultWindowDays),
		Dimensions: append([]string(nil), DefaultDimensions...),
		Metrics:    append([]string(nil), DefaultMetrics...),
	}
}

// FindPreset looks a preset up by name
func FindPreset(name string) (DateRangePreset, bool) {
	for _, preset := range CommonDateRanges {
		if preset.Name == name {
			return preset, true
		}
	}
	return DateRangePreset{}, false
}
