package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"ga4report/internal/api"
)

var (
	// GA4 relative dates: today, yesterday, NdaysAgo
	relativeDate = regexp.MustCompile(`^(today|yesterday|[0-9]+daysAgo)$`)

	// API names are letters, digits and underscores, with a colon for custom definitions
	apiName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(:[A-Za-z0-9_]+)?$`)

	// Property IDs are numeric
	propertyID = regexp.MustCompile(`^[0-9]+$`)
)

// Options are the user-facing knobs for building a ReportQuery
type Options struct {
	PropertyID string
	Days       int
	StartDate  string
	EndDate    string
	Dimensions []string
	Metrics    []string
}

// Build applies defaults to opts and validates the resulting query
func Build(opts Options) (api.ReportQuery, error) {
	q := DefaultQuery(strings.TrimPrefix(strings.TrimSpace(opts.PropertyID), "properties/"))

	if opts.Days > 0 {
		if opts.Days > MaxWindowDays {
			return api.ReportQuery{}, fmt.Errorf("days must be between 1 and %d", MaxWindowDays)
		}
		q.DateRange = TrailingWindow(opts.Days)
	}
	if opts.StartDate != "" {
		q.DateRange.StartDate = opts.StartDate
	}
	if opts.EndDate != "" {
		q.DateRange.EndDate = opts.EndDate
	}
	if len(opts.Dimensions) > 0 {
		q.Dimensions = cleanNames(opts.Dimensions)
	}
	if len(opts.Metrics) > 0 {
		q.Metrics = cleanNames(opts.Metrics)
	}

	if err := Validate(q); err != nil {
		return api.ReportQuery{}, err
	}
	return q, nil
}

// Validate checks if the query is well formed before any network call
func Validate(q api.ReportQuery) error {
	if q.PropertyID == "" {
		return fmt.Errorf("property ID is required")
	}
	if !propertyID.MatchString(q.PropertyID) {
		return fmt.Errorf("invalid property ID %q: expected a numeric GA4 property ID", q.PropertyID)
	}
	if len(q.Dimensions) == 0 && len(q.Metrics) == 0 {
		return fmt.Errorf("at least one dimension or metric is required")
	}
	if q.DateRange.StartDate == "" || q.DateRange.EndDate == "" {
		return fmt.Errorf("date range is required")
	}

	// Validate date format
	if !isValidDate(q.DateRange.StartDate) {
		return fmt.Errorf("invalid start date format: %s", q.DateRange.StartDate)
	}
	if !isValidDate(q.DateRange.EndDate) {
		return fmt.Errorf("invalid end date format: %s", q.DateRange.EndDate)
	}

	start, startErr := time.Parse(time.DateOnly, q.DateRange.StartDate)
	end, endErr := time.Parse(time.DateOnly, q.DateRange.EndDate)
	if startErr == nil && endErr == nil && end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", q.DateRange.EndDate, q.DateRange.StartDate)
	}

	for _, name := range q.Dimensions {
		if !apiName.MatchString(name) {
			return fmt.Errorf("invalid dimension name %q", name)
		}
	}
	for _, name := range q.Metrics {
		if !apiName.MatchString(name) {
			return fmt.Errorf("invalid metric name %q", name)
		}
	}

	return nil
}

func isValidDate(date string) bool {
	if _, err := time.Parse(time.DateOnly, date); err == nil {
		return true
	}
	return relativeDate.MatchString(date)
}

func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}
