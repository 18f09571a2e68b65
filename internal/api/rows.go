package api

import (
	"math"
	"strconv"
	"strings"
)

// ReportRow is the normalized shape of one report row
type ReportRow struct {
	Date        string `json:"date"`
	Visitors    int    `json:"visitors"`
	Conversions int    `json:"conversions"`
	Source      string `json:"source"`
}

// Positions within dimensionValues and metricValues
const (
	dimDate = iota
	dimSource
)

const (
	metricVisitors = iota
	metricConversions
)

// MapRows maps upstream rows positionally. A row with missing or unparseable
// values is kept with zero values; degraded counts how many rows needed that.
func MapRows(rows []Row) (mapped []ReportRow, degraded int) {
	mapped = make([]ReportRow, 0, len(rows))
	for _, row := range rows {
		r, complete := mapRow(row)
		if !complete {
			degraded++
		}
		mapped = append(mapped, r)
	}
	return mapped, degraded
}

func mapRow(row Row) (ReportRow, bool) {
	date, okDate := dimensionAt(row, dimDate)
	source, okSource := dimensionAt(row, dimSource)
	visitors, okVisitors := metricAt(row, metricVisitors)
	conversions, okConversions := metricAt(row, metricConversions)

	return ReportRow{
		Date:        date,
		Visitors:    visitors,
		Conversions: conversions,
		Source:      source,
	}, okDate && okSource && okVisitors && okConversions
}

func dimensionAt(row Row, i int) (string, bool) {
	if i >= len(row.DimensionValues) {
		return "", false
	}
	return row.DimensionValues[i].Value, true
}

func metricAt(row Row, i int) (int, bool) {
	if i >= len(row.MetricValues) {
		return 0, false
	}
	return parseMetric(row.MetricValues[i].Value)
}

// parseMetric accepts integer and decimal strings; decimals are truncated
func parseMetric(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= float64(math.MaxInt64) || f <= float64(math.MinInt64) {
		return 0, false
	}
	return int(f), true
}
