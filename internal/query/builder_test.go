package query

import (
	"reflect"
	"strings"
	"testing"

	"ga4report/internal/api"
)

func TestDefaultQuery(t *testing.T) {
	q := DefaultQuery("123")
	want := api.ReportQuery{
		PropertyID: "123",
		DateRange:  api.DateRange{StartDate: "7daysAgo", EndDate: "today"},
		Dimensions: []string{"date", "sessionSource"},
		Metrics:    []string{"activeUsers", "conversions", "averageSessionDuration"},
	}
	if !reflect.DeepEqual(q, want) {
		t.Errorf("DefaultQuery = %+v", q)
	}

	// Callers mutating the slices must not affect the package defaults
	q.Dimensions[0] = "country"
	if DefaultDimensions[0] != "date" {
		t.Error("DefaultQuery shares its slices with DefaultDimensions")
	}
}

func TestBuild(t *testing.T) {
	q, err := Build(Options{
		PropertyID: "properties/42",
		Days:       30,
		Dimensions: []string{" date ", "", "sessionSource"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.PropertyID != "42" {
		t.Errorf("PropertyID = %q", q.PropertyID)
	}
	if q.DateRange.StartDate != "30daysAgo" || q.DateRange.EndDate != "today" {
		t.Errorf("DateRange = %+v", q.DateRange)
	}
	if !reflect.DeepEqual(q.Dimensions, []string{"date", "sessionSource"}) {
		t.Errorf("Dimensions = %v", q.Dimensions)
	}
	if !reflect.DeepEqual(q.Metrics, DefaultMetrics) {
		t.Errorf("Metrics = %v", q.Metrics)
	}
}

func TestBuildExplicitDates(t *testing.T) {
	q, err := Build(Options{PropertyID: "1", StartDate: "2026-01-01", EndDate: "2026-01-31"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.DateRange != (api.DateRange{StartDate: "2026-01-01", EndDate: "2026-01-31"}) {
		t.Errorf("DateRange = %+v", q.DateRange)
	}
}

func TestValidateErrors(t *testing.T) {
	base := DefaultQuery("123")
	tests := []struct {
		name   string
		mutate func(q *api.ReportQuery)
		want   string
	}{
		{"no property", func(q *api.ReportQuery) { q.PropertyID = "" }, "property ID is required"},
		{"non numeric property", func(q *api.ReportQuery) { q.PropertyID = "UA-1" }, "invalid property ID"},
		{"no fields", func(q *api.ReportQuery) { q.Dimensions = nil; q.Metrics = nil }, "at least one"},
		{"no dates", func(q *api.ReportQuery) { q.DateRange = api.DateRange{} }, "date range is required"},
		{"bad start", func(q *api.ReportQuery) { q.DateRange.StartDate = "last week" }, "invalid start date"},
		{"bad end", func(q *api.ReportQuery) { q.DateRange.EndDate = "2026-13-01" }, "invalid end date"},
		{"reversed", func(q *api.ReportQuery) {
			q.DateRange = api.DateRange{StartDate: "2026-02-01", EndDate: "2026-01-01"}
		}, "before start date"},
		{"bad dimension", func(q *api.ReportQuery) { q.Dimensions = []string{"session source"} }, "invalid dimension"},
		{"bad metric", func(q *api.ReportQuery) { q.Metrics = []string{"1users"} }, "invalid metric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			q.Dimensions = append([]string(nil), base.Dimensions...)
			q.Metrics = append([]string(nil), base.Metrics...)
			tt.mutate(&q)

			err := Validate(q)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestBuildRejectsHugeWindow(t *testing.T) {
	if _, err := Build(Options{PropertyID: "1", Days: MaxWindowDays + 1}); err == nil {
		t.Error("expected an error for an oversized window")
	}
}

func TestCustomDimensionNames(t *testing.T) {
	q := DefaultQuery("1")
	q.Dimensions = []string{"customEvent:plan_tier"}
	if err := Validate(q); err != nil {
		t.Errorf("custom dimension rejected: %v", err)
	}
}

func TestFindPreset(t *testing.T) {
	preset, ok := FindPreset("Last 30 days")
	if !ok || preset.StartDate != "30daysAgo" {
		t.Errorf("FindPreset = %+v, %v", preset, ok)
	}
	if _, ok := FindPreset("Forever"); ok {
		t.Error("unexpected preset match")
	}
}
