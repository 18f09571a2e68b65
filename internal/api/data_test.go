package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func testQuery() ReportQuery {
	return ReportQuery{
		PropertyID: "123456",
		DateRange:  DateRange{StartDate: "7daysAgo", EndDate: "today"},
		Dimensions: []string{"date", "sessionSource"},
		Metrics:    []string{"activeUsers", "conversions", "averageSessionDuration"},
	}
}

func reportServer(t *testing.T, status int, body string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func TestFetchRowsRequestShape(t *testing.T) {
	server := reportServer(t, http.StatusOK, `{"rows":[]}`, func(r *http.Request) {
		if r.URL.Path != "/v1beta/properties/123456:runReport" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		want := map[string]interface{}{
			"dateRanges": []interface{}{map[string]interface{}{"startDate": "7daysAgo", "endDate": "today"}},
			"dimensions": []interface{}{
				map[string]interface{}{"name": "date"},
				map[string]interface{}{"name": "sessionSource"},
			},
			"metrics": []interface{}{
				map[string]interface{}{"name": "activeUsers"},
				map[string]interface{}{"name": "conversions"},
				map[string]interface{}{"name": "averageSessionDuration"},
			},
		}
		if !reflect.DeepEqual(body, want) {
			t.Errorf("body = %#v", body)
		}
	})
	defer server.Close()

	rows, err := NewDataClient(testConfig(server)).FetchRows(context.Background(), &AccessToken{Value: "tok123"}, testQuery())
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %#v, want empty non-nil slice", rows)
	}
}

func TestFetchRowsMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ReportRow
	}{
		{
			name: "well formed",
			body: `{"rows":[
				{"dimensionValues":[{"value":"20260101"},{"value":"google"}],"metricValues":[{"value":"42"},{"value":"3"},{"value":"61.5"}]},
				{"dimensionValues":[{"value":"20260102"},{"value":"(direct)"}],"metricValues":[{"value":"7"},{"value":"0"},{"value":"12.0"}]}
			]}`,
			want: []ReportRow{
				{Date: "20260101", Visitors: 42, Conversions: 3, Source: "google"},
				{Date: "20260102", Visitors: 7, Conversions: 0, Source: "(direct)"},
			},
		},
		{
			name: "missing second dimension and metric",
			body: `{"rows":[{"dimensionValues":[{"value":"20260101"}],"metricValues":[{"value":"42"}]}]}`,
			want: []ReportRow{{Date: "20260101", Visitors: 42, Conversions: 0, Source: ""}},
		},
		{
			name: "decimal and garbage metrics",
			body: `{"rows":[{"dimensionValues":[{"value":"20260101"},{"value":"bing"}],"metricValues":[{"value":"oops"},{"value":"2.75"}]}]}`,
			want: []ReportRow{{Date: "20260101", Visitors: 0, Conversions: 2, Source: "bing"}},
		},
		{
			name: "row with no arrays",
			body: `{"rows":[{}]}`,
			want: []ReportRow{{}},
		},
		{
			name: "rows absent",
			body: `{"rowCount":0,"kind":"analyticsData#runReport"}`,
			want: []ReportRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := reportServer(t, http.StatusOK, tt.body, nil)
			defer server.Close()

			rows, err := NewDataClient(testConfig(server)).FetchRows(context.Background(), &AccessToken{Value: "t"}, testQuery())
			if err != nil {
				t.Fatalf("FetchRows: %v", err)
			}
			if !reflect.DeepEqual(rows, tt.want) {
				t.Errorf("rows = %+v, want %+v", rows, tt.want)
			}
		})
	}
}

func TestFetchRowsErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		temporary bool
	}{
		{
			name:    "structured error",
			status:  http.StatusForbidden,
			body:    `{"error":{"code":403,"message":"User does not have sufficient permissions for this property.","status":"PERMISSION_DENIED"}}`,
			message: "sufficient permissions",
		},
		{
			name:    "error object on 200",
			status:  http.StatusOK,
			body:    `{"error":{"code":400,"message":"Field foo is not a valid dimension.","status":"INVALID_ARGUMENT"}}`,
			message: "not a valid dimension",
		},
		{
			name:      "quota",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"code":429,"message":"Exhausted property tokens","status":"RESOURCE_EXHAUSTED"}}`,
			message:   "Exhausted",
			temporary: true,
		},
		{
			name:      "unstructured 5xx",
			status:    http.StatusServiceUnavailable,
			body:      `upstream connect error`,
			message:   "upstream connect error",
			temporary: true,
		},
		{
			name:    "undecodable 200",
			status:  http.StatusOK,
			body:    `{"rows": [`,
			message: "failed to decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := reportServer(t, tt.status, tt.body, nil)
			defer server.Close()

			_, err := NewDataClient(testConfig(server)).FetchRows(context.Background(), &AccessToken{Value: "t"}, testQuery())
			var apiErr *ReportAPIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *ReportAPIError, got %T: %v", err, err)
			}
			if !strings.Contains(apiErr.Error(), tt.message) {
				t.Errorf("message %q does not contain %q", apiErr.Error(), tt.message)
			}
			if apiErr.Temporary() != tt.temporary {
				t.Errorf("Temporary() = %v, want %v", apiErr.Temporary(), tt.temporary)
			}
		})
	}
}

func TestRunReportValidatesRequest(t *testing.T) {
	client := NewDataClient(ClientConfig{})
	if _, err := client.RunReport(context.Background(), &AccessToken{Value: "t"}, &RunReportRequest{}); err == nil {
		t.Error("expected missing property to fail")
	}
	if _, err := client.RunReport(context.Background(), &AccessToken{Value: "t"}, &RunReportRequest{Property: "1"}); err == nil {
		t.Error("expected missing date range to fail")
	}
}

func TestMapRowsCountsDegraded(t *testing.T) {
	rows := []Row{
		{
			DimensionValues: []DimensionValue{{Value: "20260101"}, {Value: "google"}},
			MetricValues:    []MetricValue{{Value: "1"}, {Value: "2"}},
		},
		{DimensionValues: []DimensionValue{{Value: "20260102"}}},
	}
	mapped, degraded := MapRows(rows)
	if len(mapped) != 2 {
		t.Fatalf("len = %d", len(mapped))
	}
	if degraded != 1 {
		t.Errorf("degraded = %d, want 1", degraded)
	}
}
