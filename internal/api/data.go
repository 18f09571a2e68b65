package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrMissingPropertyID is returned when a report is requested without a property
var ErrMissingPropertyID = errors.New("property ID is required")

// DataClient handles GA4 Data API report requests
type DataClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	now        func() time.Time
}

// NewDataClient creates a new GA4 Data API client
func NewDataClient(config ClientConfig) *DataClient {
	return &DataClient{
		httpClient: config.httpClient(),
		baseURL:    config.dataBaseURL(),
		logger:     config.logger(),
		now:        time.Now,
	}
}

// ReportQuery describes one runReport call in domain terms
type ReportQuery struct {
	PropertyID string    `json:"property_id" yaml:"property_id"`
	DateRange  DateRange `json:"date_range" yaml:"date_range"`
	Dimensions []string  `json:"dimensions" yaml:"dimensions"`
	Metrics    []string  `json:"metrics" yaml:"metrics"`
}

// Request converts the query into the Data API wire shape
func (q ReportQuery) Request() *RunReportRequest {
	request := &RunReportRequest{
		Property:   q.PropertyID,
		DateRanges: []DateRange{q.DateRange},
		Dimensions: make([]Dimension, 0, len(q.Dimensions)),
		Metrics:    make([]Metric, 0, len(q.Metrics)),
	}
	for _, name := range q.Dimensions {
		request.Dimensions = append(request.Dimensions, Dimension{Name: name})
	}
	for _, name := range q.Metrics {
		request.Metrics = append(request.Metrics, Metric{Name: name})
	}
	return request
}

// RunReport API structures
type RunReportRequest struct {
	Property   string      `json:"-"` // Property ID (not in JSON body)
	DateRanges []DateRange `json:"dateRanges"`
	Dimensions []Dimension `json:"dimensions"`
	Metrics    []Metric    `json:"metrics"`
}

type RunReportResponse struct {
	DimensionHeaders []DimensionHeader `json:"dimensionHeaders"`
	MetricHeaders    []MetricHeader    `json:"metricHeaders"`
	Rows             []Row             `json:"rows"`
	RowCount         int               `json:"rowCount"`
	Kind             string            `json:"kind"`
	Error            *ErrorBody        `json:"error,omitempty"`
}

// ErrorBody is Google's structured API error
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type Dimension struct {
	Name string `json:"name"`
}

type Metric struct {
	Name string `json:"name"`
}

type DateRange struct {
	StartDate string `json:"startDate" yaml:"start_date"`
	EndDate   string `json:"endDate" yaml:"end_date"`
}

type DimensionHeader struct {
	Name string `json:"name"`
}

type MetricHeader struct {
	Name string `json:"name"`
	Type string `json:"type"` // TYPE_INTEGER, TYPE_FLOAT, TYPE_SECONDS, ...
}

type Row struct {
	DimensionValues []DimensionValue `json:"dimensionValues"`
	MetricValues    []MetricValue    `json:"metricValues"`
}

type DimensionValue struct {
	Value string `json:"value"`
}

type MetricValue struct {
	Value string `json:"value"`
}

// RunReport executes a runReport call authorized by token
func (c *DataClient) RunReport(ctx context.Context, token *AccessToken, request *RunReportRequest) (*RunReportResponse, error) {
	if request.Property == "" {
		return nil, ErrMissingPropertyID
	}
	if len(request.DateRanges) == 0 {
		return nil, fmt.Errorf("at least one date range is required")
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, url.PathEscape(request.Property))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("running report", "property", request.Property,
		"dimensions", len(request.Dimensions), "metrics", len(request.Metrics))

	resp, err := c.authorizedClient(ctx, token).Do(req)
	if err != nil {
		return nil, transportError(ctx, "run report", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, "run report", endpoint, err)
	}

	var reportResponse RunReportResponse
	decodeErr := json.Unmarshal(raw, &reportResponse)

	if decodeErr == nil && reportResponse.Error != nil {
		return nil, &ReportAPIError{
			StatusCode: resp.StatusCode,
			Code:       reportResponse.Error.Code,
			Status:     reportResponse.Error.Status,
			Message:    reportResponse.Error.Message,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := http.StatusText(resp.StatusCode)
		if body := strings.TrimSpace(string(raw)); body != "" {
			message = truncate(body, maxErrorBody)
		}
		return nil, &ReportAPIError{StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return nil, &ReportAPIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode report response: %v", decodeErr),
		}
	}

	return &reportResponse, nil
}

// FetchRows runs query and maps the response into ReportRows in upstream order
func (c *DataClient) FetchRows(ctx context.Context, token *AccessToken, query ReportQuery) ([]ReportRow, error) {
	response, err := c.RunReport(ctx, token, query.Request())
	if err != nil {
		return nil, err
	}

	rows, degraded := MapRows(response.Rows)
	if degraded > 0 {
		c.logger.Warn("report rows were missing values and were defaulted",
			"property", query.PropertyID, "degraded_rows", degraded, "total_rows", len(rows))
	}
	return rows, nil
}

// authorizedClient wraps the configured client with a bearer transport for token
func (c *DataClient) authorizedClient(ctx context.Context, token *AccessToken) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token.OAuth2(c.now())))
	client.Timeout = c.httpClient.Timeout
	return client
}
