package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
)

const (
	// DefaultDataBaseURL is the GA4 Data API root
	DefaultDataBaseURL = "https://analyticsdata.googleapis.com/v1beta"

	// DefaultTimeout applies when no HTTP client is supplied
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 32 << 20
)

// ClientConfig holds the dependencies shared by the token and data clients
type ClientConfig struct {
	// HTTPClient is used for all outbound requests. If nil, a client with DefaultTimeout is used.
	HTTPClient *http.Client
	// TokenURL overrides the OAuth2 token endpoint.
	TokenURL string
	// DataBaseURL overrides the GA4 Data API root.
	DataBaseURL string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (c ClientConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (c ClientConfig) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return google.JWTTokenURL
}

func (c ClientConfig) dataBaseURL() string {
	if c.DataBaseURL != "" {
		return strings.TrimRight(c.DataBaseURL, "/")
	}
	return DefaultDataBaseURL
}

func (c ClientConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
