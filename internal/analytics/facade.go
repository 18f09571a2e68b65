// Package analytics exposes the one operation the rest of the application
// needs: fetch the traffic report for a GA4 property with a service account.
package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ga4report/internal/api"
	"ga4report/internal/assertion"
	"ga4report/internal/credentials"
)

// Options configures a Facade. Every field is optional.
type Options struct {
	// HTTPClient carries both outbound calls. If nil, a client with api.DefaultTimeout is used.
	HTTPClient *http.Client
	// Now is the clock used for assertion timestamps. If nil, time.Now is used.
	Now func() time.Time
	// TokenURL overrides the OAuth2 token endpoint.
	TokenURL string
	// DataBaseURL overrides the GA4 Data API root.
	DataBaseURL string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Facade signs, exchanges and fetches in sequence. It holds no per-call state,
// so one Facade can serve concurrent callers.
type Facade struct {
	builder   *assertion.Builder
	exchanger *api.TokenExchanger
	data      *api.DataClient
	logger    *slog.Logger
}

// New creates a Facade
func New(opts Options) *Facade {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := api.ClientConfig{
		HTTPClient:  opts.HTTPClient,
		TokenURL:    opts.TokenURL,
		DataBaseURL: opts.DataBaseURL,
		Logger:      logger,
	}

	return &Facade{
		builder:   assertion.NewBuilder(opts.Now),
		exchanger: api.NewTokenExchanger(clientConfig),
		data:      api.NewDataClient(clientConfig),
		logger:    logger,
	}
}

// FetchReport validates account, signs a fresh assertion, exchanges it for an
// access token and runs q. On failure the returned error is an *Error.
func (f *Facade) FetchReport(ctx context.Context, account credentials.ServiceAccount, q api.ReportQuery) ([]api.ReportRow, error) {
	logger := f.logger.With("run_id", uuid.NewString(), "property", q.PropertyID)
	start := time.Now()

	if err := account.Validate(); err != nil {
		return nil, f.fail(logger, StageValidate, err)
	}
	// The property ID is passed through opaquely; only its presence is required
	if q.PropertyID == "" {
		return nil, f.fail(logger, StageValidate, api.ErrMissingPropertyID)
	}

	signed, err := f.builder.Build(account)
	if err != nil {
		return nil, f.fail(logger, StageSign, err)
	}
	logger.Debug("assertion signed", "issuer", account.ClientEmail)

	token, err := f.exchanger.Exchange(ctx, signed)
	if err != nil {
		return nil, f.fail(logger, StageExchange, err)
	}

	rows, err := f.data.FetchRows(ctx, token, q)
	if err != nil {
		return nil, f.fail(logger, StageReport, err)
	}

	logger.Debug("report fetched", "rows", len(rows), "elapsed", time.Since(start))
	return rows, nil
}

// Authenticate runs only the sign and exchange stages. It backs the CLI's
// credential check and never caches the token.
func (f *Facade) Authenticate(ctx context.Context, account credentials.ServiceAccount) (*api.AccessToken, error) {
	logger := f.logger.With("run_id", uuid.NewString())

	if err := account.Validate(); err != nil {
		return nil, f.fail(logger, StageValidate, err)
	}
	signed, err := f.builder.Build(account)
	if err != nil {
		return nil, f.fail(logger, StageSign, err)
	}
	token, err := f.exchanger.Exchange(ctx, signed)
	if err != nil {
		return nil, f.fail(logger, StageExchange, err)
	}
	return token, nil
}

func (f *Facade) fail(logger *slog.Logger, stage string, err error) *Error {
	classified := classify(stage, err)
	logger.Debug("analytics request failed",
		"stage", stage, "kind", string(classified.Kind), "error", err)
	return classified
}
