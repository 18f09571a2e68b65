package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ga4report/internal/api"
	"ga4report/internal/assertion"
	"ga4report/internal/credentials"
)

// Kind classifies a failed FetchReport call
type Kind string

const (
	KindMissingCredentials Kind = "missing_credentials" // configuration incomplete
	KindKeyFormat          Kind = "key_format"
	KindSigning            Kind = "signing"
	KindTokenExchange      Kind = "token_exchange"
	KindReportAPI          Kind = "report_api"
	KindNetwork            Kind = "network"
	KindCancelled          Kind = "cancelled"
)

// Stages of a FetchReport call, in order
const (
	StageValidate = "validate"
	StageSign     = "sign"
	StageExchange = "exchange"
	StageReport   = "report"
)

// Error is the single error value FetchReport returns. The underlying cause
// stays reachable through errors.Is and errors.As.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analytics %s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a fresh FetchReport attempt may succeed. A retry
// must go through FetchReport so a new assertion is signed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindTokenExchange:
		var exchangeErr *api.TokenExchangeError
		return errors.As(e.Err, &exchangeErr)
	case KindReportAPI:
		var apiErr *api.ReportAPIError
		return errors.As(e.Err, &apiErr) && apiErr.Temporary()
	default:
		return false
	}
}

// MarshalJSON renders the error as {kind, stage, message}
func (e *Error) MarshalJSON() ([]byte, error) {
	var message string
	if e.Err != nil {
		message = e.Err.Error()
	}
	return json.Marshal(struct {
		Kind    Kind   `json:"kind"`
		Stage   string `json:"stage"`
		Message string `json:"message"`
	}{
		Kind:    e.Kind,
		Stage:   e.Stage,
		Message: message,
	})
}

// classify maps a stage failure onto the error taxonomy. A cause no typed
// error matches takes the failing stage's own kind, so only transport
// failures are ever labelled network.
func classify(stage string, err error) *Error {
	var (
		keyErr      *credentials.KeyFormatError
		signErr     *assertion.SigningError
		exchangeErr *api.TokenExchangeError
		reportErr   *api.ReportAPIError
		netErr      *api.NetworkError
	)

	var kind Kind
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCancelled
	case errors.Is(err, credentials.ErrMissingCredentials), errors.Is(err, api.ErrMissingPropertyID):
		kind = KindMissingCredentials
	case errors.As(err, &keyErr):
		kind = KindKeyFormat
	case errors.As(err, &signErr):
		kind = KindSigning
	case errors.As(err, &exchangeErr):
		kind = KindTokenExchange
	case errors.As(err, &reportErr):
		kind = KindReportAPI
	case errors.As(err, &netErr):
		kind = KindNetwork
	default:
		kind = stageKind(stage)
	}

	return &Error{Kind: kind, Stage: stage, Err: err}
}

func stageKind(stage string) Kind {
	switch stage {
	case StageValidate:
		return KindMissingCredentials
	case StageSign:
		return KindSigning
	case StageExchange:
		return KindTokenExchange
	default:
		return KindReportAPI
	}
}

// KindOf returns the Kind of err, or "" if err did not come from FetchReport
func KindOf(err error) Kind {
	var analyticsErr *Error
	if errors.As(err, &analyticsErr) {
		return analyticsErr.Kind
	}
	return ""
}
