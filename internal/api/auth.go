package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// JWTBearerGrantType is the OAuth2 grant used by service accounts (RFC 7523)
	JWTBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// AccessToken is a bearer token scoped to a single report fetch. It is never cached.
type AccessToken struct {
	Value     string
	TokenType string
	ExpiresIn int // seconds
}

// OAuth2 converts the token for use with an oauth2 transport
func (t *AccessToken) OAuth2(now time.Time) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   t.TokenType,
	}
	if t.ExpiresIn > 0 {
		token.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return token
}

// tokenResponse is the token endpoint's JSON answer, success or failure
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenExchanger trades a signed assertion for an access token
type TokenExchanger struct {
	httpClient *http.Client
	tokenURL   string
	logger     *slog.Logger
}

// NewTokenExchanger creates a token exchanger
func NewTokenExchanger(config ClientConfig) *TokenExchanger {
	return &TokenExchanger{
		httpClient: config.httpClient(),
		tokenURL:   config.tokenURL(),
		logger:     config.logger(),
	}
}

// Exchange performs a single jwt-bearer grant round trip. There is no retry:
// any response without an access token is terminal for this invocation.
func (e *TokenExchanger) Exchange(ctx context.Context, assertion string) (*AccessToken, error) {
	// Fields in grant_type, assertion order
	body := "grant_type=" + url.QueryEscape(JWTBearerGrantType) + "&assertion=" + url.QueryEscape(assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	e.logger.Debug("exchanging assertion for access token", "token_url", e.tokenURL)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, "token exchange", e.tokenURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, "token exchange", e.tokenURL, err)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.AccessToken == "" {
		return nil, &TokenExchangeError{
			StatusCode:  resp.StatusCode,
			Body:        string(raw),
			Code:        parsed.Error,
			Description: parsed.ErrorDescription,
		}
	}

	e.logger.Debug("access token issued", "expires_in", parsed.ExpiresIn, "status", resp.StatusCode)

	return &AccessToken{
		Value:     parsed.AccessToken,
		TokenType: parsed.TokenType,
		ExpiresIn: parsed.ExpiresIn,
	}, nil
}
