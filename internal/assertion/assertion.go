// Package assertion builds the RS256-signed JWT a service account presents
// to the OAuth2 token endpoint in the jwt-bearer grant.
package assertion

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2/google"

	"ga4report/internal/credentials"
)

const (
	// AnalyticsReadOnlyScope is the only scope the reporting client requests
	AnalyticsReadOnlyScope = "https://www.googleapis.com/auth/analytics.readonly"

	// Audience is the token endpoint the assertion is minted for
	Audience = google.JWTTokenURL

	// Lifetime is fixed by the token endpoint's maximum
	Lifetime = time.Hour
)

// Header is the constant JOSE header of every assertion
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// DefaultHeader returns the RS256 header
func DefaultHeader() Header {
	return Header{Alg: jwt.SigningMethodRS256.Alg(), Typ: "JWT"}
}

// Claims is the claim set of a service account assertion
type Claims struct {
	Issuer    string `json:"iss"`
	Scope     string `json:"scope"`
	Audience  string `json:"aud"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Valid implements jwt.Claims
func (c Claims) Valid() error {
	if c.Issuer == "" {
		return errors.New("assertion: issuer is empty")
	}
	if c.ExpiresAt-c.IssuedAt != int64(Lifetime/time.Second) {
		return fmt.Errorf("assertion: lifetime must be %s", Lifetime)
	}
	return nil
}

// NewClaims builds the claims for issuer at time now
func NewClaims(issuer string, now time.Time) Claims {
	iat := now.Unix()
	return Claims{
		Issuer:    issuer,
		Scope:     AnalyticsReadOnlyScope,
		Audience:  Audience,
		IssuedAt:  iat,
		ExpiresAt: iat + int64(Lifetime/time.Second),
	}
}

// SigningError reports a failure of the RS256 signing primitive
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign assertion: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// Builder produces signed assertions. The clock is injected so tests can pin iat.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder; a nil clock means time.Now
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build signs a fresh assertion for account. Assertions are time-bound and must
// not be reused across token exchanges.
func (b *Builder) Build(account credentials.ServiceAccount) (string, error) {
	key, err := credentials.ParseKey(account.PrivateKeyPEM)
	if err != nil {
		return "", err
	}

	claims := NewClaims(account.ClientEmail, b.now())
	header := DefaultHeader()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header = map[string]interface{}{
		"alg": header.Alg,
		"typ": header.Typ,
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return signed, nil
}
