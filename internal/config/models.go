package config

import "time"

// AppConfig holds the service account and report defaults
type AppConfig struct {
	ClientEmail     string    `json:"client_email,omitempty" yaml:"client_email,omitempty"`
	PrivateKey      string    `json:"private_key,omitempty" yaml:"private_key,omitempty"`           // Inline PEM, escaped newlines allowed
	PrivateKeyFile  string    `json:"private_key_file,omitempty" yaml:"private_key_file,omitempty"` // Path to a PEM file
	CredentialsFile string    `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"` // Path to a service account JSON key
	PropertyID      string    `json:"property_id,omitempty" yaml:"property_id,omitempty"`           // e.g., "263883430"
	TimeoutSeconds  int       `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
}

// Environment variables that override the config file
const (
	EnvClientEmail     = "GA4_CLIENT_EMAIL"
	EnvPrivateKey      = "GA4_PRIVATE_KEY"
	EnvCredentialsFile = "GA4_CREDENTIALS_FILE"
	EnvPropertyID      = "GA4_PROPERTY_ID"
)

// DefaultTimeout bounds a whole report invocation
const DefaultTimeout = 60 * time.Second

// Timeout returns the configured invocation timeout
func (c *AppConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CredentialSource describes where the credential came from, for display
func (c *AppConfig) CredentialSource() string {
	switch {
	case c.CredentialsFile != "":
		return "credentials file " + c.CredentialsFile
	case c.PrivateKeyFile != "":
		return "private key file " + c.PrivateKeyFile
	case c.PrivateKey != "":
		return "inline private key"
	default:
		return "none"
	}
}
