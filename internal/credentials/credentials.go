package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrMissingCredentials is wrapped by every validation failure so callers can
// tell configuration problems apart from network or upstream failures.
var ErrMissingCredentials = errors.New("service account credentials are incomplete")

// ServiceAccount holds the identity used to sign JWT assertions
type ServiceAccount struct {
	ClientEmail   string `json:"client_email" yaml:"client_email"`
	PrivateKeyPEM string `json:"private_key" yaml:"private_key"`
}

// Validate reports every missing field at once
func (s ServiceAccount) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(s.ClientEmail) == "" {
		result = multierror.Append(result, fmt.Errorf("%w: client email is empty", ErrMissingCredentials))
	}
	if strings.TrimSpace(s.PrivateKeyPEM) == "" {
		result = multierror.Append(result, fmt.Errorf("%w: private key is empty", ErrMissingCredentials))
	}

	if result != nil {
		result.ErrorFormat = func(errs []error) string {
			msgs := make([]string, 0, len(errs))
			for _, err := range errs {
				msgs = append(msgs, err.Error())
			}
			return strings.Join(msgs, "; ")
		}
	}
	return result.ErrorOrNil()
}

// serviceAccountKey mirrors the JSON key file downloaded from the Google Cloud console
type serviceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// LoadServiceAccountJSON extracts a ServiceAccount from a Google service account key file
func LoadServiceAccountJSON(data []byte) (ServiceAccount, error) {
	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return ServiceAccount{}, fmt.Errorf("failed to parse service account key file: %w", err)
	}

	if key.Type != "" && key.Type != "service_account" {
		return ServiceAccount{}, fmt.Errorf("unsupported credentials type %q: only service_account keys are supported", key.Type)
	}

	account := ServiceAccount{
		ClientEmail:   key.ClientEmail,
		PrivateKeyPEM: key.PrivateKey,
	}
	if err := account.Validate(); err != nil {
		return ServiceAccount{}, err
	}
	return account, nil
}
