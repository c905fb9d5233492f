package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"tpcollect/pkg/config"
	"tpcollect/pkg/store"
)

const (
	defaultTokenURI        = "https://oauth2.googleapis.com/token"
	defaultProviderCertURL = "https://www.googleapis.com/oauth2/v1/certs"
)

type serviceAccountJSON struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
}

// CheckServiceAccount reports the missing or malformed secret fields.
func CheckServiceAccount(sa config.ServiceAccount) error {
	var problems []string
	required := []struct {
		name, value string
	}{
		{"project_id", sa.ProjectID},
		{"private_key_id", sa.PrivateKeyID},
		{"private_key", sa.PrivateKey},
		{"client_email", sa.ClientEmail},
		{"client_id", sa.ClientID},
		{"auth_uri", sa.AuthURI},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, f.name+" missing")
		}
	}
	if sa.PrivateKey != "" && !strings.Contains(sa.PrivateKey, "PRIVATE KEY-----") {
		problems = append(problems, "private_key is not a PEM key")
	}
	if sa.ClientEmail != "" && !strings.Contains(sa.ClientEmail, "@") {
		problems = append(problems, "client_email is not an email address")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", store.ErrAuthConfiguration, strings.Join(problems, ", "))
	}
	return nil
}

// Credentials builds read/write spreadsheet credentials for the service account.
func Credentials(ctx context.Context, sa config.ServiceAccount) (*google.Credentials, error) {
	if err := CheckServiceAccount(sa); err != nil {
		return nil, err
	}
	doc := serviceAccountJSON{
		Type:                    "service_account",
		ProjectID:               sa.ProjectID,
		PrivateKeyID:            sa.PrivateKeyID,
		PrivateKey:              strings.ReplaceAll(sa.PrivateKey, `\n`, "\n"),
		ClientEmail:             sa.ClientEmail,
		ClientID:                sa.ClientID,
		AuthURI:                 sa.AuthURI,
		TokenURI:                sa.TokenURI,
		AuthProviderX509CertURL: defaultProviderCertURL,
		ClientX509CertURL:       sa.ClientX509CertURL,
	}
	if doc.TokenURI == "" {
		doc.TokenURI = defaultTokenURI
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrAuthConfiguration, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrAuthConfiguration, err)
	}
	return creds, nil
}
