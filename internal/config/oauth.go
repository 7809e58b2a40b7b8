package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// OAuthClientConfig is a Google OAuth client file as downloaded from the cloud console.
// Desktop clients carry an "installed" section, web clients a "web" section.
type OAuthClientConfig struct {
	Installed *OAuthApp `json:"installed,omitempty" validate:"required_without=Web"`
	Web       *OAuthApp `json:"web,omitempty" validate:"required_without=Installed"`
}

// OAuthApp holds the client credentials of one OAuth client section
type OAuthApp struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url,omitempty" validate:"omitempty,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// App returns whichever client section is present
func (c *OAuthClientConfig) App() *OAuthApp {
	if c.Installed != nil {
		return c.Installed
	}
	return c.Web
}

// OAuthFileName returns the OAuth client file name for an environment, e.g. "oauthClient.prod.json"
func OAuthFileName(env string) string {
	if env == "" {
		return "oauthClient.json"
	}
	return "oauthClient." + env + ".json"
}

// LoadOAuthClientWithEnv finds and loads the OAuth client file of an environment
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	oauthPath, err := findFile(OAuthFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}

	return LoadOAuthClientFromPath(oauthPath)
}

// LoadOAuthClientFromPath loads and validates the OAuth client configuration from a specific path
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	if err := ValidateOAuthClient(&oauthCfg); err != nil {
		return nil, err
	}

	return &oauthCfg, nil
}

func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}
	return nil
}
