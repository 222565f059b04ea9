package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/pkg/errors"

	"github.com/malv/aichat/internal/file"
)

var defaultConfig = Config{
	Backend: &BackendConfig{
		Subdomain:      "local",
		Region:         "us-east-1",
		RequestTimeout: 30,
	},
	SessionFile: "~/.config/aichat/session.json",
	CacheFile:   "~/.config/aichat/cache.db",
}

// Config holds configuration for the aichat tool.
type Config struct {
	Backend *BackendConfig `json:"backend"`

	// The file where the auth session is persisted across runs.
	SessionFile string `json:"session_file"`
	// The sqlite file backing the local query cache.
	CacheFile string `json:"cache_file"`
}

// BackendConfig locates the hosted auth + GraphQL platform.
type BackendConfig struct {
	// Subdomain and region of the hosted backend.
	Subdomain string `json:"subdomain"`
	Region    string `json:"region"`
	// Explicit URL overrides. When set they win over subdomain/region.
	AuthURL      string `json:"auth_url"`
	GraphqlURL   string `json:"graphql_url"`
	GraphqlWSURL string `json:"graphql_ws_url"`
	// Timeout in seconds applied to queries and mutations.
	RequestTimeout int `json:"request_timeout"`
}

// ResolveAuthURL returns the auth API base URL.
func (c *BackendConfig) ResolveAuthURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return fmt.Sprintf("https://%s.auth.%s.nhost.run/v1", c.Subdomain, c.Region)
}

// ResolveGraphqlURL returns the GraphQL HTTP endpoint.
func (c *BackendConfig) ResolveGraphqlURL() string {
	if c.GraphqlURL != "" {
		return c.GraphqlURL
	}
	return fmt.Sprintf("https://%s.graphql.%s.nhost.run/v1", c.Subdomain, c.Region)
}

// ResolveGraphqlWSURL returns the GraphQL WebSocket endpoint.
func (c *BackendConfig) ResolveGraphqlWSURL() string {
	if c.GraphqlWSURL != "" {
		return c.GraphqlWSURL
	}
	httpURL := c.ResolveGraphqlURL()
	if strings.HasPrefix(httpURL, "https://") {
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	}
	if strings.HasPrefix(httpURL, "http://") {
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	return httpURL
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}

	// Fill any field the user left out with the default.
	if err := mergo.Merge(config, defaultConfig); err != nil {
		return nil, errors.Wrap(err, "merging defaults")
	}

	if config.SessionFile, err = file.ExpandPath(config.SessionFile); err != nil {
		return nil, errors.Wrap(err, "expanding session file path")
	}
	if config.CacheFile, err = file.ExpandPath(config.CacheFile); err != nil {
		return nil, errors.Wrap(err, "expanding cache file path")
	}
	return config, nil
}

func initializeIfNotPresent(path string) error {
	exists, err := file.Exists(path)
	if err != nil {
		return errors.Wrap(err, "checking config existence")
	}
	if exists {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	bytes, err := json.MarshalIndent(&defaultConfig, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling default config")
	}
	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return errors.Wrap(err, "writing default config")
	}
	return nil
}
