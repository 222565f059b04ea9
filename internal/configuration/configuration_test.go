package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInitializesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config, err := Parse(path)
	require.NoError(t, err)

	// The file is created on first parse.
	_, err = os.Stat(path)
	require.NoError(t, err)

	assert.Equal(t, "local", config.Backend.Subdomain)
	assert.Equal(t, 30, config.Backend.RequestTimeout)
	assert.NotEmpty(t, config.SessionFile)
	assert.NotEmpty(t, config.CacheFile)
}

func TestParseMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	partial := map[string]any{
		"backend": map[string]any{"subdomain": "myapp"},
	}
	bytes, err := json.Marshal(partial)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bytes, 0644))

	config, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "myapp", config.Backend.Subdomain)
	assert.Equal(t, "us-east-1", config.Backend.Region)
	assert.Equal(t, 30, config.Backend.RequestTimeout)
}

func TestResolveURLs(t *testing.T) {
	backend := &BackendConfig{Subdomain: "myapp", Region: "eu-central-1"}
	assert.Equal(t, "https://myapp.auth.eu-central-1.nhost.run/v1", backend.ResolveAuthURL())
	assert.Equal(t, "https://myapp.graphql.eu-central-1.nhost.run/v1", backend.ResolveGraphqlURL())
	assert.Equal(t, "wss://myapp.graphql.eu-central-1.nhost.run/v1", backend.ResolveGraphqlWSURL())
}

func TestResolveURLOverrides(t *testing.T) {
	backend := &BackendConfig{
		GraphqlURL: "http://localhost:8080/v1/graphql",
	}
	assert.Equal(t, "http://localhost:8080/v1/graphql", backend.ResolveGraphqlURL())
	assert.Equal(t, "ws://localhost:8080/v1/graphql", backend.ResolveGraphqlWSURL())
}
