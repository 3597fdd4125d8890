package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parityhq/parity/config"
)

func TestNewFromLookuperDefaults(t *testing.T) {
	cfg, err := config.NewFromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"PARITY_SERVER_URL": "http://localhost:8000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, "parity", cfg.Org)
	assert.Equal(t, "rewrite", cfg.Flavor)
	assert.Equal(t, "pivotal", cfg.SuperuserName)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Debug)
}

func TestNewFromLookuperOverrides(t *testing.T) {
	cfg, err := config.NewFromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"PARITY_SERVER_URL":      "https://chef.example.test",
		"PARITY_ORG":             "acme",
		"PARITY_FLAVOR":          "legacy",
		"PARITY_DEBUG":           "true",
		"PARITY_REQUEST_TIMEOUT": "5s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Org)
	assert.Equal(t, "legacy", cfg.Flavor)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestNewFromLookuperRejectsUnknownFlavor(t *testing.T) {
	_, err := config.NewFromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"PARITY_FLAVOR": "experimental",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARITY_FLAVOR")
}
