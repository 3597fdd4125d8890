// Package config loads the suite configuration from environment variables.
// Configuration only ever constructs inputs for the test layer; the matching
// engine itself never reads it.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
)

// Suite is the configuration for running parity against a live server.
type Suite struct {
	// ServerURL is the base URL of the configuration-management server under
	// test, e.g. https://chef.example.test
	ServerURL string `env:"PARITY_SERVER_URL"`
	// Org is the organization the suite creates its test objects in.
	Org string `env:"PARITY_ORG,default=parity"`
	// Flavor names the implementation under test: "legacy" or "rewrite".
	// Tests use this to select intentionally divergent expectations.
	Flavor string `env:"PARITY_FLAVOR,default=rewrite"`
	// SuperuserName is the identity with unrestricted API access.
	SuperuserName string `env:"PARITY_SUPERUSER,default=pivotal"`
	// SuperuserKeyPath points at the superuser's PEM-encoded RSA private key.
	SuperuserKeyPath string `env:"PARITY_SUPERUSER_KEY"`
	// Debug enables request/response logging on every requestor.
	Debug bool `env:"PARITY_DEBUG,default=false"`
	// RequestTimeout bounds each HTTP request the suite makes.
	RequestTimeout time.Duration `env:"PARITY_REQUEST_TIMEOUT,default=30s"`
}

// NewFromEnv loads and validates the suite configuration from the process
// environment.
func NewFromEnv(ctx context.Context) (Suite, error) {
	return NewFromLookuper(ctx, envconfig.OsLookuper())
}

// NewFromLookuper is NewFromEnv with a pluggable variable source, which lets
// tests supply an envconfig.MapLookuper.
func NewFromLookuper(ctx context.Context, lookuper envconfig.Lookuper) (Suite, error) {
	var cfg Suite
	if err := envconfig.ProcessWith(ctx, &cfg, lookuper); err != nil {
		return cfg, errors.Wrap(err, "process env config")
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Suite) validate() error {
	if c.Flavor != "legacy" && c.Flavor != "rewrite" {
		return fmt.Errorf("PARITY_FLAVOR must be 'legacy' or 'rewrite', got %q", c.Flavor)
	}
	return nil
}
