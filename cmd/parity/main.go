// parity is a helper CLI for running the conformance suite. The suite itself
// runs via `go test ./tests/...`; this binary exists for everything around
// that: checking that the environment is wired up correctly and that the
// target server is reachable before burning time on a full run.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parityhq/parity/config"
	"github.com/parityhq/parity/match"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "parity",
		Short: "Conformance suite tooling for the configuration-management server API",
	}
	root.AddCommand(versionCmd(), doctorCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the parity version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and check the target server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := config.NewFromEnv(ctx)
			if err != nil {
				return err
			}
			log := logrus.WithFields(logrus.Fields{
				"server": cfg.ServerURL,
				"flavor": cfg.Flavor,
				"org":    cfg.Org,
			})
			if cfg.ServerURL == "" {
				log.Error("PARITY_SERVER_URL is not set")
				fmt.Println(color.RedString("✗ no server configured"))
				return fmt.Errorf("no server configured")
			}

			httpClient := &http.Client{Timeout: 10 * time.Second}
			res, err := httpClient.Get(cfg.ServerURL + "/_status")
			if err != nil {
				log.WithError(err).Error("status endpoint unreachable")
				fmt.Println(color.RedString("✗ %s is unreachable", cfg.ServerURL))
				return err
			}
			defer res.Body.Close()

			if err := checkStatus(res); err != nil {
				log.WithError(err).Error("status endpoint misbehaving")
				fmt.Println(color.RedString("✗ %s", err))
				return err
			}
			log.Info("server is up")
			fmt.Println(color.GreenString("✓ %s is up (flavor: %s)", cfg.ServerURL, cfg.Flavor))
			return nil
		},
	}
}

// checkStatus reuses the suite's own matcher so doctor agrees with the
// tests about what a healthy status endpoint looks like.
func checkStatus(res *http.Response) error {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return match.Match(&match.Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, match.ExpectedResponse{
		StatusCode: 200,
		Body:       map[string]any{"status": "pong"},
	})
}
