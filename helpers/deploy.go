// Package helpers bootstraps deployments and requestor identities for
// scenario tests.
package helpers

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/parityhq/parity/client"
	"github.com/parityhq/parity/config"
	"github.com/parityhq/parity/ct"
	"github.com/parityhq/parity/fixtures"
	"github.com/parityhq/parity/internal/mock"
	"github.com/parityhq/parity/runtime"
)

// Deployment is a server under test plus the standard cast of requestor
// identities the scenarios exercise.
type Deployment struct {
	// Server is non-nil for mock deployments and nil when the suite was
	// pointed at a live server.
	Server *mock.Server
	Org    string

	// Superuser has unrestricted API access.
	Superuser *client.Requestor
	// Admin is a regular member of the organization.
	Admin *client.Requestor
	// Outside is a valid identity that is not a member of the organization;
	// requests authenticate but fail authorization.
	Outside *client.Requestor
	// Anonymous sends unsigned requests.
	Anonymous *client.Requestor
}

// Deploy starts an in-process mock server behaving like the given
// implementation flavor and returns a deployment wired to it. It also
// records the flavor in the runtime package so scenario code can select
// flavor-conditional expectations. Call Destroy when done.
func Deploy(t ct.TestLike, flavor string) *Deployment {
	t.Helper()
	srv, err := mock.NewServer(flavor)
	if err != nil {
		ct.Fatalf(t, "helpers.Deploy: %s", err)
	}
	runtime.Flavor = flavor

	d := &Deployment{
		Server: srv,
		Org:    "parity",
	}
	d.Superuser = d.newRequestor(t, "pivotal", srv.URL)
	d.Admin = d.newRequestor(t, "admin", srv.URL)
	d.Outside = d.newRequestor(t, mock.OutsideUser, srv.URL)
	d.Anonymous = &client.Requestor{Name: "anonymous", BaseURL: srv.URL}
	return d
}

// DeployLive returns a deployment pointed at the live server named by the
// suite configuration. The superuser signs with the key provisioned out of
// band at cfg.SuperuserKeyPath; the other identities are created by the
// caller through the superuser.
func DeployLive(t ct.TestLike, cfg config.Suite) *Deployment {
	t.Helper()
	runtime.Flavor = cfg.Flavor
	key, err := loadPrivateKey(cfg.SuperuserKeyPath)
	if err != nil {
		ct.Fatalf(t, "helpers.DeployLive: load superuser key: %s", err)
	}
	d := &Deployment{Org: cfg.Org}
	d.Superuser = &client.Requestor{
		Name:    cfg.SuperuserName,
		Signer:  &client.HeaderSigner{PrivateKey: key},
		BaseURL: cfg.ServerURL,
		Client:  &http.Client{Timeout: cfg.RequestTimeout},
		Debug:   cfg.Debug,
	}
	return d
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s is not PEM-encoded", path)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s does not contain an RSA key", path)
	}
	return key, nil
}

func (d *Deployment) newRequestor(t ct.TestLike, name, baseURL string) *client.Requestor {
	t.Helper()
	key, err := fixtures.GenerateRSAKey()
	if err != nil {
		ct.Fatalf(t, "helpers: generate key for %s: %s", name, err)
	}
	return &client.Requestor{
		Name:    name,
		Signer:  &client.HeaderSigner{PrivateKey: key},
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// OrgPath prefixes paths with this deployment's organization, so tests can
// write d.OrgPath("clients", name).
func (d *Deployment) OrgPath(paths ...string) []string {
	return append([]string{"organizations", d.Org}, paths...)
}

// Destroy shuts the deployment down. Safe to call on live deployments.
func (d *Deployment) Destroy() {
	if d.Server != nil {
		d.Server.Close()
	}
}
