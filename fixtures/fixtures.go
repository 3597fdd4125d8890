// Package fixtures generates the throwaway test data the suite creates on
// the server under test: unique object names and JSON request payloads for
// clients, nodes and roles. Payloads are built by editing canonical JSON
// templates so the on-the-wire field set stays obvious.
package fixtures

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// UniqueName returns a name that will not collide with objects left behind
// by previous suite runs against the same server.
func UniqueName(prefix string) string {
	return fmt.Sprintf("parity-%s-%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// GenerateRSAKey returns a fresh 2048-bit RSA key for a test requestor.
// These keys are ephemeral and never persisted.
func GenerateRSAKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
}

const clientTemplate = `{"name":"","clientname":"","validator":false,"admin":false}`

// ClientBody returns the request payload for creating an API client.
func ClientBody(name string) []byte {
	b := []byte(clientTemplate)
	b, _ = sjson.SetBytes(b, "name", name)
	b, _ = sjson.SetBytes(b, "clientname", name)
	return b
}

// ValidatorClientBody is ClientBody with the validator bit set.
func ValidatorClientBody(name string) []byte {
	b := ClientBody(name)
	b, _ = sjson.SetBytes(b, "validator", true)
	return b
}

const nodeTemplate = `{"name":"","chef_environment":"_default","json_class":"Chef::Node","chef_type":"node","normal":{},"default":{},"override":{},"automatic":{},"run_list":[]}`

// NodeBody returns the request payload for creating a node. Run list items
// are recipe or role identifiers, e.g. "recipe[apache2]".
func NodeBody(name string, runList ...string) []byte {
	b := []byte(nodeTemplate)
	b, _ = sjson.SetBytes(b, "name", name)
	for _, item := range runList {
		b, _ = sjson.SetBytes(b, "run_list.-1", item)
	}
	return b
}

const roleTemplate = `{"name":"","description":"","json_class":"Chef::Role","chef_type":"role","default_attributes":{},"override_attributes":{},"run_list":[],"env_run_lists":{}}`

// RoleBody returns the request payload for creating a role.
func RoleBody(name, description string, runList ...string) []byte {
	b := []byte(roleTemplate)
	b, _ = sjson.SetBytes(b, "name", name)
	b, _ = sjson.SetBytes(b, "description", description)
	for _, item := range runList {
		b, _ = sjson.SetBytes(b, "run_list.-1", item)
	}
	return b
}
