package fixtures_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/parityhq/parity/fixtures"
)

func TestUniqueName(t *testing.T) {
	a := fixtures.UniqueName("client")
	b := fixtures.UniqueName("client")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "parity-client-")
}

func TestClientBody(t *testing.T) {
	body := fixtures.ClientBody("alice")
	require.True(t, gjson.ValidBytes(body))
	assert.Equal(t, "alice", gjson.GetBytes(body, "name").Str)
	assert.Equal(t, "alice", gjson.GetBytes(body, "clientname").Str)
	assert.False(t, gjson.GetBytes(body, "validator").Bool())

	validator := fixtures.ValidatorClientBody("alice-validator")
	assert.True(t, gjson.GetBytes(validator, "validator").Bool())
}

func TestNodeBody(t *testing.T) {
	body := fixtures.NodeBody("node-1", "recipe[apache2]", "role[base]")
	require.True(t, gjson.ValidBytes(body))
	assert.Equal(t, "node-1", gjson.GetBytes(body, "name").Str)
	assert.Equal(t, "_default", gjson.GetBytes(body, "chef_environment").Str)

	runList := gjson.GetBytes(body, "run_list").Array()
	require.Len(t, runList, 2)
	assert.Equal(t, "recipe[apache2]", runList[0].Str)
	assert.Equal(t, "role[base]", runList[1].Str)
}

func TestRoleBody(t *testing.T) {
	body := fixtures.RoleBody("base", "the base role", "recipe[ntp]")
	require.True(t, gjson.ValidBytes(body))
	assert.Equal(t, "base", gjson.GetBytes(body, "name").Str)
	assert.Equal(t, "the base role", gjson.GetBytes(body, "description").Str)
	assert.Len(t, gjson.GetBytes(body, "run_list").Array(), 1)
}
