package mock

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func doSigned(t *testing.T, userID, method, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-Ops-Userid", userID)
		req.Header.Set("X-Ops-Authorization-1", "fake-signature-chunk")
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func readBody(t *testing.T, res *http.Response) []byte {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body
}

func TestAuthGate(t *testing.T) {
	srv, err := NewServer("rewrite")
	require.NoError(t, err)
	defer srv.Close()

	res := doSigned(t, "", "GET", srv.URL+"/organizations/parity/clients", "")
	assert.Equal(t, 401, res.StatusCode)
	readBody(t, res)

	res = doSigned(t, OutsideUser, "GET", srv.URL+"/organizations/parity/clients", "")
	assert.Equal(t, 403, res.StatusCode)
	readBody(t, res)

	res = doSigned(t, "admin", "GET", srv.URL+"/organizations/parity/clients", "")
	assert.Equal(t, 200, res.StatusCode)
	readBody(t, res)
}

func TestStatusDivergence(t *testing.T) {
	legacy, err := NewServer("legacy")
	require.NoError(t, err)
	defer legacy.Close()
	rewrite, err := NewServer("rewrite")
	require.NoError(t, err)
	defer rewrite.Close()

	res := doSigned(t, "", "GET", legacy.URL+"/_status", "")
	require.Equal(t, 200, res.StatusCode)
	body := readBody(t, res)
	assert.False(t, gjson.GetBytes(body, "server_version").Exists())

	res = doSigned(t, "", "GET", rewrite.URL+"/_status", "")
	require.Equal(t, 200, res.StatusCode)
	body = readBody(t, res)
	assert.True(t, gjson.GetBytes(body, "server_version").Exists())
}

func TestNotFoundDivergence(t *testing.T) {
	legacy, err := NewServer("legacy")
	require.NoError(t, err)
	defer legacy.Close()
	rewrite, err := NewServer("rewrite")
	require.NoError(t, err)
	defer rewrite.Close()

	res := doSigned(t, "admin", "GET", legacy.URL+"/organizations/parity/clients/ghost", "")
	require.Equal(t, 404, res.StatusCode)
	body := readBody(t, res)
	assert.Equal(t, "Could not load client ghost", gjson.GetBytes(body, "error.0").Str)

	res = doSigned(t, "admin", "GET", rewrite.URL+"/organizations/parity/clients/ghost", "")
	require.Equal(t, 404, res.StatusCode)
	body = readBody(t, res)
	assert.Equal(t, "not found", gjson.GetBytes(body, "error.0").Str)
}

func TestClientCRUD(t *testing.T) {
	srv, err := NewServer("legacy")
	require.NoError(t, err)
	defer srv.Close()
	base := srv.URL + "/organizations/parity/clients"

	res := doSigned(t, "admin", "POST", base, `{"name": "c1"}`)
	require.Equal(t, 201, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, gjson.GetBytes(body, "uri").Str, "/clients/c1")

	res = doSigned(t, "admin", "POST", base, `{"name": "c1"}`)
	assert.Equal(t, 409, res.StatusCode)
	readBody(t, res)

	res = doSigned(t, "admin", "GET", base+"/c1", "")
	require.Equal(t, 200, res.StatusCode)
	body = readBody(t, res)
	assert.Equal(t, "c1", gjson.GetBytes(body, "name").Str)
	// the legacy flavor exposes the admin flag
	assert.True(t, gjson.GetBytes(body, "admin").Exists())

	res = doSigned(t, "admin", "DELETE", base+"/c1", "")
	assert.Equal(t, 200, res.StatusCode)
	readBody(t, res)

	res = doSigned(t, "admin", "GET", base+"/c1", "")
	assert.Equal(t, 404, res.StatusCode)
	readBody(t, res)
}
