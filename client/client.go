// Package client performs signed HTTP requests against the server under
// test on behalf of a requestor identity. The matcher layer treats this
// package as a black box that produces *http.Response values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parityhq/parity/ct"
)

type ctxKey string

const (
	// CtxKeyWithRetryUntil contains *retryUntilParams
	CtxKeyWithRetryUntil ctxKey = "parity_retry_until"
)

type retryUntilParams struct {
	timeout time.Duration
	untilFn func(*http.Response) bool
}

// RequestOpt is a functional option which will modify an outgoing HTTP
// request. See functions starting with `With...` in this package for more
// info.
type RequestOpt func(req *http.Request)

// Requestor is an identity that signs and sends requests: the superuser, an
// org admin, a regular client, a user from another org, and so on. Which
// identity sends a request is what the authorization-level tests vary.
type Requestor struct {
	// Name is the identity the request is attributed to, sent in the
	// X-Ops-Userid header and covered by the signature.
	Name string
	// Signer produces the authentication headers. A nil Signer sends the
	// request unsigned, which tests use to provoke 401s.
	Signer Signer
	// BaseURL is the root of the server under test, without a trailing slash.
	BaseURL string
	Client  *http.Client
	// Debug enables request/response logging.
	Debug bool
}

// WithRawBody sets the HTTP request body to `body`
func WithRawBody(body []byte) RequestOpt {
	return func(req *http.Request) {
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			r := bytes.NewReader(body)
			return io.NopCloser(r), nil
		}
		// we need to manually set this because we don't set the body
		// in http.NewRequest due to using functional options, and only in
		// NewRequest does the stdlib set this for us.
		req.ContentLength = int64(len(body))
	}
}

// WithJSONBody sets the HTTP request body to the JSON serialised form of `obj`
func WithJSONBody(t ct.TestLike, obj interface{}) RequestOpt {
	return func(req *http.Request) {
		t.Helper()
		b, err := json.Marshal(obj)
		if err != nil {
			ct.Fatalf(t, "Requestor.Do failed to marshal JSON body: %s", err)
		}
		WithRawBody(b)(req)
	}
}

// WithContentType sets the HTTP request Content-Type header to `cType`
func WithContentType(cType string) RequestOpt {
	return func(req *http.Request) {
		req.Header.Set("Content-Type", cType)
	}
}

// WithQueries sets the query parameters on the request.
func WithQueries(q url.Values) RequestOpt {
	return func(req *http.Request) {
		req.URL.RawQuery = q.Encode()
	}
}

// WithRetryUntil will retry the request until the provided function returns
// true. Times out after `timeout`, which will then fail the test. Useful for
// endpoints that converge asynchronously, such as search indexes.
func WithRetryUntil(timeout time.Duration, untilFn func(res *http.Response) bool) RequestOpt {
	return func(req *http.Request) {
		until := req.Context().Value(CtxKeyWithRetryUntil).(*retryUntilParams)
		until.timeout = timeout
		until.untilFn = untilFn
	}
}

// MustDo is the same as Do but fails the test if the returned HTTP response
// code is not 2xx.
func (r *Requestor) MustDo(t ct.TestLike, method string, paths []string, opts ...RequestOpt) *http.Response {
	t.Helper()
	res := r.Do(t, method, paths, opts...)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		ct.Fatalf(t, "Requestor.MustDo %s %s returned non-2xx code: %s - body: %s", method, res.Request.URL.String(), res.Status, string(body))
	}
	return res
}

// Do performs an arbitrary HTTP request to the server as this requestor,
// signing it when the requestor has a signer. This function supports
// RequestOpts to set extra information on the request such as an HTTP
// request body, query parameters and content-type.
//
// Fails the test if an HTTP request could not be made or if there was a
// network error talking to the server. To do assertions on the HTTP
// response, see the `must` package. For example:
//
//	must.MatchResponse(t, res, match.ExpectedResponse{
//		StatusCode: 404,
//		Body: map[string]any{
//			"error": []any{"client not found"},
//		},
//	})
func (r *Requestor) Do(t ct.TestLike, method string, paths []string, opts ...RequestOpt) *http.Response {
	t.Helper()
	escapedPaths := make([]string, len(paths))
	for i := range paths {
		escapedPaths[i] = url.PathEscape(paths[i])
	}
	reqURL := r.BaseURL + "/" + strings.Join(escapedPaths, "/")
	req, err := http.NewRequest(method, reqURL, nil)
	if err != nil {
		ct.Fatalf(t, "Requestor.Do failed to create http.NewRequest: %s", err)
	}
	retryUntil := &retryUntilParams{}
	ctx := context.WithValue(req.Context(), CtxKeyWithRetryUntil, retryUntil)
	req = req.WithContext(ctx)

	// set functional options
	for _, o := range opts {
		o(req)
	}
	// set defaults after RequestOpts
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	// sign last so the signature covers the final body
	if r.Signer != nil {
		if err := r.Signer.SignRequest(req, r.Name); err != nil {
			ct.Fatalf(t, "Requestor.Do failed to sign request: %s", err)
		}
	}
	if r.Debug {
		logrus.WithFields(logrus.Fields{
			"requestor": r.Name,
			"method":    method,
			"url":       req.URL.String(),
		}).Debug("sending request")
	}
	httpClient := r.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	now := time.Now()
	for {
		res, err := httpClient.Do(req)
		if err != nil {
			ct.Fatalf(t, "Requestor.Do response returned error: %s", err)
		}
		if retryUntil == nil || retryUntil.timeout == 0 {
			return res // don't retry
		}

		// check the condition, make a copy of the response body first in
		// case the check consumes it
		var resBody []byte
		if res.Body != nil {
			resBody, err = io.ReadAll(res.Body)
			if err != nil {
				ct.Fatalf(t, "Requestor.Do failed to read response body for RetryUntil check: %s", err)
			}
			res.Body = io.NopCloser(bytes.NewBuffer(resBody))
		}
		if retryUntil.untilFn(res) {
			// remake the response and return
			res.Body = io.NopCloser(bytes.NewBuffer(resBody))
			return res
		}
		// condition not satisfied, do we timeout yet?
		if time.Since(now) > retryUntil.timeout {
			ct.Fatalf(t, "Requestor.Do RetryUntil: %v %v timed out after %v", method, req.URL, retryUntil.timeout)
		}
		t.Logf("Requestor.Do RetryUntil: %v %v response condition not yet met, retrying", method, req.URL)
		// small sleep to avoid tight-looping
		time.Sleep(100 * time.Millisecond)
	}
}

// NewLoggedClient returns an http.Client which logs requests/responses.
func NewLoggedClient(t ct.TestLike, requestorName string, cli *http.Client) *http.Client {
	t.Helper()
	if cli == nil {
		cli = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	transport := cli.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	cli.Transport = &loggedRoundTripper{t, requestorName, transport}
	return cli
}

type loggedRoundTripper struct {
	t    ct.TestLike
	name string
	wrap http.RoundTripper
}

func (l *loggedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := l.wrap.RoundTrip(req)
	if err != nil {
		l.t.Logf("[%s] %s %s => error: %s (%s)", l.name, req.Method, req.URL.Path, err, time.Since(start))
	} else {
		l.t.Logf("[%s] %s %s => %s (%s)", l.name, req.Method, req.URL.Path, res.Status, time.Since(start))
	}
	return res, err
}
