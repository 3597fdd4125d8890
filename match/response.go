package match

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/tidwall/gjson"
	"golang.org/x/exp/slices"
)

// Response is a fully-read HTTP response under test. By the time a Response
// reaches the matcher any transport concerns (timeouts, connection errors)
// have already been reported by the client layer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON parses the body as a JSON object. Parsing is deferred to here, and
// only runs when a Body or BodyExact check asks for it, so responses with
// deliberately empty or non-JSON bodies can still be checked for status or
// raw content.
func (r *Response) JSON() (map[string]any, error) {
	if !gjson.ValidBytes(r.Body) {
		return nil, fmt.Errorf("body is not valid JSON")
	}
	obj, ok := gjson.ParseBytes(r.Body).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("body is valid JSON but not an object")
	}
	return obj, nil
}

// ExpectedResponse describes what an HTTP response must satisfy to pass a
// test. Every field is optional and the populated fields combine; a zero
// ExpectedResponse matches anything. Fields the matcher does not recognise
// simply don't exist here, which keeps specifications forward-compatible.
type ExpectedResponse struct {
	// StatusCode is the single acceptable status code. Zero means the
	// status is not checked.
	StatusCode int
	// StatusCodeIn is a set of acceptable status codes. When populated it
	// takes precedence over StatusCode.
	StatusCodeIn []int
	// Headers maps header names to expected values, compared by literal
	// equality only. Use a Body pattern if a header needs regex matching.
	Headers map[string]string
	// Body maps field names to expected values. Fields of the actual body
	// not listed here are ignored.
	Body map[string]any
	// BodyExact is like Body but additionally requires the actual body's
	// key set to equal this mapping's key set, in both directions. Only one
	// of Body/BodyExact is meaningful per specification.
	BodyExact map[string]any
	// BodyRaw, when non-nil, requires the raw unparsed body to equal this
	// string exactly. Useful for endpoints that return empty or non-JSON
	// bodies. A pointer so that the empty string is a meaningful
	// expectation.
	BodyRaw *string
}

// Match runs every check the specification requests against the response,
// in a fixed order, stopping at the first failure: status, raw body,
// headers, then parsed body. The returned error names the offending check
// together with the expected and actual values, and is suitable for direct
// display to whoever is running the suite. A nil error means every
// requested check passed.
func Match(res *Response, want ExpectedResponse) error {
	if want.StatusCode != 0 || len(want.StatusCodeIn) > 0 {
		if !statusMatches(res.StatusCode, want.StatusCode, want.StatusCodeIn) {
			return fmt.Errorf("got status %d want %s", res.StatusCode, describeStatus(want))
		}
	}
	if want.BodyRaw != nil {
		if string(res.Body) != *want.BodyRaw {
			return fmt.Errorf("got raw body %q want %q", string(res.Body), *want.BodyRaw)
		}
	}
	for _, name := range sortedKeys(want.Headers) {
		if !headerMatches(res.Header.Get(name), want.Headers[name]) {
			return fmt.Errorf("got header %s: %q want %q", name, res.Header.Get(name), want.Headers[name])
		}
	}

	wantBody := want.Body
	exact := false
	if want.BodyExact != nil {
		wantBody = want.BodyExact
		exact = true
	}
	if wantBody == nil {
		return nil
	}
	parsed, err := res.JSON()
	if err != nil {
		// distinct from a field-level mismatch: the response wasn't even
		// structured data
		return fmt.Errorf("response body was not valid JSON: %s (body: %q)", err, string(res.Body))
	}
	if exact {
		// a missing key fails before any value comparison runs, and extra
		// keys fail symmetrically
		for _, key := range sortedKeys(wantBody) {
			if _, ok := parsed[key]; !ok {
				return fmt.Errorf("body is missing key %q", key)
			}
		}
		for _, key := range sortedKeys(parsed) {
			if _, ok := wantBody[key]; !ok {
				return fmt.Errorf("body has unexpected key %q", key)
			}
		}
	}
	for _, key := range sortedKeys(wantBody) {
		if err := matchEntry(key, wantBody[key], parsed); err != nil {
			return err
		}
	}
	return nil
}

// statusMatches reports whether the actual status code is acceptable:
// membership when a set of codes was given, exact equality otherwise.
func statusMatches(got, want int, wantIn []int) bool {
	if len(wantIn) > 0 {
		return slices.Contains(wantIn, got)
	}
	return got == want
}

// headerMatches is literal equality only. Regex matching of headers, where
// a test needs it, is done by the caller through Compare.
func headerMatches(got, want string) bool {
	return got == want
}

func describeStatus(want ExpectedResponse) string {
	if len(want.StatusCodeIn) > 0 {
		return fmt.Sprintf("one of %v", want.StatusCodeIn)
	}
	return fmt.Sprintf("%d", want.StatusCode)
}

// sortedKeys keeps check order deterministic so a spec with several
// failing entries always reports the same one first.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
