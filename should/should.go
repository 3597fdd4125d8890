// Package should contains assertions for tests, which return an error if the
// assertion fails. Use the 'must' package when a failed assertion should
// terminate the test instead.
package should

import (
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"golang.org/x/exp/slices"

	"github.com/parityhq/parity/match"
)

// ParseJSON will ensure that the HTTP request/response body is valid JSON,
// then return the body, else returns an error.
func ParseJSON(b io.ReadCloser) (res gjson.Result, err error) {
	body, err := io.ReadAll(b)
	if err != nil {
		return res, fmt.Errorf("ParseJSON: reading body returned %s", err)
	}
	if !gjson.ValidBytes(body) {
		return res, fmt.Errorf("ParseJSON: not valid JSON")
	}
	return gjson.ParseBytes(body), nil
}

// MatchSuccess consumes the HTTP response and fails if the response is non-2xx.
func MatchSuccess(res *http.Response) error {
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("MatchSuccess got status %d instead of a success code", res.StatusCode)
	}
	return nil
}

// MatchFailure consumes the HTTP response and fails if the response is 2xx.
func MatchFailure(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return fmt.Errorf("MatchFailure got status %d instead of a failure code", res.StatusCode)
	}
	return nil
}

// MatchResponse consumes the HTTP response and matches it against the
// expected response specification. The error, if any, is the matcher's
// failure description annotated with the request URL and body so operators
// can see which request misbehaved. Returns the raw response body.
func MatchResponse(res *http.Response, want match.ExpectedResponse) ([]byte, error) {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("MatchResponse: failed to read response body: %s", err)
	}

	err = match.Match(&match.Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, want)
	if err != nil {
		contextStr := ""
		if res.Request != nil {
			contextStr = " - " + res.Request.URL.String()
		}
		return nil, fmt.Errorf("MatchResponse %s%s => %s", err, contextStr, string(body))
	}
	return body, nil
}

// GetJSONFieldStr extracts the string value under `wantKey` or returns an
// error. The format of `wantKey` is specified at
// https://godoc.org/github.com/tidwall/gjson#Get
func GetJSONFieldStr(body gjson.Result, wantKey string) (string, error) {
	res := body.Get(wantKey)
	if !res.Exists() {
		return "", fmt.Errorf("GetJSONFieldStr: key '%s' missing from %s", wantKey, body.Raw)
	}
	if res.Str == "" {
		return "", fmt.Errorf("GetJSONFieldStr: key '%s' is not a string, body: %s", wantKey, body.Raw)
	}
	return res.Str, nil
}

// HaveInOrder checks that the two slices match exactly, in order.
func HaveInOrder[V comparable](gots []V, wants []V) error {
	if len(gots) != len(wants) {
		return fmt.Errorf("HaveInOrder: length mismatch, got %v want %v", gots, wants)
	}
	for i := range gots {
		if gots[i] != wants[i] {
			return fmt.Errorf("HaveInOrder: index %d got %v want %v", i, gots[i], wants[i])
		}
	}
	return nil
}

// ContainSubset checks that every item in smaller is in larger. Ignores extra
// elements in larger. Ignores ordering.
func ContainSubset[V comparable](larger []V, smaller []V) error {
	if len(larger) < len(smaller) {
		return fmt.Errorf("ContainSubset: length mismatch, larger=%d smaller=%d", len(larger), len(smaller))
	}
	for i, item := range smaller {
		if !slices.Contains(larger, item) {
			return fmt.Errorf("ContainSubset: element not found in larger set: smaller[%d] (%v) larger=%v", i, item, larger)
		}
	}
	return nil
}

// NotContainSubset checks that every item in smaller is NOT in larger.
// Ignores extra elements in larger. Ignores ordering.
func NotContainSubset[V comparable](larger []V, smaller []V) error {
	if len(larger) < len(smaller) {
		return fmt.Errorf("NotContainSubset: length mismatch, larger=%d smaller=%d", len(larger), len(smaller))
	}
	for i, item := range smaller {
		if slices.Contains(larger, item) {
			return fmt.Errorf("NotContainSubset: element found in larger set: smaller[%d] (%v)", i, item)
		}
	}
	return nil
}

// CheckOffAll checks that a list contains exactly the given items, in any
// order.
//
// If an item is not present, an error is returned.
// If an item not present in the want list is present, an error is returned.
// Items are compared using match.JSONDeepEqual.
func CheckOffAll(items []interface{}, wantItems []interface{}) error {
	remaining, err := CheckOffAllAllowUnwanted(items, wantItems)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return fmt.Errorf("CheckOffAll: unexpected items %v", remaining)
	}
	return nil
}

// CheckOffAllAllowUnwanted checks that a list contains all of the given
// items, in any order. The updated list with the matched items removed from
// it is returned.
//
// If an item is not present, an error is returned.
// Items are compared using match.JSONDeepEqual.
func CheckOffAllAllowUnwanted(items []interface{}, wantItems []interface{}) ([]interface{}, error) {
	var err error
	for _, wantItem := range wantItems {
		items, err = CheckOff(items, wantItem)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// CheckOff an item from the list. If the item is not present an error is
// returned. The updated list with the matched item removed from it is
// returned. Items are compared using match.JSONDeepEqual.
func CheckOff(items []interface{}, wantItem interface{}) ([]interface{}, error) {
	want := -1
	for i, w := range items {
		if match.JSONDeepEqual(wantItem, w) {
			want = i
			break
		}
	}
	if want == -1 {
		return nil, fmt.Errorf("CheckOff: item %v not present", wantItem)
	}
	// delete the wanted item
	items = append(items[:want], items[want+1:]...)
	return items, nil
}
