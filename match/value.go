// Package match compares actual HTTP responses against declarative expected
// response specifications.
//
// The entry point is Match, which takes a fully-read Response and an
// ExpectedResponse and returns an error describing the first failed check, or
// nil if every requested check passed. Matchers have no concept of tests and
// never fail a test themselves; the 'should' package annotates match errors
// with request context and the 'must' package turns them into test failures:
//
//	res := admin.Do(t, "GET", []string{"clients", name})
//	must.MatchResponse(t, res, match.ExpectedResponse{
//		StatusCode: 200,
//		Body: map[string]any{
//			"name":      name,
//			"validator": false,
//		},
//	})
//
// Matching is stateless and safe to run from many tests concurrently.
package match

import (
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
)

// valueKind enumerates the shapes an expected value can take. Compare
// switches exhaustively over this tag rather than inspecting types inline,
// so every comparison mode is spelled out in one place.
type valueKind int

const (
	kindLiteral valueKind = iota
	kindPattern
	kindSequence
	kindMapping
)

func classify(expected any) valueKind {
	switch expected.(type) {
	case *regexp.Regexp:
		return kindPattern
	case []any:
		return kindSequence
	case map[string]any:
		return kindMapping
	default:
		return kindLiteral
	}
}

// Compare checks a single expected value against a single actual value. The
// comparison mode is picked from the shape of the expected value:
//
//   - *regexp.Regexp: the actual value, in its textual form, must match.
//   - []any: order-independent sequence comparison, see sequenceMatches.
//   - map[string]any: every entry must be satisfied by the actual value,
//     which must itself be a mapping. Extra keys in the actual mapping are
//     always permitted here, even when the enclosing check is BodyExact.
//   - anything else: JSON value equality. Type-sensitive, so the string "1"
//     never equals the number 1, but 1 and 1.0 are the same JSON number.
//
// A shape disagreement (say, expecting a mapping but finding a string) is a
// normal comparison failure, never a panic. Neither input is mutated.
func Compare(expected, actual any) bool {
	expected = normalize(expected)
	switch classify(expected) {
	case kindPattern:
		return expected.(*regexp.Regexp).MatchString(stringify(actual))
	case kindSequence:
		return sequenceMatches(expected.([]any), actual)
	case kindMapping:
		return mappingMatches(expected.(map[string]any), actual)
	default:
		return JSONDeepEqual(expected, actual)
	}
}

// normalize rewrites convenience forms of an expected value into the shapes
// classify understands: any slice becomes []any and any string-keyed map
// becomes map[string]any, recursively, so tests can write []string{"a", "b"}
// or map[string]string literals. Patterns are kept as-is at every depth.
func normalize(v any) any {
	switch v.(type) {
	case nil, *regexp.Regexp, []byte:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

// sequenceMatches compares two sequences ignoring order. When both sides
// carry a total order (all strings, or all numbers) each side is sorted and
// compared element-wise. Otherwise it falls back to a set-style check: equal
// length, and every expected element present somewhere in the actual
// sequence by exact equality. The fallback never applies regex or partial
// matching to individual elements; element checks in both paths are exact.
func sequenceMatches(expected []any, actual any) bool {
	actualSeq, ok := actual.([]any)
	if !ok {
		// covers absent/null actuals and shape mismatches
		return false
	}
	sortedWant, wantOK := sortedScalars(expected)
	sortedGot, gotOK := sortedScalars(actualSeq)
	if wantOK && gotOK {
		if len(sortedWant) != len(sortedGot) {
			return false
		}
		for i := range sortedWant {
			if !JSONDeepEqual(sortedWant[i], sortedGot[i]) {
				return false
			}
		}
		return true
	}
	if len(actualSeq) != len(expected) {
		return false
	}
	for _, want := range expected {
		if !sequenceContains(actualSeq, want) {
			return false
		}
	}
	return true
}

// sortedScalars returns a sorted copy of seq when its elements support a
// total order, i.e. they are all strings or all numbers. Sortability is an
// explicit capability check here; mixed or structured elements simply report
// ok=false and the caller branches to the unordered fallback.
func sortedScalars(seq []any) (sorted []any, ok bool) {
	strs := make([]string, 0, len(seq))
	nums := make([]float64, 0, len(seq))
	for _, el := range seq {
		switch v := el.(type) {
		case string:
			strs = append(strs, v)
		case float64:
			nums = append(nums, v)
		case int:
			nums = append(nums, float64(v))
		case int64:
			nums = append(nums, float64(v))
		default:
			return nil, false
		}
	}
	if len(strs) > 0 && len(nums) > 0 {
		return nil, false
	}
	sorted = make([]any, 0, len(seq))
	if len(nums) > 0 {
		sort.Float64s(nums)
		for _, n := range nums {
			sorted = append(sorted, n)
		}
		return sorted, true
	}
	sort.Strings(strs)
	for _, s := range strs {
		sorted = append(sorted, s)
	}
	return sorted, true
}

func sequenceContains(seq []any, want any) bool {
	for _, el := range seq {
		if JSONDeepEqual(want, el) {
			return true
		}
	}
	return false
}

func mappingMatches(expected map[string]any, actual any) bool {
	target, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for key, want := range expected {
		if err := matchEntry(key, want, target); err != nil {
			return false
		}
	}
	return true
}

// JSONDeepEqual reports whether two values are equal once both are reduced
// to their canonical JSON encoding. Marshalling both sides accounts for key
// ordering and numeric representation while keeping the comparison
// type-sensitive across JSON types. A pattern is never literally equal to
// anything; patterns only match through Compare.
func JSONDeepEqual(want, got any) bool {
	if _, ok := want.(*regexp.Regexp); ok {
		return false
	}
	if _, ok := got.(*regexp.Regexp); ok {
		return false
	}
	wantBytes, err := json.Marshal(want)
	if err != nil {
		return false
	}
	gotBytes, err := json.Marshal(got)
	if err != nil {
		return false
	}
	return bytes.Equal(wantBytes, gotBytes)
}

// stringify renders an actual value in the textual form pattern matching
// runs against. Strings are used verbatim; everything else takes its JSON
// encoding, with absent values rendered as the empty string so anchored
// patterns fail to match them naturally.
func stringify(actual any) string {
	switch v := actual.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	b, err := json.Marshal(actual)
	if err != nil {
		return ""
	}
	return string(b)
}
