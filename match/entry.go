package match

import (
	"fmt"
	"regexp"
)

// matchEntry checks that target satisfies a single expected key/value pair.
// A missing key is looked up as nil and compared normally, which matters
// under BodyExact where the key-set check has already run. The failure
// description is only assembled on the failure path; nothing is allocated
// when the entry matches.
func matchEntry(key string, expected any, target map[string]any) error {
	actual := target[key]
	if Compare(expected, actual) {
		return nil
	}
	return fmt.Errorf(
		`"%s" should match "%v", but we got "%v" instead.`,
		key, displayValue(expected), displayValue(actual),
	)
}

// displayValue renders a value for a failure description. Patterns keep
// their slash-delimited form so the message distinguishes /^foo/ from the
// literal string "^foo".
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case *regexp.Regexp:
		return "/" + val.String() + "/"
	}
	return fmt.Sprintf("%v", v)
}
