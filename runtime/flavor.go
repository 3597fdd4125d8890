// Package runtime tracks which server implementation the suite is currently
// pointed at. Two implementations of the API exist - the legacy server and
// its rewrite - and a handful of endpoints intentionally diverge between
// them. Scenario code uses this package to skip tests or pick expectations
// per flavor; the matching engine itself has no flavor awareness.
package runtime

import (
	"github.com/parityhq/parity/ct"
	"github.com/parityhq/parity/match"
)

const (
	Legacy  = "legacy"
	Rewrite = "rewrite"
)

// Flavor is the implementation under test, set once at suite startup from
// configuration (see helpers.Deploy and config.Suite.Flavor).
var Flavor string

// SkipIf skips the test (via t.Skipf) if the implementation being tested
// matches one of the given flavors, else returns.
func SkipIf(t ct.TestLike, flavors ...string) {
	t.Helper()
	for _, f := range flavors {
		if Flavor == f {
			t.Skipf("skipped on %s", f)
			return
		}
	}
	if Flavor == "" {
		// impossible to know what implementation is running; warn and
		// execute the test anyway
		t.Logf(
			"WARNING: %s called runtime.SkipIf(%v) but parity doesn't know which implementation is running as PARITY_FLAVOR was not set: executing test.",
			t.Name(), flavors,
		)
	}
}

// Select returns the expected response for the current flavor. Use it where
// the two implementations legitimately respond differently to the same
// request and both behaviors are documented as acceptable. When the flavor
// is unknown the rewrite's expectation is used.
func Select(legacy, rewrite match.ExpectedResponse) match.ExpectedResponse {
	if Flavor == Legacy {
		return legacy
	}
	return rewrite
}
