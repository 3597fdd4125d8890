// Package ct contains wrappers and interfaces around testing.T.
//
// All parity packages deal with these wrapper interfaces rather than the
// literal testing.T. This lets the suite's client and matchers be driven from
// places that aren't strictly `go test`, such as the CLI's doctor command or
// ad-hoc probing tools.
package ct

// TestLike is an interface that testing.T satisfies. Suite functions accept a
// TestLike with the intention of a `testing.T` being passed in, but any type
// implementing this interface can drive the suite.
type TestLike interface {
	Helper()
	Logf(msg string, args ...interface{})
	Skipf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatalf(msg string, args ...interface{})
	Failed() bool
	Name() string
}

const ansiRedForeground = "\x1b[31m"
const ansiResetForeground = "\x1b[39m"

// Errorf is a wrapper around t.Errorf which prints the failing error message in red.
func Errorf(t TestLike, format string, args ...any) {
	t.Helper()
	format = ansiRedForeground + format + ansiResetForeground
	t.Errorf(format, args...)
}

// Fatalf is a wrapper around t.Fatalf which prints the failing error message in red.
func Fatalf(t TestLike, format string, args ...any) {
	t.Helper()
	format = ansiRedForeground + format + ansiResetForeground
	t.Fatalf(format, args...)
}
