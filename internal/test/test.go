// Package test provides small assertion helpers shared by this module's
// test suites, in the style restic's internal/test package is used by
// every _test.go file in this repository.
package test

import (
	"fmt"
	"reflect"
	"testing"
)

// Assert fails the test if cond is false, formatting msg/args as the
// failure message.
func Assert(t testing.TB, cond bool, msg string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(msg, args...)
	}
}

// OK fails the test if err is not nil.
func OK(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// OKs fails the test if any error in errs is not nil.
func OKs(t testing.TB, errs []error) {
	t.Helper()
	for _, err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
	}
}

// Equals fails the test if want and got are not deeply equal.
func Equals(t testing.TB, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("expected equal, got:\nwant: %s\ngot:  %s", fmt.Sprintf("%#v", want), fmt.Sprintf("%#v", got))
	}
}
