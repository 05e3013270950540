// Package check provides the comparison helpers test bodies record
// expectations with.
//
// Every helper returns the outcome of its check. Expect variants are
// non-fatal: they record and the body continues. Assert variants record
// identically and exist so fatal call sites read as such; the early return
// stays at the call site, which is the only place Go can put it:
//
//	if !check.AssertNoError(err) {
//		return
//	}
//
// Helpers render the expression from evaluated operands ("3 == 4"), since
// source text is not available at run time, and capture the call-site line
// for the expectation record.
package check

import (
	"cmp"
	"fmt"
	"runtime"

	"github.com/roach88/kiln"
)

// callerLine ascends skip frames to the test body that invoked the helper.
func callerLine(skip int) int {
	_, _, line, _ := runtime.Caller(skip)
	return line
}

func render(lhs any, op string, rhs any) string {
	return fmt.Sprintf("%v %s %v", lhs, op, rhs)
}

func eq[T comparable](a, b T) bool  { return a == b }
func ne[T comparable](a, b T) bool  { return a != b }
func lt[T cmp.Ordered](a, b T) bool { return a < b }
func le[T cmp.Ordered](a, b T) bool { return a <= b }
func gt[T cmp.Ordered](a, b T) bool { return a > b }
func ge[T cmp.Ordered](a, b T) bool { return a >= b }

func expectEq[T comparable](got, want T, skip int) bool {
	return kiln.Expect(eq[T], got, want, render(got, "==", want), callerLine(skip))
}

func expectNe[T comparable](got, want T, skip int) bool {
	return kiln.Expect(ne[T], got, want, render(got, "!=", want), callerLine(skip))
}

func expectLt[T cmp.Ordered](got, want T, skip int) bool {
	return kiln.Expect(lt[T], got, want, render(got, "<", want), callerLine(skip))
}

func expectLe[T cmp.Ordered](got, want T, skip int) bool {
	return kiln.Expect(le[T], got, want, render(got, "<=", want), callerLine(skip))
}

func expectGt[T cmp.Ordered](got, want T, skip int) bool {
	return kiln.Expect(gt[T], got, want, render(got, ">", want), callerLine(skip))
}

func expectGe[T cmp.Ordered](got, want T, skip int) bool {
	return kiln.Expect(ge[T], got, want, render(got, ">=", want), callerLine(skip))
}

func expectTrue(v bool, skip int) bool {
	return kiln.Record(v, "expected true", callerLine(skip))
}

func expectFalse(v bool, skip int) bool {
	return kiln.Record(!v, "expected false", callerLine(skip))
}

func expectNoError(err error, skip int) bool {
	expr := "no error"
	if err != nil {
		expr = fmt.Sprintf("unexpected error: %v", err)
	}
	return kiln.Record(err == nil, expr, callerLine(skip))
}

func expectError(err error, skip int) bool {
	expr := "expected an error"
	if err != nil {
		expr = "error present"
	}
	return kiln.Record(err != nil, expr, callerLine(skip))
}

// ExpectEq records whether got equals want.
func ExpectEq[T comparable](got, want T) bool { return expectEq(got, want, 3) }

// AssertEq is ExpectEq for fatal call sites; return when it reports false.
func AssertEq[T comparable](got, want T) bool { return expectEq(got, want, 3) }

// ExpectNe records whether got differs from want.
func ExpectNe[T comparable](got, want T) bool { return expectNe(got, want, 3) }

// AssertNe is ExpectNe for fatal call sites.
func AssertNe[T comparable](got, want T) bool { return expectNe(got, want, 3) }

// ExpectLt records whether got < want.
func ExpectLt[T cmp.Ordered](got, want T) bool { return expectLt(got, want, 3) }

// AssertLt is ExpectLt for fatal call sites.
func AssertLt[T cmp.Ordered](got, want T) bool { return expectLt(got, want, 3) }

// ExpectLe records whether got <= want.
func ExpectLe[T cmp.Ordered](got, want T) bool { return expectLe(got, want, 3) }

// AssertLe is ExpectLe for fatal call sites.
func AssertLe[T cmp.Ordered](got, want T) bool { return expectLe(got, want, 3) }

// ExpectGt records whether got > want.
func ExpectGt[T cmp.Ordered](got, want T) bool { return expectGt(got, want, 3) }

// AssertGt is ExpectGt for fatal call sites.
func AssertGt[T cmp.Ordered](got, want T) bool { return expectGt(got, want, 3) }

// ExpectGe records whether got >= want.
func ExpectGe[T cmp.Ordered](got, want T) bool { return expectGe(got, want, 3) }

// AssertGe is ExpectGe for fatal call sites.
func AssertGe[T cmp.Ordered](got, want T) bool { return expectGe(got, want, 3) }

// ExpectTrue records whether v is true.
func ExpectTrue(v bool) bool { return expectTrue(v, 3) }

// AssertTrue is ExpectTrue for fatal call sites.
func AssertTrue(v bool) bool { return expectTrue(v, 3) }

// ExpectFalse records whether v is false.
func ExpectFalse(v bool) bool { return expectFalse(v, 3) }

// AssertFalse is ExpectFalse for fatal call sites.
func AssertFalse(v bool) bool { return expectFalse(v, 3) }

// ExpectNoError records whether err is nil, rendering the error when not.
func ExpectNoError(err error) bool { return expectNoError(err, 3) }

// AssertNoError is ExpectNoError for fatal call sites.
func AssertNoError(err error) bool { return expectNoError(err, 3) }

// ExpectError records whether err is non-nil.
func ExpectError(err error) bool { return expectError(err, 3) }

// AssertError is ExpectError for fatal call sites.
func AssertError(err error) bool { return expectError(err, 3) }
