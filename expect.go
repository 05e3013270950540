package kiln

// Expect evaluates pred on lhs and rhs and records the outcome against the
// running test. expr is the rendered form of the check and line its
// call-site line; both flow to the event handler verbatim. The return value
// is the outcome, which is what lets fatal call sites stop early:
//
//	if !kiln.Expect(eq, got, want, expr, line) {
//		return
//	}
//
// The check package renders expr and captures line for the common
// comparisons; Expect is the boundary it feeds. Calling it with no test in
// flight panics.
func Expect[L, R any](pred func(L, R) bool, lhs L, rhs R, expr string, line int) bool {
	return instance.recordExpectation(pred(lhs, rhs), expr, line)
}

// Record folds an already-evaluated outcome into the running test. It is the
// door for checks whose evaluation does not fit the two-operand shape of
// Expect, such as boolean and error checks.
func Record(ok bool, expr string, line int) bool {
	return instance.recordExpectation(ok, expr, line)
}
