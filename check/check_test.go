package check_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln"
	"github.com/roach88/kiln/check"
)

// recorder keeps every expectation event plus the final summary.
type recorder struct {
	expects []kiln.Expectation
	summary kiln.Summary
}

func (r *recorder) TestRunStarted(total int) {}

func (r *recorder) TestStarted(d *kiln.Descriptor) {}

func (r *recorder) ExpectationResult(e kiln.Expectation) {
	r.expects = append(r.expects, e)
}

func (r *recorder) TestFinished(d *kiln.Descriptor, v kiln.Verdict) {}

func (r *recorder) TestRunFinished(s kiln.Summary) { r.summary = s }

// comparisons exercises one helper of every family, half of them failing.
type comparisons struct{ kiln.Case }

func (x *comparisons) Run() {
	check.ExpectEq(3, 3)
	check.ExpectEq(3, 4)
	check.ExpectNe("a", "b")
	check.ExpectLt(1, 2)
	check.ExpectLe(2, 2)
	check.ExpectGt(5, 4)
	check.ExpectGe(4, 5)
	check.ExpectTrue(true)
	check.ExpectFalse(true)
	check.ExpectNoError(nil)
	check.ExpectNoError(errors.New("io failure"))
	check.ExpectError(nil)
}

var _ = kiln.Register[comparisons]("check", "comparisons")

type fatalUse struct{ kiln.Case }

var fatalTail bool

func (x *fatalUse) Run() {
	if !check.AssertEq(1, 2) {
		return
	}
	fatalTail = true
}

var _ = kiln.Register[fatalUse]("check", "fatal")

func TestHelpersRecordAgainstTheFramework(t *testing.T) {
	rec := &recorder{}
	kiln.RegisterEventHandler(rec)

	status := kiln.RunAllTests()

	require.Equal(t, 1, status)
	require.False(t, fatalTail, "AssertEq failure must stop the body at its return")
	require.Equal(t, kiln.Summary{Passed: 0, Failed: 2}, rec.summary)

	byExpr := map[string]bool{}
	for _, e := range rec.expects {
		byExpr[e.Expression] = e.Passed
		require.Positive(t, e.Line, "helper must capture its call-site line")
	}
	require.True(t, byExpr["3 == 3"])
	require.False(t, byExpr["3 == 4"])
	require.True(t, byExpr["a != b"])
	require.True(t, byExpr["1 < 2"])
	require.True(t, byExpr["2 <= 2"])
	require.True(t, byExpr["5 > 4"])
	require.False(t, byExpr["4 >= 5"])
	require.True(t, byExpr["expected true"])
	require.False(t, byExpr["expected false"])
	require.True(t, byExpr["no error"])
	require.False(t, byExpr["unexpected error: io failure"])
	require.False(t, byExpr["expected an error"])
	require.False(t, byExpr["1 == 2"])
}
