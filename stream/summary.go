package stream

// TestResult is one test's outcome reconstructed from the stream.
type TestResult struct {
	Suite   string
	Name    string
	Failed  bool
	Elapsed float64
	Output  []string
}

// SuiteResult aggregates one suite.
type SuiteResult struct {
	Name    string
	Passed  int
	Failed  int
	Elapsed float64
}

// Report is the host-side reconstruction of a whole run.
type Report struct {
	Suites []SuiteResult
	Tests  []TestResult
	Passed int
	Failed int
}

// FailedTests returns "suite/name" for every failed test, in stream order.
func (r Report) FailedTests() []string {
	var names []string
	for _, t := range r.Tests {
		if t.Failed {
			names = append(names, t.Suite+"/"+t.Name)
		}
	}
	return names
}

// ExitStatus mirrors the test binary's convention: zero only when nothing
// failed.
func (r Report) ExitStatus() int {
	if r.Failed > 0 {
		return 1
	}
	return 0
}

// Summarize folds a parsed stream into per-test and per-suite results.
// Suites keep first-seen order, tests keep stream order, so summarizing the
// same stream twice yields identical reports.
func Summarize(events []Event) Report {
	var rep Report
	suiteIndex := map[string]int{}
	testIndex := map[string]int{}

	suiteAt := func(name string) *SuiteResult {
		if i, ok := suiteIndex[name]; ok {
			return &rep.Suites[i]
		}
		suiteIndex[name] = len(rep.Suites)
		rep.Suites = append(rep.Suites, SuiteResult{Name: name})
		return &rep.Suites[len(rep.Suites)-1]
	}
	testAt := func(suite, name string) *TestResult {
		key := suite + "/" + name
		if i, ok := testIndex[key]; ok {
			return &rep.Tests[i]
		}
		testIndex[key] = len(rep.Tests)
		rep.Tests = append(rep.Tests, TestResult{Suite: suite, Name: name})
		return &rep.Tests[len(rep.Tests)-1]
	}

	for _, ev := range events {
		switch ev.Action {
		case ActionStart:
			suiteAt(ev.Package)

		case ActionRun:
			if ev.Test != "" {
				testAt(ev.Package, ev.Test)
			}

		case ActionOutput:
			if ev.Test != "" {
				tr := testAt(ev.Package, ev.Test)
				tr.Output = append(tr.Output, ev.Output)
			}

		case ActionPass, ActionFail:
			if ev.Test == "" {
				suiteAt(ev.Package).Elapsed = ev.Elapsed
				continue
			}
			tr := testAt(ev.Package, ev.Test)
			tr.Failed = ev.Action == ActionFail
			tr.Elapsed = ev.Elapsed
			s := suiteAt(ev.Package)
			if tr.Failed {
				s.Failed++
				rep.Failed++
			} else {
				s.Passed++
				rep.Passed++
			}
		}
	}
	return rep
}
