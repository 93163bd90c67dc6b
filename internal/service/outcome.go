package service

import "fmt"

// OutcomeKind tags one recorded orchestration step result.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeWarning OutcomeKind = "warning"
	OutcomeError   OutcomeKind = "error"
)

// Outcome is one human-readable line produced by an orchestration step.
type Outcome struct {
	Kind OutcomeKind
	Line string
}

// Outcomes accumulates step results across an approval run. The final status
// is computed once from the accumulator: the run only counts as fully
// successful when no warning or error was recorded, even though individual
// steps are best-effort.
type Outcomes struct {
	records []Outcome
}

// Successf records a successful step.
func (o *Outcomes) Successf(format string, args ...any) {
	o.records = append(o.records, Outcome{Kind: OutcomeSuccess, Line: fmt.Sprintf(format, args...)})
}

// Warnf records a non-fatal issue (skipped step, missing artifact).
func (o *Outcomes) Warnf(format string, args ...any) {
	o.records = append(o.records, Outcome{Kind: OutcomeWarning, Line: fmt.Sprintf(format, args...)})
}

// Errorf records a failed external call.
func (o *Outcomes) Errorf(format string, args ...any) {
	o.records = append(o.records, Outcome{Kind: OutcomeError, Line: fmt.Sprintf(format, args...)})
}

// Successes returns the lines for the "Completed" section.
func (o *Outcomes) Successes() []string {
	var out []string
	for _, r := range o.records {
		if r.Kind == OutcomeSuccess {
			out = append(out, r.Line)
		}
	}
	return out
}

// Issues returns the lines for the "Issues" section: warnings and errors, in
// the order they were recorded.
func (o *Outcomes) Issues() []string {
	var out []string
	for _, r := range o.records {
		if r.Kind != OutcomeSuccess {
			out = append(out, r.Line)
		}
	}
	return out
}

// Clean reports whether the run recorded no issues at all.
func (o *Outcomes) Clean() bool {
	return len(o.Issues()) == 0
}
