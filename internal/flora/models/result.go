package models

// Outcome tags a coordinator Result so callers cannot confuse a missing record
// with an infrastructure failure.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what the write coordinator returns. Record is set only for
// OutcomeOK; Err is set for the other two.
type Result struct {
	Outcome Outcome
	Record  Record
	Err     error
}

func OK(r Record) Result          { return Result{Outcome: OutcomeOK, Record: r} }
func NotFound(err error) Result   { return Result{Outcome: OutcomeNotFound, Err: err} }
func Failed(err error) Result     { return Result{Outcome: OutcomeFailed, Err: err} }
func (r Result) IsOK() bool       { return r.Outcome == OutcomeOK }
func (r Result) IsNotFound() bool { return r.Outcome == OutcomeNotFound }
func (r Result) IsFailed() bool   { return r.Outcome == OutcomeFailed }
