package optimization

import (
	"fmt"
	"time"
)

// TerminationType reports how a solve ended.
type TerminationType int

const (
	// Convergence means one of the tolerances was met.
	Convergence TerminationType = iota
	// NoConvergence means the iteration budget ran out first.
	NoConvergence
	// Failure means the problem could not be evaluated or solved.
	Failure
)

func (t TerminationType) String() string {
	switch t {
	case Convergence:
		return "CONVERGENCE"
	case NoConvergence:
		return "NO_CONVERGENCE"
	case Failure:
		return "FAILURE"
	default:
		return fmt.Sprintf("TerminationType(%d)", int(t))
	}
}

// Summary describes a finished solve. Costs are half the sum of squared residuals.
type Summary struct {
	Termination TerminationType `json:"termination"`
	InitialCost float64         `json:"initial_cost"`
	FinalCost   float64         `json:"final_cost"`
	Iterations  int             `json:"iterations"`
	Message     string          `json:"message,omitempty"`
	// Duration is the wall time of the refinement that produced the summary, when it was timed.
	Duration time.Duration `json:"duration,omitempty"`
}

// Converged reports whether the solve met a tolerance.
func (s Summary) Converged() bool {
	return s.Termination == Convergence
}

// Solver minimizes a Problem in place.
type Solver interface {
	Solve(problem *Problem) Summary
}
