package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// GradientSolver minimizes ½‖r‖² with a general purpose gonum/optimize method. It ignores the least
// squares structure and mostly serves as a cross check of LevenbergMarquardt.
type GradientSolver struct {
	Method   optimize.Method
	Settings *optimize.Settings
}

// NewGradientSolver returns a BFGS solver that stops after maxIterations major iterations, or
// uses gonum's defaults when maxIterations is zero.
func NewGradientSolver(maxIterations int) *GradientSolver {
	settings := &optimize.Settings{
		GradientThreshold: 1e-12,
		MajorIterations:   maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-12,
			Iterations: 50,
		},
	}
	return &GradientSolver{Method: &optimize.BFGS{}, Settings: settings}
}

// Solve implements Solver.
func (gs *GradientSolver) Solve(problem *Problem) Summary {
	x0 := problem.layout()
	residuals, _, ok := problem.evaluate(x0, false)
	if !ok {
		return Summary{Termination: Failure, Message: "initial evaluation failed"}
	}
	initial := cost(residuals)
	if len(x0) == 0 {
		return Summary{InitialCost: initial, FinalCost: initial, Message: "nothing to optimize"}
	}

	objective := optimize.Problem{
		Func: func(x []float64) float64 {
			r, _, ok := problem.evaluate(x, false)
			if !ok {
				return math.Inf(1)
			}
			return cost(r)
		},
		Grad: func(grad, x []float64) {
			r, jac, ok := problem.evaluate(x, true)
			if !ok || jac == nil {
				for i := range grad {
					grad[i] = math.NaN()
				}
				return
			}
			g := mat.NewVecDense(len(grad), grad)
			g.MulVec(jac.T(), mat.NewVecDense(len(r), r))
		},
	}

	result, err := optimize.Minimize(objective, x0, gs.Settings, gs.Method)
	if result == nil {
		return Summary{Termination: Failure, InitialCost: initial, FinalCost: initial, Message: errMessage(err)}
	}
	problem.setParameters(result.X)
	summary := Summary{
		Termination: terminationOf(result.Status, err),
		InitialCost: initial,
		FinalCost:   result.F,
		Iterations:  result.Stats.MajorIterations,
		Message:     result.Status.String(),
	}
	return summary
}

func terminationOf(status optimize.Status, err error) TerminationType {
	switch status {
	case optimize.IterationLimit, optimize.RuntimeLimit, optimize.FunctionEvaluationLimit,
		optimize.GradientEvaluationLimit, optimize.HessianEvaluationLimit:
		return NoConvergence
	case optimize.Failure:
		return Failure
	}
	if err != nil || status.Err() != nil {
		return Failure
	}
	return Convergence
}

func errMessage(err error) string {
	if err == nil {
		return "no result"
	}
	return err.Error()
}
