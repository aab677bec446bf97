package optimization

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minDiagonal keeps the damping of parameters with no curvature from vanishing.
const minDiagonal = 1e-6

// LevenbergMarquardtOptions configures LevenbergMarquardt.
type LevenbergMarquardtOptions struct {
	MaxIterations int `json:"max_iterations"`
	// FunctionTolerance stops once an accepted step changes the cost by less than this fraction.
	FunctionTolerance float64 `json:"function_tolerance"`
	// GradientTolerance stops once the max norm of the gradient drops below it.
	GradientTolerance float64 `json:"gradient_tolerance"`
	// ParameterTolerance stops once a step is smaller than this fraction of the parameter norm.
	ParameterTolerance float64 `json:"parameter_tolerance"`
	// InitialDamping is the starting lambda of the damped normal equations.
	InitialDamping float64 `json:"initial_damping"`
}

// DefaultLevenbergMarquardtOptions returns the options used when none are given.
func DefaultLevenbergMarquardtOptions() LevenbergMarquardtOptions {
	return LevenbergMarquardtOptions{
		MaxIterations:      200,
		FunctionTolerance:  1e-6,
		GradientTolerance:  1e-10,
		ParameterTolerance: 1e-8,
		InitialDamping:     1e-4,
	}
}

// LevenbergMarquardt solves the damped normal equations (JᵀJ + λ·diag(JᵀJ))δ = -Jᵀr with a dense
// Cholesky factorization and adapts λ from the ratio of actual to predicted cost reduction.
type LevenbergMarquardt struct {
	Options LevenbergMarquardtOptions
}

// NewLevenbergMarquardt returns a solver with the given options.
func NewLevenbergMarquardt(opts LevenbergMarquardtOptions) *LevenbergMarquardt {
	return &LevenbergMarquardt{Options: opts}
}

// Solve implements Solver.
func (lm *LevenbergMarquardt) Solve(problem *Problem) Summary {
	opts := lm.Options
	x := problem.layout()
	residuals, jac, ok := problem.evaluate(x, true)
	if !ok {
		return Summary{Termination: Failure, Message: "initial evaluation failed"}
	}
	currentCost := cost(residuals)
	summary := Summary{InitialCost: currentCost, FinalCost: currentCost}
	if len(x) == 0 || len(residuals) == 0 {
		summary.Termination = Convergence
		summary.Message = "nothing to optimize"
		return summary
	}

	lambda := opts.InitialDamping
	nu := 2.
	n := len(x)
	var jtj mat.SymDense
	gradient := mat.NewVecDense(n, nil)

	for summary.Iterations < opts.MaxIterations {
		summary.Iterations++
		jtj.SymOuterK(1, jac.T())
		gradient.MulVec(jac.T(), mat.NewVecDense(len(residuals), residuals))
		if floats.Norm(gradient.RawVector().Data, math.Inf(1)) <= opts.GradientTolerance {
			summary.Termination = Convergence
			summary.Message = "gradient tolerance reached"
			break
		}

		step, solved := dampedStep(&jtj, gradient, lambda)
		if !solved {
			lambda *= nu
			nu *= 2
			continue
		}
		small := floats.Norm(step, 2) <= opts.ParameterTolerance*(floats.Norm(x, 2)+opts.ParameterTolerance)

		candidate := make([]float64, n)
		floats.AddTo(candidate, x, step)
		candidateResiduals, _, ok := problem.evaluate(candidate, false)
		if small {
			// The last step is kept when it still lowers the cost.
			if c := cost(candidateResiduals); ok && c < currentCost {
				x, currentCost = candidate, c
			}
			summary.Termination = Convergence
			summary.Message = "parameter tolerance reached"
			break
		}
		if !ok {
			lambda *= nu
			nu *= 2
			continue
		}
		candidateCost := cost(candidateResiduals)
		predicted := predictedReduction(&jtj, gradient, step)
		rho := (currentCost - candidateCost) / predicted
		if predicted <= 0 || rho <= 0 {
			lambda *= nu
			nu *= 2
			continue
		}

		x = candidate
		change := currentCost - candidateCost
		previousCost := currentCost
		currentCost = candidateCost
		if change <= opts.FunctionTolerance*previousCost {
			summary.Termination = Convergence
			summary.Message = "function tolerance reached"
			break
		}
		residuals, jac, ok = problem.evaluate(x, true)
		if !ok {
			summary.Termination = Failure
			summary.Message = "jacobian evaluation failed"
			break
		}
		lambda *= math.Max(1./3, 1-math.Pow(2*rho-1, 3))
		nu = 2
	}
	if summary.Iterations >= opts.MaxIterations && summary.Message == "" {
		summary.Termination = NoConvergence
		summary.Message = "maximum iterations reached"
	}

	problem.setParameters(x)
	summary.FinalCost = currentCost
	return summary
}

// dampedStep solves (JᵀJ + λ·diag(JᵀJ))δ = -g.
func dampedStep(jtj *mat.SymDense, gradient *mat.VecDense, lambda float64) ([]float64, bool) {
	n := jtj.SymmetricDim()
	a := mat.NewSymDense(n, nil)
	a.CopySym(jtj)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, jtj.At(i, i)+lambda*math.Max(jtj.At(i, i), minDiagonal))
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, gradient); err != nil {
		return nil, false
	}
	step.ScaleVec(-1, &step)
	return step.RawVector().Data, true
}

// predictedReduction is the decrease of the linearized cost: -δᵀg - ½δᵀJᵀJδ.
func predictedReduction(jtj *mat.SymDense, gradient *mat.VecDense, step []float64) float64 {
	d := mat.NewVecDense(len(step), step)
	var jd mat.VecDense
	jd.MulVec(jtj, d)
	return -mat.Dot(d, gradient) - mat.Dot(d, &jd)/2
}
