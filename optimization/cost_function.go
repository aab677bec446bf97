package optimization

import (
	"gonum.org/v1/gonum/num/dual"
)

// CostFunction computes a fixed number of residuals from a fixed list of parameter blocks.
//
// Evaluate writes NumResiduals values into residuals. When jacobians is non-nil, every non-nil
// jacobians[i] receives the derivative of the residuals with respect to block i, row-major with
// one row per residual. Returning false marks the evaluation as failed.
type CostFunction interface {
	NumResiduals() int
	ParameterBlockSizes() []int
	Evaluate(params [][]float64, residuals []float64, jacobians [][]float64) bool
}

// Functor is a residual written once and instantiated for plain values and for dual numbers.
type Functor interface {
	Float(params [][]float64, residuals []float64) bool
	Dual(params [][]dual.Number, residuals []dual.Number) bool
}

// AutoDiffCostFunction derives jacobians from a Functor with forward mode dual numbers, one
// evaluation per free parameter.
type AutoDiffCostFunction struct {
	functor      Functor
	numResiduals int
	sizes        []int
}

// NewAutoDiffCostFunction wraps functor as a cost function of numResiduals residuals over blocks of
// the given sizes.
func NewAutoDiffCostFunction(functor Functor, numResiduals int, sizes ...int) *AutoDiffCostFunction {
	return &AutoDiffCostFunction{functor: functor, numResiduals: numResiduals, sizes: sizes}
}

// NumResiduals returns the number of residuals.
func (c *AutoDiffCostFunction) NumResiduals() int {
	return c.numResiduals
}

// ParameterBlockSizes returns the size of every parameter block.
func (c *AutoDiffCostFunction) ParameterBlockSizes() []int {
	return c.sizes
}

// Evaluate implements CostFunction.
func (c *AutoDiffCostFunction) Evaluate(params [][]float64, residuals []float64, jacobians [][]float64) bool {
	if !c.functor.Float(params, residuals) {
		return false
	}
	if jacobians == nil {
		return true
	}

	dualParams := make([][]dual.Number, len(params))
	for i, block := range params {
		dualParams[i] = make([]dual.Number, len(block))
		for j, v := range block {
			dualParams[i][j] = dual.Number{Real: v}
		}
	}
	out := make([]dual.Number, c.numResiduals)
	for i, block := range params {
		if jacobians[i] == nil {
			continue
		}
		size := len(block)
		for j := range block {
			dualParams[i][j].Emag = 1
			ok := c.functor.Dual(dualParams, out)
			dualParams[i][j].Emag = 0
			if !ok {
				return false
			}
			for r := 0; r < c.numResiduals; r++ {
				jacobians[i][r*size+j] = out[r].Emag
			}
		}
	}
	return true
}
