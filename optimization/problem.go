// Package optimization is a small nonlinear least squares framework: parameter blocks, residual
// blocks built from cost functions, interchangeable solvers, and the camera bundle adjustment
// built on top of them.
package optimization

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type parameterBlock struct {
	values   []float64
	constant bool
	// offset into the free parameter vector, -1 while constant.
	offset int
}

type residualBlock struct {
	cost   CostFunction
	blocks []*parameterBlock
	offset int
}

// Problem is a sum of squared residual blocks over parameter blocks. A parameter block is identified
// by the slice that holds its values; solvers write their result back into those slices.
type Problem struct {
	blocks       map[*float64]*parameterBlock
	order        []*parameterBlock
	residuals    []*residualBlock
	numResiduals int
}

// NewProblem returns an empty problem.
func NewProblem() *Problem {
	return &Problem{blocks: map[*float64]*parameterBlock{}}
}

// AddParameterBlock registers values as a parameter block. Adding the same slice again is a no-op.
func (p *Problem) AddParameterBlock(values []float64) error {
	_, err := p.addParameterBlock(values)
	return err
}

func (p *Problem) addParameterBlock(values []float64) (*parameterBlock, error) {
	if len(values) == 0 {
		return nil, errors.New("parameter block must not be empty")
	}
	if block, ok := p.blocks[&values[0]]; ok {
		if len(block.values) != len(values) {
			return nil, errors.Errorf("parameter block re-added with size %d, was %d", len(values), len(block.values))
		}
		return block, nil
	}
	block := &parameterBlock{values: values}
	p.blocks[&values[0]] = block
	p.order = append(p.order, block)
	return block, nil
}

// AddResidualBlock adds the residuals of cost over the given parameter blocks, registering blocks
// that were not added yet. The block sizes must match cost.ParameterBlockSizes.
func (p *Problem) AddResidualBlock(cost CostFunction, blocks ...[]float64) error {
	sizes := cost.ParameterBlockSizes()
	if len(sizes) != len(blocks) {
		return errors.Errorf("cost function takes %d parameter blocks, got %d", len(sizes), len(blocks))
	}
	rb := &residualBlock{cost: cost, offset: p.numResiduals}
	for i, values := range blocks {
		if len(values) != sizes[i] {
			return errors.Errorf("parameter block %d has size %d, cost function expects %d", i, len(values), sizes[i])
		}
		block, err := p.addParameterBlock(values)
		if err != nil {
			return err
		}
		rb.blocks = append(rb.blocks, block)
	}
	p.residuals = append(p.residuals, rb)
	p.numResiduals += cost.NumResiduals()
	return nil
}

// SetParameterBlockConstant holds a registered block fixed during solving.
func (p *Problem) SetParameterBlockConstant(values []float64) error {
	if len(values) == 0 {
		return errors.New("parameter block must not be empty")
	}
	block, ok := p.blocks[&values[0]]
	if !ok {
		return errors.New("parameter block was never added to the problem")
	}
	block.constant = true
	return nil
}

// NumResidualBlocks returns the number of residual blocks added so far.
func (p *Problem) NumResidualBlocks() int {
	return len(p.residuals)
}

// NumResiduals returns the total number of scalar residuals.
func (p *Problem) NumResiduals() int {
	return p.numResiduals
}

// EvaluateResidualBlock evaluates residual block i at the current parameter values. It returns false
// when the cost function fails.
func (p *Problem) EvaluateResidualBlock(i int) ([]float64, bool) {
	rb := p.residuals[i]
	params := make([][]float64, len(rb.blocks))
	for j, block := range rb.blocks {
		params[j] = block.values
	}
	residuals := make([]float64, rb.cost.NumResiduals())
	if !rb.cost.Evaluate(params, residuals, nil) {
		return nil, false
	}
	return residuals, true
}

// currentCost evaluates the cost at the stored parameter values. Failed evaluations count as zero.
func (p *Problem) currentCost() float64 {
	var total float64
	for i := range p.residuals {
		if r, ok := p.EvaluateResidualBlock(i); ok {
			total += cost(r)
		}
	}
	return total
}

// layout assigns offsets to the free blocks and returns the free parameter vector.
func (p *Problem) layout() []float64 {
	var x []float64
	for _, block := range p.order {
		if block.constant {
			block.offset = -1
			continue
		}
		block.offset = len(x)
		x = append(x, block.values...)
	}
	return x
}

// setParameters writes a free parameter vector from layout back into the blocks.
func (p *Problem) setParameters(x []float64) {
	for _, block := range p.order {
		if block.offset >= 0 {
			copy(block.values, x[block.offset:block.offset+len(block.values)])
		}
	}
}

// evaluate computes every residual at the free parameters x, and with wantJacobian the dense
// jacobian with respect to x. Blocks keep their stored values until setParameters.
func (p *Problem) evaluate(x []float64, wantJacobian bool) ([]float64, *mat.Dense, bool) {
	residuals := make([]float64, p.numResiduals)
	var jac *mat.Dense
	if wantJacobian && p.numResiduals > 0 && len(x) > 0 {
		jac = mat.NewDense(p.numResiduals, len(x), nil)
	}

	for _, rb := range p.residuals {
		params := make([][]float64, len(rb.blocks))
		var jacobians [][]float64
		if jac != nil {
			jacobians = make([][]float64, len(rb.blocks))
		}
		for j, block := range rb.blocks {
			if block.offset < 0 {
				params[j] = block.values
				continue
			}
			params[j] = x[block.offset : block.offset+len(block.values)]
			if jac != nil {
				jacobians[j] = make([]float64, rb.cost.NumResiduals()*len(block.values))
			}
		}

		nr := rb.cost.NumResiduals()
		if !rb.cost.Evaluate(params, residuals[rb.offset:rb.offset+nr], jacobians) {
			return nil, nil, false
		}
		for j, block := range rb.blocks {
			if jacobians == nil || jacobians[j] == nil {
				continue
			}
			size := len(block.values)
			for r := 0; r < nr; r++ {
				for c := 0; c < size; c++ {
					jac.Set(rb.offset+r, block.offset+c, jacobians[j][r*size+c])
				}
			}
		}
	}
	return residuals, jac, true
}

// cost is half the squared norm of the residuals.
func cost(residuals []float64) float64 {
	var sum float64
	for _, r := range residuals {
		sum += r * r
	}
	return sum / 2
}
