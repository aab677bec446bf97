// Package autodiff provides the scalar arithmetic that projection and cost code is written against,
// so that one set of formulas can be evaluated both on plain float64 values and on dual numbers
// carrying a directional derivative.
package autodiff

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
)

// Field is the set of scalar operations used by generic numeric code.
type Field[T any] interface {
	Const(v float64) T
	Real(a T) float64

	Add(a, b T) T
	Sub(a, b T) T
	Mul(a, b T) T
	Div(a, b T) T
	Neg(a T) T
	Scale(s float64, a T) T

	Sqrt(a T) T
	Sin(a T) T
	Cos(a T) T
}

// Float64 evaluates with plain float64 values.
type Float64 struct{}

// Const returns v.
func (Float64) Const(v float64) float64 { return v }

// Real returns a.
func (Float64) Real(a float64) float64 { return a }

// Add returns a+b.
func (Float64) Add(a, b float64) float64 { return a + b }

// Sub returns a-b.
func (Float64) Sub(a, b float64) float64 { return a - b }

// Mul returns a*b.
func (Float64) Mul(a, b float64) float64 { return a * b }

// Div returns a/b.
func (Float64) Div(a, b float64) float64 { return a / b }

// Neg returns -a.
func (Float64) Neg(a float64) float64 { return -a }

// Scale returns s*a.
func (Float64) Scale(s, a float64) float64 { return s * a }

// Sqrt returns the square root of a.
func (Float64) Sqrt(a float64) float64 { return math.Sqrt(a) }

// Sin returns the sine of a.
func (Float64) Sin(a float64) float64 { return math.Sin(a) }

// Cos returns the cosine of a.
func (Float64) Cos(a float64) float64 { return math.Cos(a) }

// Dual evaluates with gonum dual numbers, propagating the Emag part as a first derivative.
type Dual struct{}

// Const returns v with a zero derivative.
func (Dual) Const(v float64) dual.Number { return dual.Number{Real: v} }

// Real returns the value part of a.
func (Dual) Real(a dual.Number) float64 { return a.Real }

// Add returns a+b.
func (Dual) Add(a, b dual.Number) dual.Number { return dual.Add(a, b) }

// Sub returns a-b.
func (Dual) Sub(a, b dual.Number) dual.Number { return dual.Sub(a, b) }

// Mul returns a*b.
func (Dual) Mul(a, b dual.Number) dual.Number { return dual.Mul(a, b) }

// Div returns a/b.
func (Dual) Div(a, b dual.Number) dual.Number { return dual.Mul(a, dual.Inv(b)) }

// Neg returns -a.
func (Dual) Neg(a dual.Number) dual.Number { return dual.Scale(-1, a) }

// Scale returns s*a.
func (Dual) Scale(s float64, a dual.Number) dual.Number { return dual.Scale(s, a) }

// Sqrt returns the square root of a.
func (Dual) Sqrt(a dual.Number) dual.Number { return dual.Sqrt(a) }

// Sin returns the sine of a.
func (Dual) Sin(a dual.Number) dual.Number { return dual.Sin(a) }

// Cos returns the cosine of a.
func (Dual) Cos(a dual.Number) dual.Number { return dual.Cos(a) }

// Consts lifts a slice of float64 values into T.
func Consts[T any](f Field[T], values []float64) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = f.Const(v)
	}
	return out
}

// Seed lifts values into dual numbers with a unit derivative on index i and zero elsewhere.
// An index outside the slice seeds nothing.
func Seed(values []float64, i int) []dual.Number {
	out := make([]dual.Number, len(values))
	for j, v := range values {
		out[j] = dual.Number{Real: v}
	}
	if i >= 0 && i < len(out) {
		out[i].Emag = 1
	}
	return out
}

// Jacobian evaluates fn at x once per input direction and returns the m×n jacobian in row-major order,
// along with the value of fn at x. fn must write exactly m outputs.
func Jacobian(fn func(x, out []dual.Number), x []float64, m int) (value, jac []float64) {
	n := len(x)
	value = make([]float64, m)
	jac = make([]float64, m*n)
	out := make([]dual.Number, m)
	for j := 0; j < n; j++ {
		fn(Seed(x, j), out)
		for i := 0; i < m; i++ {
			if j == 0 {
				value[i] = out[i].Real
			}
			jac[i*n+j] = out[i].Emag
		}
	}
	if n == 0 {
		fn(Seed(x, -1), out)
		for i := range value {
			value[i] = out[i].Real
		}
	}
	return value, jac
}
