package autodiff

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/dual"
	"go.viam.com/test"
)

// radius evaluates sqrt(x^2 + y^2) / sin(x) + cos(y) in any field.
func radius[T any](f Field[T], x, y T) T {
	r := f.Sqrt(f.Add(f.Mul(x, x), f.Mul(y, y)))
	return f.Add(f.Div(r, f.Sin(x)), f.Cos(y))
}

func TestSameFormulaBothFields(t *testing.T) {
	x, y := 0.7, -1.3
	plain := radius[float64](Float64{}, x, y)

	dx := radius[dual.Number](Dual{}, dual.Number{Real: x, Emag: 1}, dual.Number{Real: y})
	test.That(t, dx.Real, test.ShouldAlmostEqual, plain, 1e-12)

	r := math.Hypot(x, y)
	expectedDx := (x/r)/math.Sin(x) - r*math.Cos(x)/(math.Sin(x)*math.Sin(x))
	test.That(t, dx.Emag, test.ShouldAlmostEqual, expectedDx, 1e-12)

	dy := radius[dual.Number](Dual{}, dual.Number{Real: x}, dual.Number{Real: y, Emag: 1})
	expectedDy := (y/r)/math.Sin(x) - math.Sin(y)
	test.That(t, dy.Emag, test.ShouldAlmostEqual, expectedDy, 1e-12)
}

func TestJacobian(t *testing.T) {
	var f Dual
	fn := func(x, out []dual.Number) {
		out[0] = f.Mul(x[0], x[1])
		out[1] = f.Add(f.Scale(3, x[0]), f.Neg(x[1]))
	}
	value, jac := Jacobian(fn, []float64{2, 5}, 2)
	test.That(t, value, test.ShouldResemble, []float64{10, 1})
	test.That(t, jac, test.ShouldResemble, []float64{5, 2, 3, -1})
}

func TestSeed(t *testing.T) {
	seeded := Seed([]float64{1, 2, 3}, 1)
	test.That(t, seeded[0], test.ShouldResemble, dual.Number{Real: 1})
	test.That(t, seeded[1], test.ShouldResemble, dual.Number{Real: 2, Emag: 1})
	test.That(t, Consts[float64](Float64{}, []float64{4}), test.ShouldResemble, []float64{4})
}
