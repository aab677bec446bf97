package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// R4AA is a rotation of Theta radians about the unit axis (RX, RY, RZ). Poses store the same
// rotation scaled into a single vector (R3 form), see ToR3.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA returns the zero rotation about z.
func NewR4AA() *R4AA {
	return &R4AA{RZ: 1}
}

// ToR3 returns the rotation vector of r4.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}.Mul(r4.Theta)
}

// RotationMatrix returns the 3×3 rotation matrix of the axis angle.
func (r4 *R4AA) RotationMatrix() *mat.Dense {
	return Exp(r4.ToR3())
}

// R3ToR4 splits a rotation vector into angle and unit axis. The zero vector maps to NewR4AA.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	axis := aa.Mul(1 / theta)
	return &R4AA{Theta: theta, RX: axis.X, RY: axis.Y, RZ: axis.Z}
}
