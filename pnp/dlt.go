package pnp

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/reprojection-calibration/reprojection-sub000/linalg"
	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
	"github.com/reprojection-calibration/reprojection-sub000/target"
)

const (
	minPlanarCorrespondences  = 5
	minGeneralCorrespondences = 7
)

// Dlt22 estimates the pose of a planar target (all points at Z = 0) from pixels in ideal, K =
// identity, image coordinates. The homography between the target plane and the image is the null
// space of the 2n×9 DLT system built on normalized target coordinates. It needs at least 5
// correspondences.
func Dlt22(b target.Bundle) (spatialmath.Pose, error) {
	if err := checkBundle(b, minPlanarCorrespondences); err != nil {
		return spatialmath.Pose{}, err
	}
	n := b.Len()

	xy := mat.NewDense(n, 2, nil)
	for i, p := range b.Points {
		xy.Set(i, 0, p.X)
		xy.Set(i, 1, p.Y)
	}
	normalized, tfPoints := linalg.NormalizeColumnWise(xy)

	a := mat.NewDense(2*n, 9, nil)
	for i, px := range b.Pixels {
		x := []float64{normalized.At(i, 0), normalized.At(i, 1), 1}
		for j := 0; j < 3; j++ {
			a.Set(2*i, 3+j, -x[j])
			a.Set(2*i, 6+j, px.Y*x[j])
			a.Set(2*i+1, j, x[j])
			a.Set(2*i+1, 6+j, -px.X*x[j])
		}
	}
	hStar := mat.NewDense(3, 3, linalg.NullSpaceVector(a))

	var h mat.Dense
	h.Mul(hStar, tfPoints)
	// The plane must sit in front of the camera.
	if h.At(2, 2) < 0 {
		h.Scale(-1, &h)
	}
	rotation, translation := linalg.DecomposeHIntoRt(&h)
	return spatialmath.NewPose(rotation, translation), nil
}

// Dlt23 estimates the pose and the pinhole intrinsics (fx, fy, cx, cy) from a general 3D target.
// The 3×4 camera matrix is the null space of the 2n×12 DLT system built on normalized pixels and
// points, and is split into K[R|t] with an RQ decomposition. It needs at least 7 correspondences.
func Dlt23(b target.Bundle) (spatialmath.Pose, []float64, error) {
	if err := checkBundle(b, minGeneralCorrespondences); err != nil {
		return spatialmath.Pose{}, nil, err
	}
	n := b.Len()

	pixels := mat.NewDense(n, 2, nil)
	points := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		pixels.Set(i, 0, b.Pixels[i].X)
		pixels.Set(i, 1, b.Pixels[i].Y)
		points.Set(i, 0, b.Points[i].X)
		points.Set(i, 1, b.Points[i].Y)
		points.Set(i, 2, b.Points[i].Z)
	}
	normPixels, tfPixels := linalg.NormalizeColumnWise(pixels)
	normPoints, tfPoints := linalg.NormalizeColumnWise(points)

	a := mat.NewDense(2*n, 12, nil)
	for i := 0; i < n; i++ {
		x := []float64{normPoints.At(i, 0), normPoints.At(i, 1), normPoints.At(i, 2), 1}
		u, v := normPixels.At(i, 0), normPixels.At(i, 1)
		for j := 0; j < 4; j++ {
			a.Set(2*i, 4+j, -x[j])
			a.Set(2*i, 8+j, v*x[j])
			a.Set(2*i+1, j, x[j])
			a.Set(2*i+1, 8+j, -u*x[j])
		}
	}
	pStar := mat.NewDense(3, 4, linalg.NullSpaceVector(a))

	var tfPixelsInv mat.Dense
	if err := tfPixelsInv.Inverse(tfPixels); err != nil {
		return spatialmath.Pose{}, nil, errors.Wrap(ErrNumericalFailure, err.Error())
	}
	var p mat.Dense
	p.Mul(&tfPixelsInv, pStar)
	p.Mul(&p, tfPoints)

	k, rotation := linalg.DecomposeMIntoKr(p.Slice(0, 3, 0, 3))
	center := linalg.CalculateCameraCenter(&p)

	pose := spatialmath.NewPose(rotation, r3.Vector{})
	pose.Translation = pose.Transform(center).Mul(-1)
	intrinsics := []float64{k.At(0, 0), k.At(1, 1), k.At(0, 2), k.At(1, 2)}
	return pose, intrinsics, nil
}

func checkBundle(b target.Bundle, minimum int) error {
	if len(b.Pixels) != len(b.Points) {
		return errors.Wrapf(ErrMismatchedCorrespondences, "%d pixels and %d points", len(b.Pixels), len(b.Points))
	}
	if b.Len() < minimum {
		return errors.Wrapf(ErrInsufficientCorrespondences, "got %d, need at least %d", b.Len(), minimum)
	}
	return nil
}
