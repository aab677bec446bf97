package pnp

import "github.com/pkg/errors"

var (
	// ErrInsufficientCorrespondences is returned when too few correspondences are given for the
	// requested solve.
	ErrInsufficientCorrespondences = errors.New("not enough correspondences")
	// ErrMismatchedCorrespondences is returned when pixels and points differ in length.
	ErrMismatchedCorrespondences = errors.New("pixel and point counts differ")
	// ErrMissingImageBounds is returned when non-planar points are given without image bounds.
	ErrMissingImageBounds = errors.New("non-planar points require image bounds")
	// ErrNumericalFailure is returned when the linear solution contains NaN.
	ErrNumericalFailure = errors.New("linear solution is not finite")
	// ErrConvergenceFailure is returned when the nonlinear refinement does not converge.
	ErrConvergenceFailure = errors.New("refinement did not converge")
)
