// Package pnp recovers the pose of a camera from correspondences between target points and pixels:
// a linear DLT estimate followed by a nonlinear refinement of the reprojection error.
package pnp

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/linalg"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/optimization"
	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
	"github.com/reprojection-calibration/reprojection-sub000/target"
)

// Method is the linear initialization used by Pnp.
type Method int

const (
	// PlanarDlt estimates a homography from a planar target in ideal image coordinates.
	PlanarDlt Method = iota
	// GeneralDlt estimates a full camera matrix, recovering pinhole intrinsics too.
	GeneralDlt
)

func (m Method) String() string {
	switch m {
	case PlanarDlt:
		return "planar_dlt"
	case GeneralDlt:
		return "general_dlt"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// unitPinhole is K = identity, the camera of ideal image coordinates.
var unitPinhole = []float64{1, 1, 0, 0}

// Result is a solved pose. Pose maps target points into the camera frame.
type Result struct {
	Pose       spatialmath.Pose
	Intrinsics []float64
	Method     Method
	Summary    optimization.Summary
}

type options struct {
	solver optimization.Solver
	logger logging.Logger
}

// Option configures Pnp.
type Option func(*options)

// WithSolver sets the solver of the nonlinear refinement.
func WithSolver(solver optimization.Solver) Option {
	return func(o *options) {
		o.solver = solver
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Pnp solves for the pose of the camera that observed the bundle.
//
// Without bounds the pixels must be ideal image coordinates of a planar target: the planar DLT
// runs and only the pose is refined against the unit pinhole camera. With bounds the general DLT
// runs and the pinhole intrinsics are refined along with the pose, rejecting projections outside
// the bounds. At least 5 correspondences are needed, or 7 with bounds.
func Pnp(b target.Bundle, bounds *camera.ImageBounds, opts ...Option) (*Result, error) {
	o := options{
		solver: optimization.NewLevenbergMarquardt(optimization.DefaultLevenbergMarquardtOptions()),
		logger: logging.NewBlankLogger("pnp"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(b.Pixels) != len(b.Points) {
		return nil, errors.Wrapf(ErrMismatchedCorrespondences, "%d pixels and %d points", len(b.Pixels), len(b.Points))
	}
	n := b.Len()
	if n < minPlanarCorrespondences || (bounds != nil && n < minGeneralCorrespondences) {
		return nil, errors.Wrapf(ErrInsufficientCorrespondences, "got %d", n)
	}

	var (
		method     Method
		pose       spatialmath.Pose
		intrinsics []float64
		err        error
	)
	if bounds == nil {
		if !linalg.IsPlane(b.Points) {
			return nil, ErrMissingImageBounds
		}
		method = PlanarDlt
		intrinsics = append([]float64(nil), unitPinhole...)
		pose, err = Dlt22(b)
	} else {
		method = GeneralDlt
		pose, intrinsics, err = Dlt23(b)
	}
	if err != nil {
		return nil, err
	}
	if pose.HasNaN() || floats.HasNaN(intrinsics) {
		return nil, errors.Wrapf(ErrNumericalFailure, "%s", method)
	}

	info := camera.Info{Name: "pnp", Model: camera.Pinhole, Bounds: bounds}
	initial := optimization.OptimizationState{
		Camera: optimization.CameraState{Intrinsics: intrinsics},
		Frames: map[uint64]optimization.FrameState{0: optimization.NewFrameState(pose)},
	}
	refineOpts := []optimization.RefineOption{
		optimization.WithSolver(o.solver),
		optimization.WithLogger(o.logger),
	}
	if method == PlanarDlt {
		refineOpts = append(refineOpts, optimization.WithConstantIntrinsics())
	}
	refined, summary, err := optimization.CameraNonlinearRefinement(
		info, target.Measurements{0: {Bundle: b}}, initial, refineOpts...)
	if err != nil {
		return nil, err
	}
	if !summary.Converged() {
		return nil, errors.Wrapf(ErrConvergenceFailure, "%s after %d iterations: %s",
			summary.Termination, summary.Iterations, summary.Message)
	}

	o.logger.Debugw("pnp solved", "method", method.String(), "correspondences", n, "final_cost", summary.FinalCost)
	return &Result{
		Pose:       refined.Frames[0].Transform(),
		Intrinsics: refined.Camera.Intrinsics,
		Method:     method,
		Summary:    summary,
	}, nil
}
