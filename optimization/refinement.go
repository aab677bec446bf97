package optimization

import (
	"fmt"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/target"
)

// ErrMissingFrame is returned when a measured frame has no initial pose.
var ErrMissingFrame = errors.New("frame has no initial state")

type refineOptions struct {
	solver             Solver
	logger             logging.Logger
	constantIntrinsics bool
	clock              clock.Clock
}

// RefineOption configures CameraNonlinearRefinement.
type RefineOption func(*refineOptions)

// WithSolver replaces the default Levenberg–Marquardt solver.
func WithSolver(solver Solver) RefineOption {
	return func(o *refineOptions) {
		o.solver = solver
	}
}

// WithLogger sets the logger that receives the solver summary at debug level.
func WithLogger(logger logging.Logger) RefineOption {
	return func(o *refineOptions) {
		o.logger = logger
	}
}

// WithClock replaces the clock that times the refinement.
func WithClock(c clock.Clock) RefineOption {
	return func(o *refineOptions) {
		o.clock = c
	}
}

// WithConstantIntrinsics refines only the frame poses.
func WithConstantIntrinsics() RefineOption {
	return func(o *refineOptions) {
		o.constantIntrinsics = true
	}
}

// maxRecoveryRounds bounds how often frames with failed projections are realigned and the joint
// problem solved again.
const maxRecoveryRounds = 5

// CameraNonlinearRefinement jointly refines the intrinsics and every frame pose by minimizing the
// reprojection error of all target features. One intrinsics block is shared by every frame. The
// initial state is not modified; frames of initial without measurements are returned unchanged.
//
// Features that do not project have a constant residual and no gradient, so a solve cannot move
// them back into view. Frames with such features are first realigned on the bearings of their
// observations, with the intrinsics held, and the joint problem is solved again. The summary never
// reports convergence while features still fail to project.
func CameraNonlinearRefinement(
	info camera.Info,
	targets target.Measurements,
	initial OptimizationState,
	opts ...RefineOption,
) (OptimizationState, Summary, error) {
	options := refineOptions{
		solver: NewLevenbergMarquardt(DefaultLevenbergMarquardtOptions()),
		logger: logging.NewBlankLogger("optimization"),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	start := options.clock.Now()

	state := initial.Clone()
	intrinsics := state.Camera.Intrinsics
	if size := info.Model.Size(); len(intrinsics) != size {
		panic(errors.Errorf("camera model %q takes %d intrinsics, got %d", info.Model, size, len(intrinsics)))
	}
	poses := make(map[uint64][]float64, len(targets))

	problem := NewProblem()
	for _, ts := range targets.Timestamps() {
		frame, ok := state.Frames[ts]
		if !ok {
			return OptimizationState{}, Summary{}, errors.Wrapf(ErrMissingFrame, "timestamp %d", ts)
		}
		pose := append([]float64(nil), frame.Pose[:]...)
		poses[ts] = pose

		bundle := targets[ts].Bundle
		for i := range bundle.Pixels {
			cost := NewProjectionCostFunction(info.Model, info.Bounds, bundle.Pixels[i], bundle.Points[i])
			if err := problem.AddResidualBlock(cost, intrinsics, pose); err != nil {
				return OptimizationState{}, Summary{}, errors.Wrapf(err, "timestamp %d feature %d", ts, i)
			}
		}
	}
	if options.constantIntrinsics && problem.NumResidualBlocks() > 0 {
		if err := problem.SetParameterBlockConstant(intrinsics); err != nil {
			return OptimizationState{}, Summary{}, err
		}
	}

	initialCost := problem.currentCost()
	var summary Summary
	var iterations, realigned int
	failed := failedFeatures(info, targets, intrinsics, poses)
	for round := 0; ; round++ {
		for ts := range failed {
			if alignFrame(info, targets[ts].Bundle, intrinsics, poses[ts]) {
				realigned++
			}
		}
		summary = options.solver.Solve(problem)
		iterations += summary.Iterations
		failed = failedFeatures(info, targets, intrinsics, poses)
		if len(failed) == 0 || summary.Termination == Failure || round+1 == maxRecoveryRounds {
			break
		}
	}
	summary.InitialCost = initialCost
	summary.Iterations = iterations
	if numFailed := lo.Sum(lo.Values(failed)); numFailed > 0 && summary.Termination == Convergence {
		summary.Termination = NoConvergence
		summary.Message = fmt.Sprintf("%d features in %d frames do not project", numFailed, len(failed))
	}
	summary.Duration = options.clock.Since(start)

	options.logger.Debugw("nonlinear refinement finished",
		"camera", info.Name,
		"frames", len(poses),
		"residuals", problem.NumResiduals(),
		"realigned_frames", realigned,
		"termination", summary.Termination.String(),
		"initial_cost", summary.InitialCost,
		"final_cost", summary.FinalCost,
		"iterations", summary.Iterations,
		"duration", summary.Duration,
	)

	for ts, pose := range poses {
		var fs FrameState
		copy(fs.Pose[:], pose)
		state.Frames[ts] = fs
	}
	return state, summary, nil
}

// ReprojectionResiduals evaluates observed minus projected pixel for every feature without solving.
// Frames missing from state are skipped.
func ReprojectionResiduals(info camera.Info, targets target.Measurements, state OptimizationState) map[uint64][]r2.Point {
	out := make(map[uint64][]r2.Point, len(targets))
	for _, ts := range targets.Timestamps() {
		frame, ok := state.Frames[ts]
		if !ok {
			continue
		}
		out[ts] = frameResiduals(info, targets[ts].Bundle, state.Camera.Intrinsics, frame.Pose[:])
	}
	return out
}

func frameResiduals(info camera.Info, bundle target.Bundle, intrinsics, pose []float64) []r2.Point {
	params := [][]float64{intrinsics, pose}
	residuals := make([]r2.Point, len(bundle.Pixels))
	r := make([]float64, 2)
	for i := range bundle.Pixels {
		cost := NewProjectionCostFunction(info.Model, info.Bounds, bundle.Pixels[i], bundle.Points[i])
		cost.Evaluate(params, r, nil)
		residuals[i] = r2.Point{X: r[0], Y: r[1]}
	}
	return residuals
}

// IsFailedProjection reports whether r is the residual of a feature that did not project.
func IsFailedProjection(r r2.Point) bool {
	return r.X == FailedProjectionResidual && r.Y == FailedProjectionResidual
}

// failedFeatures counts the features of every frame that do not project.
func failedFeatures(
	info camera.Info,
	targets target.Measurements,
	intrinsics []float64,
	poses map[uint64][]float64,
) map[uint64]int {
	failed := map[uint64]int{}
	for ts, pose := range poses {
		if n := lo.CountBy(frameResiduals(info, targets[ts].Bundle, intrinsics, pose), IsFailedProjection); n > 0 {
			failed[ts] = n
		}
	}
	return failed
}

// alignFrame refines pose so that the target points line up with the rays of their observed
// pixels under intrinsics. It returns false when no ray could be formed or the solve failed.
func alignFrame(info camera.Info, bundle target.Bundle, intrinsics, pose []float64) bool {
	problem := NewProblem()
	for i, pixel := range bundle.Pixels {
		ray := camera.Unproject(info.Model, intrinsics, pixel)
		if math.IsNaN(ray.X) || math.IsNaN(ray.Y) || math.IsNaN(ray.Z) {
			continue
		}
		if err := problem.AddResidualBlock(NewBearingCostFunction(ray, bundle.Points[i]), pose); err != nil {
			return false
		}
	}
	if problem.NumResidualBlocks() == 0 {
		return false
	}
	return NewLevenbergMarquardt(DefaultLevenbergMarquardtOptions()).Solve(problem).Termination != Failure
}

// ErrorStats summarizes the pixel distance of a set of residuals.
type ErrorStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	RMS    float64 `json:"rms"`
	Max    float64 `json:"max"`
}

// ReprojectionError returns statistics of the residual norms. It fails on an empty input.
func ReprojectionError(residuals []r2.Point) (ErrorStats, error) {
	norms := make(stats.Float64Data, len(residuals))
	squares := make(stats.Float64Data, len(residuals))
	for i, r := range residuals {
		norms[i] = r.Norm()
		squares[i] = r.Dot(r)
	}
	mean, err := stats.Mean(norms)
	if err != nil {
		return ErrorStats{}, errors.Wrap(err, "no residuals")
	}
	median, err := stats.Median(norms)
	if err != nil {
		return ErrorStats{}, err
	}
	largest, err := stats.Max(norms)
	if err != nil {
		return ErrorStats{}, err
	}
	meanSquare, err := stats.Mean(squares)
	if err != nil {
		return ErrorStats{}, err
	}
	return ErrorStats{
		Count:  len(residuals),
		Mean:   mean,
		Median: median,
		RMS:    math.Sqrt(meanSquare),
		Max:    largest,
	}, nil
}
