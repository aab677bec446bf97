package calibration

import (
	"context"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/optimization"
	"github.com/reprojection-calibration/reprojection-sub000/target"
)

// CalibrateConfig configures Calibrate.
type CalibrateConfig struct {
	FocalLengthMethod Method
	// Workers bounds the frames processed in parallel, GOMAXPROCS when not positive.
	Workers int
	// Solver runs the joint refinement, Levenberg–Marquardt with default options when nil.
	Solver optimization.Solver
}

// FrameError is the reprojection error of one frame before and after refinement.
type FrameError struct {
	Timestamp uint64                  `json:"timestamp"`
	Initial   optimization.ErrorStats `json:"initial"`
	Final     optimization.ErrorStats `json:"final"`
}

// Result is a finished calibration.
type Result struct {
	RunID             uuid.UUID                      `json:"run_id"`
	Camera            camera.Info                    `json:"camera"`
	FocalLength       float64                        `json:"focal_length"`
	InitialIntrinsics []float64                      `json:"initial_intrinsics"`
	State             optimization.OptimizationState `json:"state"`
	Summary           optimization.Summary           `json:"summary"`
	Frames            []FrameError                   `json:"frames"`
	SkippedFrames     []uint64                       `json:"skipped_frames,omitempty"`
}

// Calibrate estimates the intrinsics of one camera and the pose of every frame from scratch:
// focal length initialization, default intrinsics around the image center, linear pose
// initialization, and joint nonlinear refinement. The camera needs image bounds, whose center
// seeds the principal point. ctx is checked between stages and frames; the refinement itself
// runs to completion once started.
func Calibrate(
	ctx context.Context,
	info camera.Info,
	targets target.Measurements,
	cfg CalibrateConfig,
	logger logging.Logger,
) (*Result, error) {
	if info.Bounds == nil {
		return nil, errors.Errorf("camera %q has no image bounds to seed the principal point", info.Name)
	}
	if len(targets) == 0 {
		return nil, errors.Wrap(ErrDegenerateGeometry, "no frames")
	}
	method := cfg.FocalLengthMethod
	if method == "" {
		method = ParabolaLine
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	solver := cfg.Solver
	if solver == nil {
		solver = optimization.NewLevenbergMarquardt(optimization.DefaultLevenbergMarquardtOptions())
	}
	result := &Result{RunID: uuid.New(), Camera: info}
	logger = logger.Sublogger("calibration")
	logger.Infow("starting calibration", "run_id", result.RunID.String(), "camera", info.Name,
		"model", info.Model.String(), "frames", len(targets))

	cx, cy := info.Bounds.Center()
	principalPoint := r2.Point{X: cx, Y: cy}
	estimates, err := focalLengthEstimates(ctx, targets, method, principalPoint, cfg.Workers)
	if err != nil {
		return nil, err
	}
	f, err := MedianFocalLength(estimates)
	if err != nil {
		return nil, err
	}
	result.FocalLength = f
	result.InitialIntrinsics = camera.DefaultIntrinsics(info.Model, f, cx, cy)
	logger.Infow("initialized focal length", "method", string(method), "estimates", len(estimates), "focal_length", f)

	frames, skipped, err := LinearPoseInitialization(ctx, info, result.InitialIntrinsics, targets, cfg.Workers,
		logger.Sublogger("linear_pose"))
	if err != nil {
		return nil, err
	}
	result.SkippedFrames = skipped
	logger.Infow("initialized poses", "frames", len(frames), "skipped", len(skipped))

	initialized := make(target.Measurements, len(frames))
	for ts := range frames {
		initialized[ts] = targets[ts]
	}
	initial := optimization.OptimizationState{
		Camera: optimization.CameraState{Intrinsics: result.InitialIntrinsics},
		Frames: frames,
	}
	initialResiduals := optimization.ReprojectionResiduals(info, initialized, initial)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state, summary, err := optimization.CameraNonlinearRefinement(info, initialized, initial,
		optimization.WithSolver(solver), optimization.WithLogger(logger.Sublogger("optimization")))
	if err != nil {
		return nil, err
	}
	result.State = state
	result.Summary = summary

	finalResiduals := optimization.ReprojectionResiduals(info, initialized, state)
	for _, ts := range initialized.Timestamps() {
		before, err := optimization.ReprojectionError(initialResiduals[ts])
		if err != nil {
			continue
		}
		after, err := optimization.ReprojectionError(finalResiduals[ts])
		if err != nil {
			continue
		}
		result.Frames = append(result.Frames, FrameError{Timestamp: ts, Initial: before, Final: after})
	}
	logger.Infow("finished calibration", "run_id", result.RunID.String(),
		"termination", summary.Termination.String(), "final_cost", summary.FinalCost, "intrinsics", state.Camera.Intrinsics)
	return result, nil
}

func focalLengthEstimates(
	ctx context.Context,
	targets target.Measurements,
	method Method,
	principalPoint r2.Point,
	workers int,
) ([]float64, error) {
	var (
		mu        sync.Mutex
		estimates []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for _, ts := range targets.Timestamps() {
		frame := targets[ts]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frameEstimates := InitializeFocalLength(frame, method, principalPoint)
			mu.Lock()
			estimates = append(estimates, frameEstimates...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return estimates, nil
}
