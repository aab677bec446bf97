package calibration

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/linalg"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/optimization"
	"github.com/reprojection-calibration/reprojection-sub000/pnp"
	"github.com/reprojection-calibration/reprojection-sub000/target"
)

var unitPinholeIntrinsics = []float64{1, 1, 0, 0}

// LinearPoseInitialization estimates the pose of every frame from roughly known intrinsics. Each
// frame's pixels are unprojected to rays and reprojected through the unit pinhole camera, which
// leaves undistorted ideal image coordinates for Pnp. Rays outside the unit image bounds are
// dropped. Frames that Pnp cannot solve are logged, skipped, and listed in the second result.
func LinearPoseInitialization(
	ctx context.Context,
	info camera.Info,
	intrinsics []float64,
	targets target.Measurements,
	workers int,
	logger logging.Logger,
) (map[uint64]optimization.FrameState, []uint64, error) {
	cam, err := camera.NewCamera(info.Model, intrinsics, info.Bounds)
	if err != nil {
		return nil, nil, err
	}
	unit, err := camera.NewCamera(camera.Pinhole, unitPinholeIntrinsics, &camera.UnitImageBounds)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu      sync.Mutex
		frames  = make(map[uint64]optimization.FrameState, len(targets))
		skipped []uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for _, ts := range targets.Timestamps() {
		bundle := targets[ts].Bundle
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pixels, valid := unit.Project(cam.Unproject(bundle.Pixels))
			linearized := target.Bundle{Pixels: pixels, Points: bundle.Points}.Mask(valid)

			// Non-planar targets need bounds for the general solve.
			var bounds *camera.ImageBounds
			if !linalg.IsPlane(linearized.Points) {
				bounds = &camera.UnitImageBounds
			}
			result, err := pnp.Pnp(linearized, bounds, pnp.WithLogger(logger))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warnw("skipping frame without linear pose", "timestamp", ts, "correspondences", linearized.Len(), "error", err)
				skipped = append(skipped, ts)
				return nil
			}
			frames[ts] = optimization.NewFrameState(result.Pose)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	slices.Sort(skipped)
	if len(frames) == 0 && len(targets) > 0 {
		return nil, skipped, errors.Wrap(ErrDegenerateGeometry, "no frame has a linear pose")
	}
	return frames, skipped, nil
}

func workerLimit(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}
