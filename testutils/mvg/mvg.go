// Package mvg generates synthetic multiple view geometry data: a grid target observed by a camera
// moving on a sphere around it.
package mvg

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
	"github.com/reprojection-calibration/reprojection-sub000/target"
)

const (
	gridSize = 5
	// DeltaTNs is the spacing between generated frame timestamps.
	DeltaTNs = uint64(1_000_000)
)

var (
	// ImageBounds is a 720×480 sensor.
	ImageBounds = camera.ImageBounds{UMin: 0, UMax: 720, VMin: 0, VMax: 480}
	// PinholeIntrinsics is a pinhole camera centered on ImageBounds.
	PinholeIntrinsics = []float64{600, 600, 360, 240}
	// UnitPinholeIntrinsics is the ideal pinhole, K = identity.
	UnitPinholeIntrinsics = []float64{1, 1, 0, 0}
)

// Trajectory places cameras on a sphere that all look at WorldOrigin.
type Trajectory struct {
	WorldOrigin  r3.Vector
	SphereRadius float64
	SphereOrigin r3.Vector
	NumLoops     int
}

// DefaultTrajectory keeps the camera 1.6 to 2.4 units in front of a target centered at the origin.
var DefaultTrajectory = Trajectory{
	WorldOrigin:  r3.Vector{},
	SphereRadius: 0.4,
	SphereOrigin: r3.Vector{Z: -2},
	NumLoops:     4,
}

// Data is generated calibration data with its ground truth. Poses map target points into the
// camera frame.
type Data struct {
	Sensor     camera.Info
	Intrinsics []float64
	Targets    target.Measurements
	Poses      map[uint64]spatialmath.Pose
}

// GenerateMvgData observes the grid target from numFrames poses of DefaultTrajectory. Features
// that do not project inside bounds are dropped from their frame. The same seed gives the same data.
func GenerateMvgData(
	numFrames int,
	model camera.Model,
	intrinsics []float64,
	bounds camera.ImageBounds,
	flat bool,
	seed uint64,
) (Data, error) {
	cam, err := camera.NewCamera(model, intrinsics, &bounds)
	if err != nil {
		return Data{}, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	points, indices := BuildTargetPoints(flat, rng)

	data := Data{
		Sensor:     camera.Info{Name: "/mvg_test_data", Model: model, Bounds: &bounds},
		Intrinsics: cam.Intrinsics(),
		Targets:    target.Measurements{},
		Poses:      map[uint64]spatialmath.Pose{},
	}
	for i, tfWCo := range SphereTrajectory(numFrames, DefaultTrajectory) {
		tfCoW := tfWCo.Inverse()
		pixels, valid := Project(points, cam, tfCoW)

		full := target.ExtractedTarget{
			Bundle:  target.Bundle{Pixels: pixels, Points: points},
			Indices: indices,
		}
		timestamp := DeltaTNs * uint64(i)
		data.Targets[timestamp] = full.Mask(valid)
		data.Poses[timestamp] = tfCoW
	}
	return data, nil
}

// BuildTargetPoints returns a 5×5 grid spanning [-0.5, 0.5] in x and y, and the (row, col) index of
// every point. Unless flat, z is drawn uniformly from [-0.5, 0.5].
func BuildTargetPoints(flat bool, rng *rand.Rand) ([]r3.Vector, [][2]int) {
	points := make([]r3.Vector, 0, gridSize*gridSize)
	indices := make([][2]int, 0, gridSize*gridSize)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			p := r3.Vector{
				X: float64(col)/(gridSize-1) - 0.5,
				Y: float64(row)/(gridSize-1) - 0.5,
			}
			if !flat {
				p.Z = rng.Float64() - 0.5
			}
			points = append(points, p)
			indices = append(indices, [2]int{row, col})
		}
	}
	return points, indices
}

// Project transforms target points into the camera frame and projects them.
func Project(points []r3.Vector, cam *camera.Camera, tfCoW spatialmath.Pose) ([]r2.Point, []bool) {
	pointsCo := make([]r3.Vector, len(points))
	for i, p := range points {
		pointsCo[i] = tfCoW.Transform(p)
	}
	return cam.Project(pointsCo)
}

// SphereTrajectory returns numPoses camera to world transforms spiralling around the sphere.
func SphereTrajectory(numPoses int, cfg Trajectory) []spatialmath.Pose {
	poses := make([]spatialmath.Pose, 0, numPoses)
	for _, position := range SpherePoints(numPoses, cfg) {
		poses = append(poses, spatialmath.NewPose(spatialmath.Exp(TrackPoint(cfg.WorldOrigin, position)), position))
	}
	return poses
}

// SpherePoints returns numPoints positions on the trajectory sphere.
func SpherePoints(numPoints int, cfg Trajectory) []r3.Vector {
	points := make([]r3.Vector, numPoints)
	for i := range points {
		theta := 2 * math.Pi * float64(cfg.NumLoops) * float64(i) / float64(numPoints)
		phi := 2 * math.Pi * float64(i) / float64(numPoints)
		points[i] = cfg.SphereOrigin.Add(cartesian(theta, phi).Mul(cfg.SphereRadius))
	}
	return points
}

// TrackPoint returns the rotation vector that turns the camera's forward z axis at position towards origin.
func TrackPoint(origin, position r3.Vector) r3.Vector {
	delta := origin.Sub(position)
	if delta.Norm() < 1e-8 {
		return r3.Vector{}
	}
	direction := delta.Normalize()
	forward := r3.Vector{Z: 1}

	dot := direction.Dot(forward)
	angle := math.Acos(math.Max(-1, math.Min(1, dot)))
	axis := forward.Cross(direction)
	if axis.Norm() < 1e-8 {
		if dot > 0 {
			return r3.Vector{}
		}
		axis = r3.Vector{X: 1}
	}
	axis = axis.Normalize()
	return (&spatialmath.R4AA{Theta: angle, RX: axis.X, RY: axis.Y, RZ: axis.Z}).ToR3()
}

// AddGaussianNoise perturbs the translation of pose and its rotation in the tangent space.
func AddGaussianNoise(sigmaTranslation, sigmaRotation float64, pose spatialmath.Pose, rng *rand.Rand) spatialmath.Pose {
	t := pose.Translation.Add(r3.Vector{
		X: rng.NormFloat64() * sigmaTranslation,
		Y: rng.NormFloat64() * sigmaTranslation,
		Z: rng.NormFloat64() * sigmaTranslation,
	})
	w := spatialmath.Log(pose.Rotation).Add(r3.Vector{
		X: rng.NormFloat64() * sigmaRotation,
		Y: rng.NormFloat64() * sigmaRotation,
		Z: rng.NormFloat64() * sigmaRotation,
	})
	return spatialmath.NewPose(spatialmath.Exp(w), t)
}

func cartesian(theta, phi float64) r3.Vector {
	return r3.Vector{
		X: math.Sin(theta) * math.Cos(phi),
		Y: math.Sin(theta) * math.Sin(phi),
		Z: math.Cos(theta),
	}
}
