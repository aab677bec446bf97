package optimization

import (
	"maps"

	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
)

// CameraState holds the intrinsics of one camera, in the order of its model.
type CameraState struct {
	Intrinsics []float64 `json:"intrinsics"`
}

// FrameState holds the pose of one frame: a rotation vector followed by a translation, mapping
// target points into the camera frame.
type FrameState struct {
	Pose [PoseSize]float64 `json:"pose"`
}

// NewFrameState returns the state of a target to camera transform.
func NewFrameState(tfCoW spatialmath.Pose) FrameState {
	return FrameState{Pose: tfCoW.Log()}
}

// Transform returns the frame's pose as a transform.
func (fs FrameState) Transform() spatialmath.Pose {
	return spatialmath.NewPoseFromLog(fs.Pose)
}

// OptimizationState is the full set of calibrated values: shared intrinsics and a pose per frame,
// keyed by timestamp in nanoseconds.
type OptimizationState struct {
	Camera CameraState           `json:"camera"`
	Frames map[uint64]FrameState `json:"frames"`
}

// Clone returns a deep copy of the state.
func (s OptimizationState) Clone() OptimizationState {
	out := OptimizationState{
		Camera: CameraState{Intrinsics: append([]float64(nil), s.Camera.Intrinsics...)},
		Frames: map[uint64]FrameState{},
	}
	maps.Copy(out.Frames, s.Frames)
	return out
}
