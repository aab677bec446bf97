// Package camera implements the camera projection models. Every model projects camera frame points
// to pixels and unprojects pixels to rays, and is written once against autodiff.Field so that the
// same formulas serve plain evaluation and derivative propagation.
package camera

import (
	"github.com/pkg/errors"
)

// Model is the name of a camera projection model.
type Model string

const (
	// Pinhole is the ideal pinhole camera with intrinsics (fx, fy, cx, cy).
	Pinhole = Model("pinhole")
	// PinholeRadtan4 is a pinhole camera with two radial and two tangential distortion terms,
	// intrinsics (fx, fy, cx, cy, k1, k2, p1, p2).
	PinholeRadtan4 = Model("pinhole_radtan4")
	// UnifiedCameraModel projects through a unit sphere offset by xi, intrinsics (fx, fy, cx, cy, xi).
	UnifiedCameraModel = Model("unified_camera_model")
	// DoubleSphere is the double sphere model of Usenko et al. (https://arxiv.org/pdf/1807.08957),
	// intrinsics (fx, fy, cx, cy, xi, alpha).
	DoubleSphere = Model("double_sphere")
)

// Models lists every supported model.
var Models = []Model{Pinhole, PinholeRadtan4, UnifiedCameraModel, DoubleSphere}

// Size returns the number of intrinsics of the model. It panics on an unknown model.
func (m Model) Size() int {
	switch m {
	case Pinhole:
		return 4
	case PinholeRadtan4:
		return 8
	case UnifiedCameraModel:
		return 5
	case DoubleSphere:
		return 6
	default:
		panic(NewInvalidModelError(m))
	}
}

func (m Model) String() string {
	return string(m)
}

// ParseModel returns the model with the given name.
func ParseModel(name string) (Model, error) {
	for _, m := range Models {
		if string(m) == name {
			return m, nil
		}
	}
	return "", errors.Errorf("do not know how to parse %q camera model", name)
}

// NewInvalidModelError is used when a camera model outside of Models reaches a dispatcher. Every
// dispatcher handles the closed set of models, so this is raised as a panic.
func NewInvalidModelError(m Model) error {
	return errors.Wrapf(errors.New("invalid camera model"), "%q", string(m))
}

// DefaultIntrinsics returns initial intrinsics for the model from a single focal length f, valid for
// a UCM camera with xi = 1, and a principal point. Distortion terms start at zero; the double sphere
// model starts at xi = 0, alpha = 0.5 with half the focal length, which projects identically.
func DefaultIntrinsics(m Model, f, cx, cy float64) []float64 {
	switch m {
	case Pinhole:
		return []float64{f, f, cx, cy}
	case PinholeRadtan4:
		return []float64{f, f, cx, cy, 0, 0, 0, 0}
	case UnifiedCameraModel:
		return []float64{f, f, cx, cy, 1}
	case DoubleSphere:
		return []float64{f / 2, f / 2, cx, cy, 0, 0.5}
	default:
		panic(NewInvalidModelError(m))
	}
}
