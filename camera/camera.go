package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Camera projects and unprojects batches of points with fixed intrinsics, for code outside of the
// optimizer such as test data generation and linear initialization.
type Camera struct {
	model      Model
	intrinsics []float64
	bounds     *ImageBounds
}

// NewCamera returns a camera for the model. The intrinsics are copied and must match the model's
// Size. A nil bounds accepts every pixel in front of the camera.
func NewCamera(model Model, intrinsics []float64, bounds *ImageBounds) (*Camera, error) {
	if _, err := ParseModel(string(model)); err != nil {
		return nil, err
	}
	if len(intrinsics) != model.Size() {
		return nil, errors.Errorf("camera model %q takes %d intrinsics, got %d", model, model.Size(), len(intrinsics))
	}
	var b *ImageBounds
	if bounds != nil {
		copied := *bounds
		b = &copied
	}
	return &Camera{model: model, intrinsics: append([]float64(nil), intrinsics...), bounds: b}, nil
}

// Model returns the camera's projection model.
func (c *Camera) Model() Model {
	return c.model
}

// Intrinsics returns a copy of the camera's intrinsics.
func (c *Camera) Intrinsics() []float64 {
	return append([]float64(nil), c.intrinsics...)
}

// Project projects every point and reports which projections succeeded. Pixels of failed
// projections are left at zero.
func (c *Camera) Project(points []r3.Vector) ([]r2.Point, []bool) {
	pixels := make([]r2.Point, len(points))
	valid := make([]bool, len(points))
	for i, p := range points {
		pixels[i], valid[i] = ProjectPoint(c.model, c.intrinsics, p, c.bounds)
	}
	return pixels, valid
}

// Unproject returns the z = 1 ray of every pixel.
func (c *Camera) Unproject(pixels []r2.Point) []r3.Vector {
	rays := make([]r3.Vector, len(pixels))
	for i, px := range pixels {
		rays[i] = Unproject(c.model, c.intrinsics, px)
	}
	return rays
}
