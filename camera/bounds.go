package camera

// ImageBounds is the valid pixel rectangle [UMin, UMax) × [VMin, VMax) of a sensor.
type ImageBounds struct {
	UMin float64 `json:"u_min"`
	UMax float64 `json:"u_max"`
	VMin float64 `json:"v_min"`
	VMax float64 `json:"v_max"`
}

// UnitImageBounds bounds ideal image coordinates of a unit pinhole camera to a 90 degree field of view.
var UnitImageBounds = ImageBounds{UMin: -1, UMax: 1, VMin: -1, VMax: 1}

// Contains reports whether (u, v) is inside the bounds. The maximum edges are excluded, so bounds of
// 0 to 720 accept 0 but reject 720.
func (b ImageBounds) Contains(u, v float64) bool {
	return b.UMin <= u && u < b.UMax && b.VMin <= v && v < b.VMax
}

// Center returns the middle of the bounds, the usual seed for a principal point.
func (b ImageBounds) Center() (float64, float64) {
	return (b.UMin + b.UMax) / 2, (b.VMin + b.VMax) / 2
}

// Info describes one camera sensor.
type Info struct {
	Name   string       `json:"name"`
	Model  Model        `json:"model"`
	Bounds *ImageBounds `json:"bounds,omitempty"`
}
