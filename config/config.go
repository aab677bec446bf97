// Package config defines the JSON configuration of a calibration run and converts it into the
// camera description, solver, and pipeline settings.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/reprojection-calibration/reprojection-sub000/calibration"
	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/optimization"
)

// Solver types.
const (
	SolverLevenbergMarquardt = "levenberg_marquardt"
	SolverBFGS               = "bfgs"
)

// Config is a complete calibration run configuration.
type Config struct {
	Camera      CameraConfig      `json:"camera"`
	Solver      SolverConfig      `json:"solver"`
	FocalLength FocalLengthConfig `json:"focal_length"`
	Workers     int               `json:"workers,omitempty"`
	Log         LogConfig         `json:"log"`
}

// CameraConfig describes the sensor being calibrated.
type CameraConfig struct {
	Name   string              `json:"name"`
	Model  string              `json:"model"`
	Bounds *camera.ImageBounds `json:"bounds,omitempty"`
}

// SolverConfig selects the refinement solver and its options.
type SolverConfig struct {
	Type               string                                  `json:"type"`
	LevenbergMarquardt *optimization.LevenbergMarquardtOptions `json:"levenberg_marquardt,omitempty"`
	BFGS               *BFGSConfig                             `json:"bfgs,omitempty"`
}

// BFGSConfig configures the BFGS solver.
type BFGSConfig struct {
	MaxIterations int `json:"max_iterations"`
}

// FocalLengthConfig selects the focal length initializer.
type FocalLengthConfig struct {
	Method string `json:"method"`
}

// LogConfig configures the run's logger. An empty file logs to the console.
type LogConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"`
}

// Default returns the configuration every file is decoded on top of.
func Default() *Config {
	lm := optimization.DefaultLevenbergMarquardtOptions()
	return &Config{
		Camera: CameraConfig{Name: "/cam0/image_raw", Model: string(camera.DoubleSphere)},
		Solver: SolverConfig{
			Type:               SolverLevenbergMarquardt,
			LevenbergMarquardt: &lm,
			BFGS:               &BFGSConfig{MaxIterations: 1000},
		},
		FocalLength: FocalLengthConfig{Method: string(calibration.ParabolaLine)},
		Log:         LogConfig{Level: logging.INFO.String()},
	}
}

// Validate returns every problem of the configuration at once.
func (c *Config) Validate(path string) error {
	var allErrs error
	allErrs = multierr.Append(allErrs, c.Camera.Validate(joinPath(path, "camera")))
	allErrs = multierr.Append(allErrs, c.Solver.Validate(joinPath(path, "solver")))
	if _, err := calibration.ParseMethod(c.FocalLength.Method); err != nil {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(joinPath(path, "focal_length"), err))
	}
	if c.Workers < 0 {
		allErrs = multierr.Append(allErrs,
			utils.NewConfigValidationError(path, errors.Errorf("workers must not be negative, got %d", c.Workers)))
	}
	if c.Log.Level != "" {
		if _, err := logging.LevelFromString(c.Log.Level); err != nil {
			allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(joinPath(path, "log"), err))
		}
	}
	return allErrs
}

// Validate checks the camera's name, model, and bounds.
func (cc *CameraConfig) Validate(path string) error {
	var allErrs error
	if cc.Name == "" {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationFieldRequiredError(path, "name"))
	}
	if _, err := camera.ParseModel(cc.Model); err != nil {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path, err))
	}
	if cc.Bounds == nil {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationFieldRequiredError(path, "bounds"))
	} else if b := cc.Bounds; b.UMin >= b.UMax || b.VMin >= b.VMax {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
			errors.Errorf("bounds must satisfy u_min < u_max and v_min < v_max, got %+v", *b)))
	}
	return allErrs
}

// Validate checks the solver type and the options of the selected solver.
func (sc *SolverConfig) Validate(path string) error {
	switch sc.Type {
	case SolverLevenbergMarquardt:
		if sc.LevenbergMarquardt == nil {
			return utils.NewConfigValidationFieldRequiredError(path, "levenberg_marquardt")
		}
		return validateLevenbergMarquardt(joinPath(path, "levenberg_marquardt"), sc.LevenbergMarquardt)
	case SolverBFGS:
		if sc.BFGS == nil {
			return utils.NewConfigValidationFieldRequiredError(path, "bfgs")
		}
		if sc.BFGS.MaxIterations < 0 {
			return utils.NewConfigValidationError(joinPath(path, "bfgs"),
				errors.Errorf("max_iterations must not be negative, got %d", sc.BFGS.MaxIterations))
		}
		return nil
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown solver type %q", sc.Type))
	}
}

func validateLevenbergMarquardt(path string, opts *optimization.LevenbergMarquardtOptions) error {
	var allErrs error
	if opts.MaxIterations <= 0 {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
			errors.Errorf("max_iterations must be positive, got %d", opts.MaxIterations)))
	}
	for _, tol := range []struct {
		name  string
		value float64
	}{
		{"function_tolerance", opts.FunctionTolerance},
		{"gradient_tolerance", opts.GradientTolerance},
		{"parameter_tolerance", opts.ParameterTolerance},
	} {
		if tol.value < 0 {
			allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
				errors.Errorf("%s must not be negative, got %g", tol.name, tol.value)))
		}
	}
	if opts.InitialDamping <= 0 {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
			errors.Errorf("initial_damping must be positive, got %g", opts.InitialDamping)))
	}
	return allErrs
}

// CameraInfo returns the camera description.
func (c *Config) CameraInfo() (camera.Info, error) {
	model, err := camera.ParseModel(c.Camera.Model)
	if err != nil {
		return camera.Info{}, err
	}
	info := camera.Info{Name: c.Camera.Name, Model: model}
	if c.Camera.Bounds != nil {
		bounds := *c.Camera.Bounds
		info.Bounds = &bounds
	}
	return info, nil
}

// NewSolver returns the configured solver.
func (c *Config) NewSolver() (optimization.Solver, error) {
	switch c.Solver.Type {
	case SolverLevenbergMarquardt:
		opts := optimization.DefaultLevenbergMarquardtOptions()
		if c.Solver.LevenbergMarquardt != nil {
			opts = *c.Solver.LevenbergMarquardt
		}
		return optimization.NewLevenbergMarquardt(opts), nil
	case SolverBFGS:
		var maxIterations int
		if c.Solver.BFGS != nil {
			maxIterations = c.Solver.BFGS.MaxIterations
		}
		return optimization.NewGradientSolver(maxIterations), nil
	default:
		return nil, errors.Errorf("unknown solver type %q", c.Solver.Type)
	}
}

// CalibrateConfig returns the pipeline settings including the solver.
func (c *Config) CalibrateConfig() (calibration.CalibrateConfig, error) {
	method, err := calibration.ParseMethod(c.FocalLength.Method)
	if err != nil {
		return calibration.CalibrateConfig{}, err
	}
	solver, err := c.NewSolver()
	if err != nil {
		return calibration.CalibrateConfig{}, err
	}
	return calibration.CalibrateConfig{FocalLengthMethod: method, Workers: c.Workers, Solver: solver}, nil
}

// NewLogger returns the configured logger.
func (c *Config) NewLogger(name string) (logging.Logger, error) {
	level := logging.INFO
	if c.Log.Level != "" {
		var err error
		if level, err = logging.LevelFromString(c.Log.Level); err != nil {
			return nil, err
		}
	}
	var logger logging.Logger
	if c.Log.File != "" {
		logger = logging.NewFileLogger(name, c.Log.File)
	} else {
		logger = logging.NewLogger(name)
	}
	logger.SetLevel(level)
	return logger, nil
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
