package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/reprojection-calibration/reprojection-sub000/calibration"
	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/optimization"
)

const validConfig = `{
	"camera": {
		"name": "/cam0/image_raw",
		"model": "unified_camera_model",
		"bounds": {"u_min": 0, "u_max": 720, "v_min": 0, "v_max": 480}
	},
	"solver": {
		"type": "levenberg_marquardt",
		"levenberg_marquardt": {"max_iterations": 50, "function_tolerance": 1e-8}
	},
	"focal_length": {"method": "vanishing_point"},
	"workers": 3,
	"log": {"level": "debug"}
}`

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	test.That(t, os.WriteFile(path, []byte(validConfig), 0o600), test.ShouldBeNil)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.Model, test.ShouldEqual, "unified_camera_model")
	test.That(t, *cfg.Camera.Bounds, test.ShouldResemble, camera.ImageBounds{UMax: 720, VMax: 480})
	test.That(t, cfg.Workers, test.ShouldEqual, 3)

	// Options missing from the file keep their defaults.
	lm := cfg.Solver.LevenbergMarquardt
	test.That(t, lm.MaxIterations, test.ShouldEqual, 50)
	test.That(t, lm.FunctionTolerance, test.ShouldEqual, 1e-8)
	test.That(t, lm.GradientTolerance, test.ShouldEqual, optimization.DefaultLevenbergMarquardtOptions().GradientTolerance)

	info, err := cfg.CameraInfo()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Model, test.ShouldEqual, camera.UnifiedCameraModel)
	test.That(t, info.Name, test.ShouldEqual, "/cam0/image_raw")

	calibrateCfg, err := cfg.CalibrateConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calibrateCfg.FocalLengthMethod, test.ShouldEqual, calibration.VanishingPoint)
	test.That(t, calibrateCfg.Workers, test.ShouldEqual, 3)
	solver, ok := calibrateCfg.Solver.(*optimization.LevenbergMarquardt)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, solver.Options.MaxIterations, test.ShouldEqual, 50)

	logger, err := cfg.NewLogger("test")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.DEBUG)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read config file")
}

func TestUnknownKeys(t *testing.T) {
	_, err := FromReader(strings.NewReader(`{"camera": {"name": "c", "modle": "pinhole"}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "modle")

	_, err = FromAttributes(map[string]interface{}{"cameras": map[string]interface{}{}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cameras")
}

func TestValidateAggregates(t *testing.T) {
	cfg := Default()
	cfg.Camera.Model = "fisheye"
	cfg.Camera.Bounds = &camera.ImageBounds{UMin: 10, UMax: 0, VMin: 0, VMax: 480}
	cfg.Solver.LevenbergMarquardt.MaxIterations = 0
	cfg.Solver.LevenbergMarquardt.GradientTolerance = -1
	cfg.FocalLength.Method = "hough"
	cfg.Workers = -2

	err := cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 6)
	for _, substring := range []string{"fisheye", "u_min < u_max", "max_iterations", "gradient_tolerance", "hough", "workers"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, substring)
	}

	cfg = Default()
	err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bounds")

	cfg.Camera.Bounds = &camera.ImageBounds{UMax: 640, VMax: 480}
	test.That(t, cfg.Validate(""), test.ShouldBeNil)

	cfg.Solver.Type = "gauss_newton"
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)
	_, err = cfg.NewSolver()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromAttributes(t *testing.T) {
	cfg, err := FromAttributes(map[string]interface{}{
		"camera": map[string]interface{}{
			"name":   "/cam1",
			"model":  "pinhole",
			"bounds": map[string]interface{}{"u_min": 0, "u_max": 640, "v_min": 0, "v_max": 480},
		},
		"solver": map[string]interface{}{
			"type": "bfgs",
			"bfgs": map[string]interface{}{"max_iterations": 25},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.Bounds.UMax, test.ShouldEqual, 640.)
	test.That(t, cfg.FocalLength.Method, test.ShouldEqual, string(calibration.ParabolaLine))

	solver, err := cfg.NewSolver()
	test.That(t, err, test.ShouldBeNil)
	gradient, ok := solver.(*optimization.GradientSolver)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, gradient.Settings.MajorIterations, test.ShouldEqual, 25)
}

func TestFileLogger(t *testing.T) {
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", File: filepath.Join(t.TempDir(), "run.log")}
	logger, err := cfg.NewLogger("calibration")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.WARN)

	cfg.Log.Level = "loud"
	_, err = cfg.NewLogger("calibration")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPROJECTION_LOG_DIR", dir)
	path := filepath.Join(dir, "calibration.json")
	contents := `{
		"camera": {"name": "${REPROJECTION_CAMERA:-/cam0}", "model": "pinhole",
			"bounds": {"u_min": 0, "u_max": 640, "v_min": 0, "v_max": 480}},
		"log": {"file": "${REPROJECTION_LOG_DIR}/calib.log"}
	}`
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Log.File, test.ShouldEqual, filepath.Join(dir, "calib.log"))
	test.That(t, cfg.Camera.Name, test.ShouldEqual, "/cam0")
}

func TestFromReaderKeepsDefaults(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(`{"camera": {"bounds": {"u_max": 640, "v_max": 480}}}`))
	test.That(t, err, test.ShouldBeNil)

	expected := Default()
	expected.Camera.Bounds = &camera.ImageBounds{UMax: 640, VMax: 480}
	test.That(t, cmp.Diff(expected, cfg), test.ShouldBeEmpty)
}

func TestValidateOrder(t *testing.T) {
	cfg := Default()
	cfg.Camera.Bounds = &camera.ImageBounds{UMax: 640, VMax: 480}
	cfg.Solver.LevenbergMarquardt.FunctionTolerance = -1
	cfg.Solver.LevenbergMarquardt.GradientTolerance = -1
	cfg.Solver.LevenbergMarquardt.ParameterTolerance = -1

	for i := 0; i < 10; i++ {
		errs := multierr.Errors(cfg.Validate("calibration"))
		test.That(t, errs, test.ShouldHaveLength, 3)
		for j, name := range []string{"function_tolerance", "gradient_tolerance", "parameter_tolerance"} {
			test.That(t, errs[j].Error(), test.ShouldContainSubstring, name)
		}
	}
}

func TestSchema(t *testing.T) {
	out, err := json.Marshal(Schema())
	test.That(t, err, test.ShouldBeNil)
	for _, key := range []string{"camera", "levenberg_marquardt", "u_min", "focal_length"} {
		test.That(t, string(out), test.ShouldContainSubstring, key)
	}
}
