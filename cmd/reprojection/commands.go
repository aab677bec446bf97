package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/reprojection-calibration/reprojection-sub000/calibration"
	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/config"
	"github.com/reprojection-calibration/reprojection-sub000/logging"
	"github.com/reprojection-calibration/reprojection-sub000/testutils/mvg"
)

// syntheticIntrinsics are the true intrinsics of the simulated camera of each model.
var syntheticIntrinsics = map[camera.Model][]float64{
	camera.Pinhole:            {600, 600, 360, 240},
	camera.PinholeRadtan4:     {600, 600, 360, 240, -0.1, 0.01, 0.001, -0.001},
	camera.UnifiedCameraModel: {600, 600, 360, 240, 1},
	camera.DoubleSphere:       {310, 310, 360, 240, -0.05, 0.52},
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(flagConfig)
	if path == "" {
		cfg := config.Default()
		cfg.Camera.Bounds = &mvg.ImageBounds
		return cfg, cfg.Validate("")
	}
	return config.Read(path)
}

func newLogger(c *cli.Context, cfg *config.Config) (logging.Logger, error) {
	logger, err := cfg.NewLogger("reprojection")
	if err != nil {
		return nil, err
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	logging.ReplaceGlobal(logger)
	return logger, nil
}

func calibrateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if model := c.String(flagModel); model != "" {
		cfg.Camera.Model = model
	}
	info, err := cfg.CameraInfo()
	if err != nil {
		return err
	}
	calibrateCfg, err := cfg.CalibrateConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer logger.Sync()

	data, err := mvg.GenerateMvgData(c.Int(flagFrames), info.Model, syntheticIntrinsics[info.Model], *info.Bounds,
		c.Bool(flagFlat), c.Uint64(flagSeed))
	if err != nil {
		return errors.Wrap(err, "cannot synthesize observations")
	}
	data.Sensor.Name = info.Name

	result, err := calibration.Calibrate(c.Context, data.Sensor, data.Targets, calibrateCfg, logger)
	if err != nil {
		return err
	}

	if c.Bool(flagJSON) {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	printStatus(c.App.Writer, result)
	fmt.Fprintln(c.App.Writer, renderSummary(result, data.Intrinsics))
	fmt.Fprintln(c.App.Writer, renderFrameErrors(result))
	if hist, ok := renderErrorHistogram(result, histogramBins); ok {
		fmt.Fprintln(c.App.Writer, hist)
	}

	if path := c.String(flagPlot); path != "" {
		if err := plotFrameErrors(result, path); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "wrote reprojection error chart to %s\n", path)
	}
	return nil
}

func validateConfigAction(c *cli.Context) error {
	if c.Bool(flagSchema) {
		out, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(out))
		return nil
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
