// Package main is a demo CLI that synthesizes observations of a grid target, calibrates the camera
// from them, and reports the per-frame reprojection error.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/reprojection-calibration/reprojection-sub000/logging"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagFrames = "frames"
	flagSeed   = "seed"
	flagFlat   = "flat"
	flagModel  = "model"
	flagPlot   = "plot"
	flagJSON   = "json"
	flagSchema = "schema"

	histogramBins = 8
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Global().Errorw("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "reprojection",
		Usage: "calibrate camera intrinsics from synthetic grid target observations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "calibrate",
				Usage: "synthesize target observations and calibrate the configured camera",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagFrames,
						Value: 20,
						Usage: "number of synthetic frames",
					},
					&cli.Uint64Flag{
						Name:  flagSeed,
						Value: 1,
						Usage: "seed of the synthetic target",
					},
					&cli.BoolFlag{
						Name:  flagFlat,
						Value: true,
						Usage: "use a planar target",
					},
					&cli.StringFlag{
						Name:  flagModel,
						Usage: "override the configured camera model",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "write a reprojection error chart to `FILE` (png, svg, or pdf)",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print the full result as JSON instead of a table",
					},
				},
				Action: calibrateAction,
			},
			{
				Name:  "validate-config",
				Usage: "check a configuration file and print the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagSchema,
						Usage: "print the JSON schema of the configuration file instead",
					},
				},
				Action: validateConfigAction,
			},
		},
	}
}
