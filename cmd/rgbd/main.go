// Package main is the rgbd command line tool. It runs recorded depth and color sensor frames
// through the geometry pipeline and writes the corrected frames and visualizations.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/ros"
)

const (
	// Flags.
	flagConfig        = "config"
	flagDebug         = "debug"
	flagInput         = "input"
	flagOutDir        = "out-dir"
	flagFormat        = "format"
	flagGrid          = "grid"
	flagZBuffer       = "z-buffer"
	flagThreshold     = "confidence-threshold"
	flagMaxDepth      = "max-depth"
	flagPreview       = "preview"
	flagYPlane        = "y"
	flagUPlane        = "u"
	flagVPlane        = "v"
	flagWidth         = "width"
	flagHeight        = "height"
	flagYRowStride    = "y-row-stride"
	flagUVRowStride   = "uv-row-stride"
	flagUVPixelStride = "uv-pixel-stride"
	flagOrder         = "order"
	flagUndistort     = "undistort"
	flagSensor        = "sensor"
	flagDeviceFrame   = "device-frame"
	flagTopic         = "topic"
	flagStart         = "start"
	flagEnd           = "end"
	flagDir           = "dir"

	sensorDepth = "depth"
	sensorColor = "color"
)

func main() {
	logger := logging.NewLogger("rgbd")
	app := newApp(&logger)
	err := app.Run(os.Args)
	//nolint:errcheck
	logger.Sync()
	if err != nil {
		logger.Fatal(err)
	}
}

// newApp builds the command tree. The logger is replaced in Before once the debug flag is known.
func newApp(logger *logging.Logger) *cli.App {
	pipelineFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  flagGrid,
			Usage: "registration grid, color (color sensor resolution) or depth (legacy depth-sized grid)",
		},
		&cli.BoolFlag{
			Name:  flagZBuffer,
			Usage: "keep the nearest depth when several samples land on one pixel",
		},
		&cli.Float64Flag{
			Name:  flagThreshold,
			Usage: "drop depth samples with confidence at or below this value",
		},
		&cli.IntFlag{
			Name:  flagMaxDepth,
			Usage: "depth in millimeters that maps to the end of the visualization scale",
		},
	}
	outputFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     flagOutDir,
			Usage:    "write results to `DIR`",
			Required: true,
		},
		&cli.StringFlag{
			Name:  flagFormat,
			Value: "png",
			Usage: "visualization image format: png, ppm or qoi",
		},
		&cli.StringFlag{
			Name:  flagPreview,
			Usage: "also write a preview scaled to `WxH`",
		},
	}

	return &cli.App{
		Name:  "rgbd",
		Usage: "undistort, register and encode mobile depth and color sensor frames",
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
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				*logger = logging.NewDebugLogger("rgbd")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "depth",
				Usage:     "process a raw DEPTH16 frame",
				UsageText: "rgbd depth --input frame.raw --out-dir out",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagInput,
						Usage:    "raw little-endian DEPTH16 `FILE`",
						Required: true,
					},
				}, pipelineFlags...), outputFlags...),
				Action: func(c *cli.Context) error {
					return depthAction(c, *logger)
				},
			},
			{
				Name:      "color",
				Usage:     "convert raw YUV_420_888 planes to a color image",
				UsageText: "rgbd color --y y.raw --u u.raw --v v.raw --out-dir out",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: flagYPlane, Usage: "luma plane `FILE`", Required: true},
					&cli.StringFlag{Name: flagUPlane, Usage: "U plane `FILE`", Required: true},
					&cli.StringFlag{Name: flagVPlane, Usage: "V plane `FILE`", Required: true},
					&cli.IntFlag{Name: flagYRowStride, Usage: "luma row stride, defaults to the width"},
					&cli.IntFlag{Name: flagUVRowStride, Usage: "chroma row stride, defaults to the width"},
					&cli.IntFlag{Name: flagUVPixelStride, Value: 2, Usage: "chroma pixel stride"},
					&cli.StringFlag{Name: flagOrder, Usage: "packed channel order of the raw output: rgba, bgra or argb"},
					&cli.BoolFlag{Name: flagUndistort, Usage: "remove lens distortion"},
				}, outputFlags...),
				Action: func(c *cli.Context) error {
					return colorAction(c, *logger)
				},
			},
			{
				Name:  "camera-info",
				Usage: "print the sensor_msgs/CameraInfo of a sensor as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagSensor, Value: sensorDepth, Usage: "depth or color"},
					&cli.IntFlag{Name: flagWidth, Usage: "use the factory calibration at this width"},
					&cli.IntFlag{Name: flagHeight, Usage: "use the factory calibration at this height"},
					&cli.BoolFlag{Name: flagDeviceFrame, Usage: "fill R and P relative to the device frame"},
				},
				Action: func(c *cli.Context) error {
					return cameraInfoAction(c, *logger)
				},
			},
			{
				Name:  "bag",
				Usage: "replay the raw depth topic of a rosbag through the depth pipeline",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{Name: flagInput, Usage: "rosbag `FILE`", Required: true},
					&cli.StringFlag{Name: flagTopic, Value: ros.DepthTopic, Usage: "sensor_msgs/Image topic with 16UC1 DEPTH16 words"},
					&cli.Int64Flag{Name: flagStart, Usage: "first message time in unix seconds"},
					&cli.Int64Flag{Name: flagEnd, Usage: "last message time in unix seconds"},
				}, pipelineFlags...), outputFlags...),
				Action: func(c *cli.Context) error {
					return bagAction(c, *logger)
				},
			},
			{
				Name:  "watch",
				Usage: "process every raw DEPTH16 frame written to a directory",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{Name: flagDir, Usage: "watch `DIR` for new .raw files", Required: true},
				}, pipelineFlags...), outputFlags...),
				Action: func(c *cli.Context) error {
					return watchAction(c, *logger)
				},
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of the configuration file",
				Action: func(c *cli.Context) error {
					return schemaAction(c)
				},
			},
		},
	}
}
