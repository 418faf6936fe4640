// Package config defines the sensor calibration and pipeline settings of the rgbd tools.
package config

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// Config describes both sensors and how their frames are processed.
type Config struct {
	DepthCamera         transform.CalibrationRecord  `json:"depth_camera"`
	ColorCamera         transform.CalibrationRecord  `json:"color_camera"`
	ConfidenceThreshold float64                      `json:"confidence_threshold"`
	MaxDepthMm          int                          `json:"max_depth_mm"`
	Registration        transform.RegistrationConfig `json:"registration"`
	ColorOrder          string                       `json:"color_order,omitempty"`
	UndistortColor      bool                         `json:"undistort_color,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Default returns the factory configuration.
func Default() *Config {
	return &Config{
		DepthCamera:         DefaultDepthCalibration(),
		ColorCamera:         DefaultColorCalibration(),
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxDepthMm:          DefaultMaxDepthMm,
		Registration:        transform.RegistrationConfig{Grid: transform.GridColor},
		ColorOrder:          rimage.RGBA.String(),
	}
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var err error
	if e := c.DepthCamera.CheckValid(); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "depth_camera"))
	}
	if e := c.ColorCamera.CheckValid(); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "color_camera"))
	}
	if math.IsNaN(c.ConfidenceThreshold) || math.IsInf(c.ConfidenceThreshold, 0) {
		err = multierr.Append(err, errors.Errorf("confidence_threshold must be finite, got %v", c.ConfidenceThreshold))
	}
	if c.MaxDepthMm < 0 || c.MaxDepthMm > math.MaxInt16 {
		err = multierr.Append(err, errors.Errorf("max_depth_mm must be in [0, %d], got %d", math.MaxInt16, c.MaxDepthMm))
	}
	if _, e := transform.GridModeFromString(string(c.Registration.Grid)); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := rimage.ChannelOrderFromString(c.ColorOrder); e != nil {
		err = multierr.Append(err, e)
	}
	return err
}

// CameraModels builds the depth and color camera models.
func (c *Config) CameraModels() (*transform.CameraModel, *transform.CameraModel, error) {
	depth, err := transform.NewCameraModel(c.DepthCamera)
	if err != nil {
		return nil, nil, errors.Wrap(err, "depth_camera")
	}
	color, err := transform.NewCameraModel(c.ColorCamera)
	if err != nil {
		return nil, nil, errors.Wrap(err, "color_camera")
	}
	return depth, color, nil
}

// Order returns the configured channel order of packed color frames.
func (c *Config) Order() rimage.ChannelOrder {
	//nolint:errcheck
	order, _ := rimage.ChannelOrderFromString(c.ColorOrder)
	return order
}

// DepthPipelineConfig returns the settings of the depth pipeline.
func (c *Config) DepthPipelineConfig() transform.DepthPipelineConfig {
	return transform.DepthPipelineConfig{
		ConfidenceThreshold: c.ConfidenceThreshold,
		MaxDepth:            rimage.Depth(c.MaxDepthMm),
		Registration:        c.Registration,
	}
}

// Pipelines validates the config and builds both pipelines from it.
func (c *Config) Pipelines(logger logging.Logger) (*transform.DepthPipeline, *transform.ColorPipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	depth, color, err := c.CameraModels()
	if err != nil {
		return nil, nil, err
	}
	dp, err := transform.NewDepthPipeline(depth, color, c.DepthPipelineConfig(), logger.Sublogger("depth"))
	if err != nil {
		return nil, nil, err
	}
	cp, err := transform.NewColorPipeline(color, c.Order(), c.UndistortColor, logger.Sublogger("color"))
	if err != nil {
		return nil, nil, err
	}
	return dp, cp, nil
}
