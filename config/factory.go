package config

import (
	"github.com/pkg/errors"

	"go.viam.com/rgbd/rimage/transform"
)

const (
	// DefaultConfidenceThreshold drops depth samples whose confidence is at or below 0.1.
	DefaultConfidenceThreshold = 0.1
	// DefaultMaxDepthMm is the depth that renders white-to-black in visualizations.
	DefaultMaxDepthMm = 5000
)

// OutputSize is a supported sensor resolution and its scale relative to the calibrated one.
type OutputSize struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scale_factor"`
}

// ColorOutputSizes are the color sensor resolutions, calibrated at 4032x3024.
var ColorOutputSizes = []OutputSize{
	{4032, 3024, 1.0},
	{1440, 1080, 0.3571},
	{960, 720, 0.2381},
	{640, 480, 0.1587},
	{320, 240, 0.0794},
}

// DepthOutputSizes are the depth sensor resolutions, calibrated at 640x480.
var DepthOutputSizes = []OutputSize{
	{640, 480, 1.0},
	{320, 240, 0.5},
}

// DefaultDepthCalibration is the factory calibration of the Samsung S20+ time-of-flight
// sensor at 320x240.
func DefaultDepthCalibration() transform.CalibrationRecord {
	return transform.CalibrationRecord{
		Width: 320, Height: 240, ScaleFactor: 0.5,
		Fx: 536.9581, Fy: 536.7106, Cx: 312.9077, Cy: 233.22255, Skew: 0,
		Tx: -0.011234, Ty: 0, Tz: 0,
		Qx: 0.70304, Qy: -0.71113, Qz: 0.00172, Qw: 0,
		K1: 0.32826, K2: -0.56677, K3: 0.12383, P1: 0, P2: 0,
	}
}

// DefaultColorCalibration is the factory calibration of the Samsung S20+ main camera at
// 1440x1080. The color sensor sits at the device origin.
func DefaultColorCalibration() transform.CalibrationRecord {
	return transform.CalibrationRecord{
		Width: 1440, Height: 1080, ScaleFactor: 0.3571,
		Fx: 3054.3071, Fy: 3052.0754, Cx: 1990.2135, Cy: 1512.378, Skew: 0,
		Tx: 0, Ty: 0, Tz: 0,
		Qx: 0.7071, Qy: -0.7071, Qz: 0, Qw: 0,
		K1: 0.05797, K2: -0.05520, K3: 0.00144, P1: 0, P2: 0,
	}
}

func lookupSize(sizes []OutputSize, width, height int) (OutputSize, error) {
	for _, s := range sizes {
		if s.Width == width && s.Height == height {
			return s, nil
		}
	}
	return OutputSize{}, errors.Errorf("unsupported output size %dx%d", width, height)
}

// WithSize returns rec moved to another entry of sizes.
func WithSize(rec transform.CalibrationRecord, sizes []OutputSize, width, height int) (transform.CalibrationRecord, error) {
	s, err := lookupSize(sizes, width, height)
	if err != nil {
		return transform.CalibrationRecord{}, err
	}
	rec.Width, rec.Height, rec.ScaleFactor = s.Width, s.Height, s.ScaleFactor
	return rec, nil
}

// DepthCalibrationFor returns the factory depth calibration at one of DepthOutputSizes.
func DepthCalibrationFor(width, height int) (transform.CalibrationRecord, error) {
	return WithSize(DefaultDepthCalibration(), DepthOutputSizes, width, height)
}

// ColorCalibrationFor returns the factory color calibration at one of ColorOutputSizes.
func ColorCalibrationFor(width, height int) (transform.CalibrationRecord, error) {
	return WithSize(DefaultColorCalibration(), ColorOutputSizes, width, height)
}
