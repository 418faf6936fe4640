package transform

import (
	"testing"

	"go.viam.com/test"
)

// factoryDepthRecord and factoryColorRecord are the Samsung S20+ calibrations.
var factoryDepthRecord = CalibrationRecord{
	Width: 320, Height: 240, ScaleFactor: 0.5,
	Fx: 536.9581, Fy: 536.7106, Cx: 312.9077, Cy: 233.22255,
	Tx: -0.011234,
	Qx: 0.70304, Qy: -0.71113, Qz: 0.00172, Qw: 0,
	K1: 0.32826, K2: -0.56677, K3: 0.12383,
}

var factoryColorRecord = CalibrationRecord{
	Width: 1440, Height: 1080, ScaleFactor: 0.3571,
	Fx: 3054.3071, Fy: 3052.0754, Cx: 1990.2135, Cy: 1512.378,
	Qx: 0.7071, Qy: -0.7071, Qz: 0, Qw: 0,
	K1: 0.05797, K2: -0.05520, K3: 0.00144,
}

// simpleRecord is a distortion-free 320x240 camera at the device origin whose intrinsics
// are exact in binary.
func simpleRecord() CalibrationRecord {
	return CalibrationRecord{
		Width: 320, Height: 240, ScaleFactor: 1,
		Fx: 256, Fy: 256, Cx: 160, Cy: 120,
		Qw: 1,
	}
}

func newModel(t *testing.T, rec CalibrationRecord) *CameraModel {
	t.Helper()
	cm, err := NewCameraModel(rec)
	test.That(t, err, test.ShouldBeNil)
	return cm
}
