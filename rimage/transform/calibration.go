package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// ReferenceAspectRatio is the width/height ratio every sensor resolution must have.
const ReferenceAspectRatio = 4.0 / 3.0

const (
	numIntrinsics  = 5
	numTranslation = 3
	numRotation    = 4
)

// CalibrationRecord is the flat factory calibration of one sensor. Intrinsics are given at the
// calibrated resolution; ScaleFactor is the ratio of Width to that resolution.
type CalibrationRecord struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scale_factor"`
	Fx          float64 `json:"fx"`
	Fy          float64 `json:"fy"`
	Cx          float64 `json:"cx"`
	Cy          float64 `json:"cy"`
	Skew        float64 `json:"skew"`
	Tx          float64 `json:"tx"`
	Ty          float64 `json:"ty"`
	Tz          float64 `json:"tz"`
	Qx          float64 `json:"qx"`
	Qy          float64 `json:"qy"`
	Qz          float64 `json:"qz"`
	Qw          float64 `json:"qw"`
	K1          float64 `json:"k1"`
	K2          float64 `json:"k2"`
	K3          float64 `json:"k3"`
	P1          float64 `json:"p1"`
	P2          float64 `json:"p2"`
}

// NewCalibrationRecord builds a record from coefficient slices: intrinsics (fx, fy, cx, cy, s),
// translation (tx, ty, tz), rotation (qx, qy, qz, qw) and distortion (k1, k2, k3, p1, p2).
func NewCalibrationRecord(
	width, height int, scaleFactor float64,
	intrinsics, translation, rotation, distortion []float64,
) (CalibrationRecord, error) {
	var err error
	checkLen := func(name string, vals []float64, want int) {
		if len(vals) != want {
			err = multierr.Append(err, NewInvalidCalibrationError(
				fmt.Sprintf("%s expects %d values, got %d", name, want, len(vals))))
		}
	}
	checkLen("intrinsics", intrinsics, numIntrinsics)
	checkLen("translation", translation, numTranslation)
	checkLen("rotation", rotation, numRotation)
	checkLen("distortion", distortion, numDistortionParameters)
	if err != nil {
		return CalibrationRecord{}, err
	}
	return CalibrationRecord{
		Width: width, Height: height, ScaleFactor: scaleFactor,
		Fx: intrinsics[0], Fy: intrinsics[1], Cx: intrinsics[2], Cy: intrinsics[3], Skew: intrinsics[4],
		Tx: translation[0], Ty: translation[1], Tz: translation[2],
		Qx: rotation[0], Qy: rotation[1], Qz: rotation[2], Qw: rotation[3],
		K1: distortion[0], K2: distortion[1], K3: distortion[2], P1: distortion[3], P2: distortion[4],
	}, nil
}

// CheckValid reports every problem with the record at once.
func (rec *CalibrationRecord) CheckValid() error {
	var err error
	if rec.Width <= 0 || rec.Height <= 0 {
		err = multierr.Append(err, NewInvalidCalibrationError(
			fmt.Sprintf("invalid size (%d, %d)", rec.Width, rec.Height)))
	} else if rec.Width*3 != rec.Height*4 {
		err = multierr.Append(err, NewInvalidCalibrationError(
			fmt.Sprintf("size %dx%d does not match aspect ratio %.4f", rec.Width, rec.Height, ReferenceAspectRatio)))
	}
	if !(rec.ScaleFactor > 0) || math.IsInf(rec.ScaleFactor, 0) {
		err = multierr.Append(err, NewInvalidCalibrationError(
			fmt.Sprintf("invalid scale factor %v", rec.ScaleFactor)))
	}
	names := []string{"skew", "tx", "ty", "tz", "qx", "qy", "qz", "qw"}
	for i, v := range []float64{rec.Skew, rec.Tx, rec.Ty, rec.Tz, rec.Qx, rec.Qy, rec.Qz, rec.Qw} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			err = multierr.Append(err, NewInvalidCalibrationError(fmt.Sprintf("%s must be finite", names[i])))
		}
	}
	return err
}

// CameraModel is the immutable geometry of one sensor at its working resolution. The
// intrinsics are scaled once, when the model is built.
type CameraModel struct {
	intrinsics  PinholeCameraIntrinsics
	scaleFactor float64
	extrinsics  Extrinsics
	distortion  BrownConrady
}

// NewCameraModel validates rec and returns the model it describes.
func NewCameraModel(rec CalibrationRecord) (*CameraModel, error) {
	if err := rec.CheckValid(); err != nil {
		return nil, err
	}
	raw := PinholeCameraIntrinsics{Fx: rec.Fx, Fy: rec.Fy, Ppx: rec.Cx, Ppy: rec.Cy, Skew: rec.Skew}
	cm := &CameraModel{
		intrinsics:  raw.Scaled(rec.ScaleFactor, rec.Width, rec.Height),
		scaleFactor: rec.ScaleFactor,
		extrinsics: Extrinsics{
			Translation: r3.Vector{X: rec.Tx, Y: rec.Ty, Z: rec.Tz},
			Rotation:    quat.Number{Real: rec.Qw, Imag: rec.Qx, Jmag: rec.Qy, Kmag: rec.Qz},
		},
		distortion: BrownConrady{rec.K1, rec.K2, rec.K3, rec.P1, rec.P2},
	}
	if err := multierr.Combine(cm.intrinsics.CheckValid(), cm.distortion.CheckValid()); err != nil {
		return nil, err
	}
	return cm, nil
}

// Record returns the calibration record the model was built from.
func (cm *CameraModel) Record() CalibrationRecord {
	in, s := cm.intrinsics, cm.scaleFactor
	t, q := cm.extrinsics.Translation, cm.extrinsics.Rotation
	d := cm.distortion
	return CalibrationRecord{
		Width: in.Width, Height: in.Height, ScaleFactor: s,
		Fx: in.Fx / s, Fy: in.Fy / s, Cx: in.Ppx / s, Cy: in.Ppy / s, Skew: in.Skew,
		Tx: t.X, Ty: t.Y, Tz: t.Z,
		Qx: q.Imag, Qy: q.Jmag, Qz: q.Kmag, Qw: q.Real,
		K1: d.RadialK1, K2: d.RadialK2, K3: d.RadialK3, P1: d.TangentialP1, P2: d.TangentialP2,
	}
}

// Width is the horizontal resolution in pixels.
func (cm *CameraModel) Width() int { return cm.intrinsics.Width }

// Height is the vertical resolution in pixels.
func (cm *CameraModel) Height() int { return cm.intrinsics.Height }

// ScaleFactor is the ratio between the working and the calibrated resolution.
func (cm *CameraModel) ScaleFactor() float64 { return cm.scaleFactor }

// Intrinsics returns the scaled pinhole parameters.
func (cm *CameraModel) Intrinsics() PinholeCameraIntrinsics { return cm.intrinsics }

// Extrinsics returns the pose of the sensor in the device frame.
func (cm *CameraModel) Extrinsics() Extrinsics { return cm.extrinsics }

// Distortion returns the lens model.
func (cm *CameraModel) Distortion() BrownConrady { return cm.distortion }

// IntrinsicMatrix returns K = [[fx, 0, cx], [0, fy, cy], [0, 0, 1]].
func (cm *CameraModel) IntrinsicMatrix() *mat.Dense {
	return cm.intrinsics.GetCameraMatrix()
}

// RotationMatrix returns R, built from the extrinsic quaternion.
func (cm *CameraModel) RotationMatrix() *mat.Dense {
	rm := cm.extrinsics.RotationMatrix()
	return rm.Dense()
}

// DistortionVector returns D = (k1, k2, k3, p1, p2).
func (cm *CameraModel) DistortionVector() *mat.VecDense {
	return mat.NewVecDense(numDistortionParameters, cm.distortion.Parameters())
}

// ProjectionMatrix returns the 3x4 matrix P = K·[Rᵀ | -Rᵀt] that maps homogeneous points in the
// device frame to homogeneous pixel coordinates of this sensor.
func (cm *CameraModel) ProjectionMatrix() *mat.Dense {
	inv := cm.extrinsics.Inverse()
	rm := inv.RotationMatrix()
	rt := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt.Set(i, j, rm.At(i, j))
		}
	}
	rt.Set(0, 3, inv.Translation.X)
	rt.Set(1, 3, inv.Translation.Y)
	rt.Set(2, 3, inv.Translation.Z)

	var p mat.Dense
	p.Mul(cm.IntrinsicMatrix(), rt)
	return &p
}

// PointToPixel projects a point in this sensor's frame to continuous pixel coordinates.
func (cm *CameraModel) PointToPixel(pt r3.Vector) (float64, float64) {
	return cm.intrinsics.PointToPixel(pt)
}

// PixelToPoint back-projects a pixel at depth z (meters) into this sensor's frame.
func (cm *CameraModel) PixelToPoint(x, y, z float64) r3.Vector {
	return cm.intrinsics.PixelToPoint(x, y, z)
}
