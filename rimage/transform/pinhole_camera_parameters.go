// Package transform holds the sensor geometry of the depth and color cameras and the pixel
// transforms built on it: lens undistortion and depth-to-color registration.
package transform

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidCalibration is returned when calibration constants cannot describe a camera.
var ErrInvalidCalibration = errors.New("invalid camera calibration")

// NewInvalidCalibrationError wraps ErrInvalidCalibration with a description of the problem.
func NewInvalidCalibrationError(msg string) error {
	return errors.Wrap(ErrInvalidCalibration, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
	Skew   float64 `json:"skew"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewInvalidCalibrationError("intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewInvalidCalibrationError(fmt.Sprintf("invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// Scaled returns the intrinsics of the same lens at a resolution scaled by factor. Skew is a
// ratio and is left unchanged.
func (params PinholeCameraIntrinsics) Scaled(factor float64, width, height int) PinholeCameraIntrinsics {
	return PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     params.Fx * factor,
		Fy:     params.Fy * factor,
		Ppx:    params.Ppx * factor,
		Ppy:    params.Ppy * factor,
		Skew:   params.Skew,
	}
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera frame.
// The intrinsics parameters should be the ones of the sensor used to obtain the image that
// contains the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return r3.Vector{X: xOverZ * z, Y: yOverZ * z, Z: z}
}

// PointToPixel projects a 3D point to continuous pixel coordinates in an image plane.
// The intrinsics parameters should be the ones of the sensor we want to project to.
// Points with z == 0 cannot be projected and come back as (-1, -1).
func (params *PinholeCameraIntrinsics) PointToPixel(pt r3.Vector) (float64, float64) {
	if pt.Z == 0 {
		return -1.0, -1.0
	}
	return (pt.X/pt.Z)*params.Fx + params.Ppx, (pt.Y/pt.Z)*params.Fy + params.Ppy
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}
