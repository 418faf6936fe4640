package transform

import (
	"fmt"
	"math"
)

// numDistortionParameters is the number of coefficients of the Brown-Conrady model.
const numDistortionParameters = 5

// BrownConrady is the forward Brown-Conrady lens model: radial coefficients k1, k2, k3 and
// tangential coefficients p1, p2.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// NewBrownConrady takes exactly five coefficients ordered k1, k2, k3, p1, p2.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) != numDistortionParameters {
		return nil, InvalidDistortionError(
			fmt.Sprintf("expected %d coefficients (k1, k2, k3, p1, p2), got %d", numDistortionParameters, len(inp)))
	}
	return &BrownConrady{inp[0], inp[1], inp[2], inp[3], inp[4]}, nil
}

// CheckValid checks that every coefficient is a finite number.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return InvalidDistortionError("BrownConrady shaped distortion_parameters not provided")
	}
	for _, p := range bc.Parameters() {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return InvalidDistortionError("coefficients must be finite")
		}
	}
	return nil
}

// ModelType returns the type of distortion model.
func (bc *BrownConrady) ModelType() DistortionType {
	return BrownConradyDistortionType
}

// Parameters returns the coefficients ordered k1, k2, k3, p1, p2.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.RadialK3, bc.TangentialP1, bc.TangentialP2}
}

// PlumbBob returns the coefficients ordered k1, k2, p1, p2, k3, the layout of the ROS
// "plumb_bob" distortion model.
func (bc *BrownConrady) PlumbBob() []float64 {
	return []float64{bc.RadialK1, bc.RadialK2, bc.TangentialP1, bc.TangentialP2, bc.RadialK3}
}

// IsZero reports whether the model is the identity.
func (bc *BrownConrady) IsZero() bool {
	return bc == nil || *bc == BrownConrady{}
}

// Transform distorts normalized coordinates (x, y):
//
//	x_d = x*(1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y*(1 + k1*r² + k2*r⁴ + k3*r⁶) + p1*(r² + 2*y²) + 2*p2*x*y
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2
	radDist := 1 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6
	xd := x*radDist + 2*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2*x*x)
	yd := y*radDist + bc.TangentialP1*(r2+2*y*y) + 2*bc.TangentialP2*x*y
	return xd, yd
}

// Inverse returns the model that undoes this one.
func (bc *BrownConrady) Inverse() *InverseBrownConrady {
	if bc == nil {
		return nil
	}
	return &InverseBrownConrady{bc.RadialK1, bc.RadialK2, bc.RadialK3, bc.TangentialP1, bc.TangentialP2}
}
