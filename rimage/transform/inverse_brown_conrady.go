package transform

// InverseBrownConrady undoes a Brown-Conrady distortion: given distorted normalized
// coordinates it solves for the undistorted ones with Newton-Raphson.
type InverseBrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// NewInverseBrownConrady takes exactly five coefficients ordered k1, k2, k3, p1, p2.
func NewInverseBrownConrady(inp []float64) (*InverseBrownConrady, error) {
	bc, err := NewBrownConrady(inp)
	if err != nil {
		return nil, err
	}
	return bc.Inverse(), nil
}

// CheckValid checks if the fields for InverseBrownConrady have valid inputs.
func (ibc *InverseBrownConrady) CheckValid() error {
	if ibc == nil {
		return InvalidDistortionError("InverseBrownConrady shaped distortion_parameters not provided")
	}
	return ibc.forward().CheckValid()
}

// ModelType returns the type of distortion model.
func (ibc *InverseBrownConrady) ModelType() DistortionType {
	return InverseBrownConradyDistortionType
}

// Parameters returns the coefficients ordered k1, k2, k3, p1, p2.
func (ibc *InverseBrownConrady) Parameters() []float64 {
	if ibc == nil {
		return []float64{}
	}
	return ibc.forward().Parameters()
}

func (ibc *InverseBrownConrady) forward() *BrownConrady {
	return &BrownConrady{ibc.RadialK1, ibc.RadialK2, ibc.RadialK3, ibc.TangentialP1, ibc.TangentialP2}
}

const (
	inverseMaxIterations = 20
	inverseTolerance     = 1e-10
)

// Transform returns the undistorted normalized coordinates that the forward model maps onto (xd, yd).
func (ibc *InverseBrownConrady) Transform(xd, yd float64) (float64, float64) {
	if ibc == nil {
		return xd, yd
	}
	fwd := ibc.forward()
	xu, yu := xd, yd
	for i := 0; i < inverseMaxIterations; i++ {
		xEst, yEst := fwd.Transform(xu, yu)
		errX, errY := xEst-xd, yEst-yd
		if errX*errX+errY*errY < inverseTolerance*inverseTolerance {
			break
		}
		j00, j01, j10, j11 := fwd.jacobian(xu, yu)
		det := j00*j11 - j01*j10
		if det == 0 {
			break
		}
		xu -= (j11*errX - j01*errY) / det
		yu -= (-j10*errX + j00*errY) / det
	}
	return xu, yu
}

// jacobian returns the partial derivatives of Transform at (x, y), row major.
func (bc *BrownConrady) jacobian(x, y float64) (float64, float64, float64, float64) {
	r2 := x*x + y*y
	r4 := r2 * r2
	radDist := 1 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r4*r2
	dRad := bc.RadialK1 + 2*bc.RadialK2*r2 + 3*bc.RadialK3*r4
	dRadDx := 2 * x * dRad
	dRadDy := 2 * y * dRad

	dxdx := radDist + x*dRadDx + 2*bc.TangentialP1*y + 6*bc.TangentialP2*x
	dxdy := x*dRadDy + 2*bc.TangentialP1*x + 2*bc.TangentialP2*y
	dydx := y*dRadDx + 2*bc.TangentialP1*x + 2*bc.TangentialP2*y
	dydy := radDist + y*dRadDy + 6*bc.TangentialP1*y + 2*bc.TangentialP2*x
	return dxdx, dxdy, dydx, dydy
}
