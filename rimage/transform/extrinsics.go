package transform

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a row-major 3x3 rotation.
type RotationMatrix [9]float64

// QuatToRotationMatrix converts q to a rotation matrix. q is expected to be a unit
// quaternion; it is not normalized first.
func QuatToRotationMatrix(q quat.Number) RotationMatrix {
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	return RotationMatrix{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	}
}

// At returns the element at row i, column j.
func (rm *RotationMatrix) At(i, j int) float64 {
	return rm[3*i+j]
}

// Apply rotates v.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm[0]*v.X + rm[1]*v.Y + rm[2]*v.Z,
		Y: rm[3]*v.X + rm[4]*v.Y + rm[5]*v.Z,
		Z: rm[6]*v.X + rm[7]*v.Y + rm[8]*v.Z,
	}
}

// Transpose returns the inverse rotation.
func (rm *RotationMatrix) Transpose() RotationMatrix {
	return RotationMatrix{
		rm[0], rm[3], rm[6],
		rm[1], rm[4], rm[7],
		rm[2], rm[5], rm[8],
	}
}

// Dense returns the rotation as a gonum matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, rm[:])
	return mat.NewDense(3, 3, data)
}

// Extrinsics is the pose of a sensor in the shared device frame: a point p in sensor
// coordinates sits at Rotation*p + Translation in device coordinates. Translation is in meters.
type Extrinsics struct {
	Translation r3.Vector
	Rotation    quat.Number
}

// RotationMatrix returns the rotation of the pose.
func (e Extrinsics) RotationMatrix() RotationMatrix {
	return QuatToRotationMatrix(e.Rotation)
}

// Inverse returns the pose of the device frame in sensor coordinates.
func (e Extrinsics) Inverse() Extrinsics {
	inv := quat.Conj(e.Rotation)
	rm := QuatToRotationMatrix(inv)
	return Extrinsics{
		Translation: rm.Apply(e.Translation).Mul(-1),
		Rotation:    inv,
	}
}

// rigidTransform is a pose flattened for per-pixel use.
type rigidTransform struct {
	rot RotationMatrix
	t   r3.Vector
}

// Apply maps p into the target frame.
func (rt *rigidTransform) Apply(p r3.Vector) r3.Vector {
	return rt.rot.Apply(p).Add(rt.t)
}

// sensorToSensor returns the transform taking points in the from sensor frame into the to
// sensor frame: p_to = R_toᵀ·(R_from·p + t_from - t_to).
func sensorToSensor(from, to Extrinsics) rigidTransform {
	rFrom := from.RotationMatrix()
	rToT := to.RotationMatrix()
	rToT = rToT.Transpose()
	var rot RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += rToT.At(i, k) * rFrom.At(k, j)
			}
			rot[3*i+j] = s
		}
	}
	return rigidTransform{rot: rot, t: rToT.Apply(from.Translation.Sub(to.Translation))}
}
