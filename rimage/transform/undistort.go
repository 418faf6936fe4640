package transform

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/utils"
)

// DistortionMap is a function that transforms the undistorted input points (u,v) to the distorted points (x,y)
// according to the Brown-Conrady model of the lens.
func (cm *CameraModel) DistortionMap() func(u, v float64) (float64, float64) {
	in := cm.intrinsics
	dist := cm.distortion
	if dist.IsZero() {
		return func(u, v float64) (float64, float64) { return u, v }
	}
	return func(u, v float64) (float64, float64) {
		x := (u - in.Ppx) / in.Fx
		y := (v - in.Ppy) / in.Fy
		x, y = dist.Transform(x, y)
		return x*in.Fx + in.Ppx, y*in.Fy + in.Ppy
	}
}

// sourceIndex returns the row-major index of the sample that lands on pixel p once the lens
// distortion is removed, or -1 when it falls outside the frame. The frame edge is inclusive
// but a truncated coordinate equal to the size has no sample behind it. This departs from the
// capture app's lookup, which computed y*width+x unguarded and so read the first sample of the
// next row when x == width; here that pixel is left empty.
func sourceIndex(p r2.Point, width, height int) int {
	if !(p.X >= 0 && p.X <= float64(width) && p.Y >= 0 && p.Y <= float64(height)) {
		return -1
	}
	x, y := int(p.X), int(p.Y)
	if x >= width || y >= height {
		return -1
	}
	return y*width + x
}

// UndistortSamples removes lens distortion from a row-major sample grid of the model's size.
// Every output pixel takes the nearest source sample at its forward-distorted position;
// pixels that map outside the frame are left at the zero value of T.
func UndistortSamples[T any](ctx context.Context, cm *CameraModel, src []T) ([]T, error) {
	w, h := cm.Width(), cm.Height()
	if len(src) != w*h {
		return nil, errors.Wrapf(rimage.ErrBufferSize, "got %d samples for a %dx%d camera", len(src), w, h)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]T, len(src))
	if cm.distortion.IsZero() {
		copy(out, src)
		return out, nil
	}
	distortionMap := cm.DistortionMap()
	err := utils.GroupWorkParallel(ctx, h, func(from, to int) {
		for v := from; v < to; v++ {
			row := out[v*w : (v+1)*w]
			for u := range row {
				x, y := distortionMap(float64(u), float64(v))
				if idx := sourceIndex(r2.Point{X: x, Y: y}, w, h); idx >= 0 {
					row[u] = src[idx]
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UndistortDepthMap takes an input depth map and creates a new depth map the same size with the same camera parameters
// as the original depth map, but undistorted according to the distortion model of the camera.
func (cm *CameraModel) UndistortDepthMap(ctx context.Context, dm *rimage.DepthMap) (*rimage.DepthMap, error) {
	if dm == nil {
		return nil, errors.New("input DepthMap is nil")
	}
	if cm.Width() != dm.Width() || cm.Height() != dm.Height() {
		return nil, errors.Errorf("depth map dimension and intrinsics don't match DepthMap(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), cm.Width(), cm.Height())
	}
	data, err := UndistortSamples(ctx, cm, dm.Data())
	if err != nil {
		return nil, err
	}
	return rimage.NewDepthMapFromData(dm.Width(), dm.Height(), data)
}

// UndistortPacked undistorts a frame of packed 32-bit colors. Pixels with no source become 0,
// which is transparent black in every channel order.
func (cm *CameraModel) UndistortPacked(ctx context.Context, packed []uint32) ([]uint32, error) {
	return UndistortSamples(ctx, cm, packed)
}

// UndistortPoint returns the undistorted pixel position of a point observed at (u, v), solving
// the inverse of the lens model.
func (cm *CameraModel) UndistortPoint(p r2.Point) r2.Point {
	in := cm.intrinsics
	x := (p.X - in.Ppx) / in.Fx
	y := (p.Y - in.Ppy) / in.Fy
	x, y = cm.distortion.Inverse().Transform(x, y)
	return r2.Point{X: x*in.Fx + in.Ppx, Y: y*in.Fy + in.Ppy}
}
