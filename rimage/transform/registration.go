package transform

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/utils"
)

// GridMode selects the pixel grid depth is registered onto.
type GridMode string

const (
	// GridColor registers onto the color sensor's own resolution and intrinsics.
	GridColor = GridMode("color")
	// GridDepth registers onto a grid of the depth frame's size, with the color intrinsics
	// rescaled to that size. Older consumers expect this layout.
	GridDepth = GridMode("depth")
)

// GridModeFromString parses a grid mode. The empty string is GridColor.
func GridModeFromString(s string) (GridMode, error) {
	switch GridMode(s) {
	case "", GridColor:
		return GridColor, nil
	case GridDepth:
		return GridDepth, nil
	default:
		return "", errors.Errorf("unknown registration grid %q, expected %q or %q", s, GridColor, GridDepth)
	}
}

// RegistrationConfig controls how depth is scattered into the color view.
type RegistrationConfig struct {
	Grid GridMode `json:"grid,omitempty"`
	// ZBuffer keeps the nearest depth when several samples land on one pixel. When false the
	// sample scanned last in row-major order wins.
	ZBuffer bool `json:"z_buffer,omitempty"`
}

// DepthRegistrar reprojects depth maps from the depth sensor's view into the color sensor's.
type DepthRegistrar struct {
	depth   *CameraModel
	target  PinholeCameraIntrinsics
	toColor rigidTransform
	zBuffer bool
}

// NewDepthRegistrar returns a registrar between the two sensors.
func NewDepthRegistrar(depth, color *CameraModel, cfg RegistrationConfig) (*DepthRegistrar, error) {
	if depth == nil || color == nil {
		return nil, errors.New("registration needs both a depth and a color camera model")
	}
	grid, err := GridModeFromString(string(cfg.Grid))
	if err != nil {
		return nil, err
	}
	target := color.Intrinsics()
	if grid == GridDepth {
		factor := float64(depth.Width()) / float64(color.Width())
		target = target.Scaled(factor, depth.Width(), depth.Height())
	}
	return &DepthRegistrar{
		depth:   depth,
		target:  target,
		toColor: sensorToSensor(depth.Extrinsics(), color.Extrinsics()),
		zBuffer: cfg.ZBuffer,
	}, nil
}

// TargetSize returns the size of registered depth maps.
func (dr *DepthRegistrar) TargetSize() (int, int) {
	return dr.target.Width, dr.target.Height
}

// TargetIntrinsics returns the intrinsics of the registered grid.
func (dr *DepthRegistrar) TargetIntrinsics() PinholeCameraIntrinsics {
	return dr.target
}

// ProjectPixel maps depth pixel (u, v) at depth d millimeters to an index in the registered
// grid. It returns false for zero depth and for points that leave the target frame or sit
// behind the color sensor.
func (dr *DepthRegistrar) ProjectPixel(u, v int, d rimage.Depth) (int, bool) {
	if d == 0 {
		return 0, false
	}
	z := float64(d) / 1000
	p := dr.toColor.Apply(dr.depth.PixelToPoint(float64(u), float64(v), z))
	if p.Z <= 0 {
		return 0, false
	}
	x, y := dr.target.PointToPixel(p)
	if !(x >= 0 && y >= 0 && x <= float64(dr.target.Width) && y <= float64(dr.target.Height)) {
		return 0, false
	}
	ix, iy := int(x), int(y)
	if ix >= dr.target.Width || iy >= dr.target.Height {
		return 0, false
	}
	return iy*dr.target.Width + ix, true
}

func (dr *DepthRegistrar) checkInput(dm *rimage.DepthMap) error {
	if dm == nil {
		return errors.New("input DepthMap is nil")
	}
	if dm.Width() != dr.depth.Width() || dm.Height() != dr.depth.Height() {
		return errors.Errorf("depth map dimension and depth intrinsics don't match DepthMap(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), dr.depth.Width(), dr.depth.Height())
	}
	return nil
}

// Register scatters dm into the registered grid. Cells no sample lands on stay 0. Rows are
// processed in parallel and the result is the same as a single row-major scan.
func (dr *DepthRegistrar) Register(ctx context.Context, dm *rimage.DepthMap) (*rimage.DepthMap, error) {
	if err := dr.checkInput(dm); err != nil {
		return nil, err
	}
	if dr.zBuffer {
		return dr.registerNearest(ctx, dm)
	}
	return dr.registerLastWins(ctx, dm)
}

// registerLastWins records, per target cell, the largest source index that reaches it and
// then gathers those samples.
func (dr *DepthRegistrar) registerLastWins(ctx context.Context, dm *rimage.DepthMap) (*rimage.DepthMap, error) {
	w, h := dm.Width(), dm.Height()
	src := dm.Data()
	winners := make([]atomic.Int32, dr.target.Width*dr.target.Height)
	err := utils.GroupWorkParallel(ctx, h, func(from, to int) {
		for v := from; v < to; v++ {
			for u := 0; u < w; u++ {
				srcIdx := v*w + u
				dst, ok := dr.ProjectPixel(u, v, src[srcIdx])
				if !ok {
					continue
				}
				storeMax(&winners[dst], int32(srcIdx+1))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	out := rimage.NewEmptyDepthMap(dr.target.Width, dr.target.Height)
	data := out.Data()
	for i := range winners {
		if idx := winners[i].Load(); idx > 0 {
			data[i] = src[idx-1]
		}
	}
	return out, nil
}

func storeMax(a *atomic.Int32, val int32) {
	for {
		old := a.Load()
		if old >= val || a.CompareAndSwap(old, val) {
			return
		}
	}
}

// registerNearest keeps the smallest depth per target cell. Ties go to the later source index,
// as in registerLastWins.
func (dr *DepthRegistrar) registerNearest(ctx context.Context, dm *rimage.DepthMap) (*rimage.DepthMap, error) {
	w, h := dm.Width(), dm.Height()
	src := dm.Data()
	keys := make([]atomic.Uint64, dr.target.Width*dr.target.Height)
	err := utils.GroupWorkParallel(ctx, h, func(from, to int) {
		for v := from; v < to; v++ {
			for u := 0; u < w; u++ {
				srcIdx := v*w + u
				d := src[srcIdx]
				dst, ok := dr.ProjectPixel(u, v, d)
				if !ok || d < 0 {
					continue
				}
				storeMin(&keys[dst], uint64(d)<<32|uint64(math.MaxUint32-uint32(srcIdx)))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	out := rimage.NewEmptyDepthMap(dr.target.Width, dr.target.Height)
	data := out.Data()
	for i := range keys {
		if k := keys[i].Load(); k != 0 {
			data[i] = rimage.Depth(k >> 32)
		}
	}
	return out, nil
}

// storeMin lowers a to val. Zero marks an empty cell.
func storeMin(a *atomic.Uint64, val uint64) {
	for {
		old := a.Load()
		if (old != 0 && old <= val) || a.CompareAndSwap(old, val) {
			return
		}
	}
}
