// Package rimage holds the depth and color buffers produced by the capture sensors and the
// codecs that convert between raw sensor formats, visualizations and wire formats.
package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// ErrBufferSize is returned when an input buffer does not match the dimensions it is described with.
var ErrBufferSize = errors.New("buffer size does not match frame dimensions")

// Depth is the depth at a pixel in millimeters. Zero means no valid measurement.
//
// Values are stored in a signed 16-bit container. Decoded depth is always in [0, MaxDepth]
// so the sign bit is a representation detail, not a range restriction.
type Depth int16

// MaxDepth is the largest depth the 13-bit range field of a DEPTH16 word can hold.
const MaxDepth = Depth(depthRangeMask)

// DepthMap is a row-major grid of depth samples.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zero-filled depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromData copies data into a new depth map. len(data) must be width*height.
func NewDepthMapFromData(width, height int, data []Depth) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid depth map size (%d, %d)", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Wrapf(ErrBufferSize, "got %d samples for a %dx%d depth map", len(data), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	copy(dm.data, data)
	return dm, nil
}

// NewDepthMapFromInt16 is like NewDepthMapFromData for a plain int16 slice.
func NewDepthMapFromInt16(width, height int, data []int16) (*DepthMap, error) {
	if len(data) != width*height {
		return nil, errors.Wrapf(ErrBufferSize, "got %d samples for a %dx%d depth map", len(data), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	for i, v := range data {
		dm.data[i] = Depth(v)
	}
	return dm, nil
}

// Width returns the horizontal size of the map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle covered by the map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Contains reports whether (x, y) is a pixel of the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// GetDepth returns the depth at (x, y).
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set stores a depth at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Data returns the row-major samples backing the map. The slice is shared with the map.
func (dm *DepthMap) Data() []Depth {
	return dm.data
}

// Int16s returns a copy of the samples as plain int16 values.
func (dm *DepthMap) Int16s() []int16 {
	out := make([]int16, len(dm.data))
	for i, v := range dm.data {
		out[i] = int16(v)
	}
	return out
}

// Clone returns a deep copy of the map.
func (dm *DepthMap) Clone() *DepthMap {
	ret := NewEmptyDepthMap(dm.width, dm.height)
	copy(ret.data, dm.data)
	return ret
}

// ValidCount returns the number of pixels with a nonzero depth.
func (dm *DepthMap) ValidCount() int {
	n := 0
	for _, v := range dm.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// MinMax returns the smallest and largest valid (nonzero) depth. Both are zero when the map has
// no valid pixel.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	var lo, hi Depth
	for _, v := range dm.data {
		if v <= 0 {
			continue
		}
		if lo == 0 || v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// ColorModel returns the 16-bit gray model so a DepthMap can be encoded as a 16-bit PNG.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// At returns the depth at (x, y) as a 16-bit gray value.
func (dm *DepthMap) At(x, y int) color.Color {
	if !dm.Contains(x, y) {
		return color.Gray16{}
	}
	return color.Gray16{Y: uint16(dm.GetDepth(x, y))}
}
