package rimage

import (
	"encoding/binary"
	"image"

	"github.com/pkg/errors"
)

// normalizeDepth scales d into [0, 255] with integer division. Depths above maxDepth, and
// invalid or negative depths, map to 0.
func normalizeDepth(d, maxDepth Depth) uint8 {
	if d <= 0 || d > maxDepth {
		return 0
	}
	return uint8(int(d) * 255 / int(maxDepth))
}

func checkMaxDepth(maxDepth Depth) error {
	if maxDepth < 0 {
		return errors.Errorf("max depth threshold must not be negative, got %d", maxDepth)
	}
	return nil
}

// DepthToGray normalizes a depth map into one byte per pixel: gray = depth*255/maxDepth.
// Zero depth and depth beyond maxDepth are black.
func DepthToGray(dm *DepthMap, maxDepth Depth) ([]byte, error) {
	if err := checkMaxDepth(maxDepth); err != nil {
		return nil, err
	}
	out := make([]byte, len(dm.data))
	for i, d := range dm.data {
		out[i] = normalizeDepth(d, maxDepth)
	}
	return out, nil
}

// DepthToGrayImage is DepthToGray wrapped in an image.
func DepthToGrayImage(dm *DepthMap, maxDepth Depth) (*image.Gray, error) {
	pix, err := DepthToGray(dm, maxDepth)
	if err != nil {
		return nil, err
	}
	return &image.Gray{Pix: pix, Stride: dm.width, Rect: dm.Bounds()}, nil
}

// DepthToFalseColor renders a depth map as opaque inverted gray: near is bright,
// maxDepth is black. Depth beyond maxDepth is clamped to 0 first, so it renders black like
// invalid pixels.
func DepthToFalseColor(dm *DepthMap, maxDepth Depth, order ChannelOrder) ([]uint32, error) {
	if err := checkMaxDepth(maxDepth); err != nil {
		return nil, err
	}
	out := make([]uint32, len(dm.data))
	for i, d := range dm.data {
		if d > maxDepth {
			d = 0
		}
		var v uint8
		if d > 0 {
			v = 255 - normalizeDepth(d, maxDepth)
		}
		out[i] = order.Pack(v, v, v, 0xff)
	}
	return out, nil
}

// DepthToFalseColorImage is DepthToFalseColor wrapped in an image.
func DepthToFalseColorImage(dm *DepthMap, maxDepth Depth) (*image.NRGBA, error) {
	packed, err := DepthToFalseColor(dm, maxDepth, RGBA)
	if err != nil {
		return nil, err
	}
	return PackedToImage(packed, dm.width, dm.height, RGBA)
}

// DepthToUint16LE packs depth samples as little-endian 16-bit words, the layout of the ROS
// "16UC1" encoding on little-endian hosts. The conversion is lossless for every int16.
func DepthToUint16LE(data []Depth) []byte {
	out := make([]byte, 2*len(data))
	for i, d := range data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(d))
	}
	return out
}

// DepthFromUint16LE is the inverse of DepthToUint16LE.
func DepthFromUint16LE(b []byte) ([]Depth, error) {
	if len(b)%2 != 0 {
		return nil, errors.Wrapf(ErrBufferSize, "16-bit depth payload has odd length %d", len(b))
	}
	out := make([]Depth, len(b)/2)
	for i := range out {
		out[i] = Depth(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out, nil
}

// DepthMapFromUint16LE decodes a little-endian 16-bit payload into a depth map.
func DepthMapFromUint16LE(width, height int, b []byte) (*DepthMap, error) {
	data, err := DepthFromUint16LE(b)
	if err != nil {
		return nil, err
	}
	return NewDepthMapFromData(width, height, data)
}

// Uint16LEToWords decodes a little-endian payload of raw DEPTH16 words.
func Uint16LEToWords(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, errors.Wrapf(ErrBufferSize, "16-bit payload has odd length %d", len(b))
	}
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return out, nil
}
