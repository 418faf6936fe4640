package rimage

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/rgbd/utils"
)

// YUVPlanes is a YUV_420_888 frame as delivered by the sensor: three byte planes, each with its
// own row stride, and a pixel stride for the two chroma planes. Chroma is sampled once per
// 2x2 block.
type YUVPlanes struct {
	Width  int
	Height int

	Y []byte
	U []byte
	V []byte

	YRowStride    int
	UVRowStride   int
	UVPixelStride int
}

// CheckValid verifies the strides and that every plane is big enough for the frame.
func (p *YUVPlanes) CheckValid() error {
	if p == nil {
		return errors.New("yuv frame is nil")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return errors.Errorf("invalid yuv frame size (%d, %d)", p.Width, p.Height)
	}
	if p.YRowStride < p.Width {
		return errors.Errorf("y row stride %d is smaller than width %d", p.YRowStride, p.Width)
	}
	if p.UVRowStride <= 0 || p.UVPixelStride <= 0 {
		return errors.Errorf("invalid uv strides (row %d, pixel %d)", p.UVRowStride, p.UVPixelStride)
	}
	yNeed := (p.Height-1)*p.YRowStride + p.Width
	if len(p.Y) < yNeed {
		return errors.Wrapf(ErrBufferSize, "y plane has %d bytes, need %d", len(p.Y), yNeed)
	}
	uvNeed := ((p.Height-1)>>1)*p.UVRowStride + ((p.Width-1)>>1)*p.UVPixelStride + 1
	if len(p.U) < uvNeed {
		return errors.Wrapf(ErrBufferSize, "u plane has %d bytes, need %d", len(p.U), uvNeed)
	}
	if len(p.V) < uvNeed {
		return errors.Wrapf(ErrBufferSize, "v plane has %d bytes, need %d", len(p.V), uvNeed)
	}
	return nil
}

// maxChannelValue is the largest 18-bit fixed-point channel value before the final shift.
const maxChannelValue = 262143

// YUVToRGB converts one BT.601 limited-range sample to RGB with 10-bit fixed-point coefficients.
func YUVToRGB(y, u, v uint8) (uint8, uint8, uint8) {
	nY := int(y) - 16
	nU := int(u) - 128
	nV := int(v) - 128
	if nY < 0 {
		nY = 0
	}

	nR := 1192*nY + 1634*nV
	nG := 1192*nY - 833*nV - 400*nU
	nB := 1192*nY + 2066*nU

	nR = clampInt(nR, 0, maxChannelValue)
	nG = clampInt(nG, 0, maxChannelValue)
	nB = clampInt(nB, 0, maxChannelValue)

	return uint8((nR >> 10) & 0xff), uint8((nG >> 10) & 0xff), uint8((nB >> 10) & 0xff)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ConvertYUVToPacked converts a YUV frame into one packed, fully opaque 32-bit pixel per
// pixel in the requested channel order.
func ConvertYUVToPacked(p *YUVPlanes, order ChannelOrder) ([]uint32, error) {
	if err := p.CheckValid(); err != nil {
		return nil, err
	}
	out := make([]uint32, p.Width*p.Height)
	utils.ParallelForEachRow(p.Height, func(y int) {
		yRow := p.Y[p.YRowStride*y:]
		uvRowStart := p.UVRowStride * (y >> 1)
		uRow := p.U[uvRowStart:]
		vRow := p.V[uvRowStart:]
		outRow := out[y*p.Width : (y+1)*p.Width]
		for x := 0; x < p.Width; x++ {
			uvOffset := (x >> 1) * p.UVPixelStride
			r, g, b := YUVToRGB(yRow[x], uRow[uvOffset], vRow[uvOffset])
			outRow[x] = order.Pack(r, g, b, 0xff)
		}
	})
	return out, nil
}

// ConvertYUVToBytes is like ConvertYUVToPacked but returns four bytes per pixel laid out in
// channel order, e.g. R, G, B, A for RGBA.
func ConvertYUVToBytes(p *YUVPlanes, order ChannelOrder) ([]byte, error) {
	packed, err := ConvertYUVToPacked(p, order)
	if err != nil {
		return nil, err
	}
	return PackedToBytes(packed), nil
}

// ConvertYUVToImage converts a YUV frame into an image.
func ConvertYUVToImage(p *YUVPlanes) (*image.NRGBA, error) {
	pix, err := ConvertYUVToBytes(p, RGBA)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{Pix: pix, Stride: 4 * p.Width, Rect: image.Rect(0, 0, p.Width, p.Height)}, nil
}

// PackedToImage wraps packed pixels of the given order into an image.
func PackedToImage(packed []uint32, width, height int, order ChannelOrder) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || len(packed) != width*height {
		return nil, errors.Wrapf(ErrBufferSize, "got %d pixels for a %dx%d image", len(packed), width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, px := range packed {
		r, g, b, a := order.Unpack(px)
		img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], img.Pix[4*i+3] = r, g, b, a
	}
	return img, nil
}
