package rimage

import (
	"strings"

	"github.com/pkg/errors"
)

// ChannelOrder is the layout of a packed 32-bit color pixel, most significant byte first.
// As bytes in memory each pixel appears in the same order.
type ChannelOrder int

const (
	// RGBA is the layout of the ROS "rgba8" image encoding.
	RGBA ChannelOrder = iota
	// BGRA is the layout of the ROS "bgra8" image encoding.
	BGRA
	// ARGB is the layout of an ARGB_8888 bitmap pixel as a 32-bit integer.
	ARGB
)

func (order ChannelOrder) String() string {
	switch order {
	case RGBA:
		return "rgba"
	case BGRA:
		return "bgra"
	case ARGB:
		return "argb"
	}
	return "unknown"
}

// ChannelOrderFromString parses "rgba", "bgra" or "argb", ignoring case.
func ChannelOrderFromString(s string) (ChannelOrder, error) {
	switch strings.ToLower(s) {
	case "rgba", "":
		return RGBA, nil
	case "bgra":
		return BGRA, nil
	case "argb":
		return ARGB, nil
	}
	return RGBA, errors.Errorf("unknown channel order %q", s)
}

// Pack builds a 32-bit pixel from its channels.
func (order ChannelOrder) Pack(r, g, b, a uint8) uint32 {
	switch order {
	case BGRA:
		return uint32(b)<<24 | uint32(g)<<16 | uint32(r)<<8 | uint32(a)
	case ARGB:
		return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	default:
		return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
	}
}

// Unpack is the inverse of Pack.
func (order ChannelOrder) Unpack(px uint32) (r, g, b, a uint8) {
	b0, b1, b2, b3 := uint8(px>>24), uint8(px>>16), uint8(px>>8), uint8(px)
	switch order {
	case BGRA:
		return b2, b1, b0, b3
	case ARGB:
		return b1, b2, b3, b0
	default:
		return b0, b1, b2, b3
	}
}

// PackedToBytes lays packed pixels out in memory, four bytes per pixel in channel order.
func PackedToBytes(packed []uint32) []byte {
	out := make([]byte, 4*len(packed))
	for i, px := range packed {
		out[4*i] = uint8(px >> 24)
		out[4*i+1] = uint8(px >> 16)
		out[4*i+2] = uint8(px >> 8)
		out[4*i+3] = uint8(px)
	}
	return out
}
