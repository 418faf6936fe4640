package rimage

import (
	"github.com/pkg/errors"

	"go.viam.com/rgbd/utils"
)

// A DEPTH16 word packs a 13-bit range and a 3-bit confidence code.
const (
	depthRangeMask      = 0x1FFF
	depthConfidenceBits = 13
	depthConfidenceMask = 0x7
)

// DepthSplit returns the range and confidence code packed in a DEPTH16 word.
func DepthSplit(word uint16) (rangeMm, code uint16) {
	return word & depthRangeMask, (word >> depthConfidenceBits) & depthConfidenceMask
}

// ConfidenceFromCode maps a 3-bit confidence code to [0, 1].
// Code 0 means the sensor did not report a confidence and is treated as certain, codes 1..6
// map to (code-1)/7 and code 7, the top bucket, is full confidence.
func ConfidenceFromCode(code uint16) float64 {
	switch {
	case code == 0, code == depthConfidenceMask:
		return 1.0
	default:
		return float64(code-1) / 7.0
	}
}

// DepthConfidence returns the confidence of a DEPTH16 word.
func DepthConfidence(word uint16) float64 {
	_, code := DepthSplit(word)
	return ConfidenceFromCode(code)
}

// DecodeDepth16 returns the range of a DEPTH16 word, or 0 when its confidence is not strictly
// greater than confidenceThreshold.
func DecodeDepth16(word uint16, confidenceThreshold float64) Depth {
	rangeMm, code := DepthSplit(word)
	if ConfidenceFromCode(code) > confidenceThreshold {
		return Depth(rangeMm)
	}
	return 0
}

// ParseDepth16 turns a frame of raw DEPTH16 words into metric depth in millimeters.
// Samples whose confidence does not exceed confidenceThreshold are set to 0.
func ParseDepth16(words []uint16, width, height int, confidenceThreshold float64) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid depth frame size (%d, %d)", width, height)
	}
	if len(words) != width*height {
		return nil, errors.Wrapf(ErrBufferSize, "got %d depth words for a %dx%d frame", len(words), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	utils.ParallelForEachRow(height, func(y int) {
		row := y * width
		for x := 0; x < width; x++ {
			dm.data[row+x] = DecodeDepth16(words[row+x], confidenceThreshold)
		}
	})
	return dm, nil
}

// FilterDepthConfidence re-applies confidence filtering to an already decoded map. Decoded
// samples carry no confidence bits so this is a no-op for any threshold below 1.
func FilterDepthConfidence(dm *DepthMap, confidenceThreshold float64) (*DepthMap, error) {
	return ParseDepth16(DepthWords(dm), dm.Width(), dm.Height(), confidenceThreshold)
}

// DepthWords reinterprets the samples of a depth map as DEPTH16 words.
func DepthWords(dm *DepthMap) []uint16 {
	words := make([]uint16, len(dm.data))
	for i, v := range dm.data {
		words[i] = uint16(v)
	}
	return words
}
