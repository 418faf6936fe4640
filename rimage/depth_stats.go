package rimage

import (
	"github.com/montanaflynn/stats"
)

// DepthStats summarizes the valid (nonzero) samples of a depth map in millimeters.
type DepthStats struct {
	Valid  int
	Min    Depth
	Max    Depth
	Mean   float64
	Median float64
}

// ComputeDepthStats returns the statistics of dm. Mean and Median are 0 for a map with no
// valid sample.
func ComputeDepthStats(dm *DepthMap) DepthStats {
	valid := make(stats.Float64Data, 0, len(dm.data))
	for _, d := range dm.data {
		if d > 0 {
			valid = append(valid, float64(d))
		}
	}
	ret := DepthStats{Valid: len(valid)}
	if len(valid) == 0 {
		return ret
	}
	ret.Min, ret.Max = dm.MinMax()
	//nolint:errcheck
	ret.Mean, _ = valid.Mean()
	//nolint:errcheck
	ret.Median, _ = valid.Median()
	return ret
}
