package temporal

import (
	"math"
)

const (
	// MinDB is the level floor in dBFS. Digital silence reports this instead
	// of -Inf so downstream records stay numerically well-formed.
	MinDB = -96.0

	// MinLUFS is the loudness floor, matching the EBU R128 gating floor.
	MinLUFS = -70.0
)

// AmplitudeToDB converts a linear [0,1] amplitude to dBFS, floored at MinDB.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return MinDB
	}

	db := 20.0 * math.Log10(amplitude)
	if db < MinDB {
		return MinDB
	}
	return db
}

// PeakLevelDB returns the true sample peak across all channels in dBFS.
func PeakLevelDB(channels ...[]float64) float64 {
	peak := 0.0
	for _, channel := range channels {
		for _, sample := range channel {
			if abs := math.Abs(sample); abs > peak {
				peak = abs
			}
		}
	}

	return AmplitudeToDB(peak)
}

// LoudnessLUFS estimates program loudness from the summed per-channel mean
// square, in the shape of the BS.1770 integration step:
//
//	L = -0.691 + 10*log10(sum_i meanSquare_i)
//
// K-weighting and gating are omitted; for full-mix material this tracks the
// standard measurement within a couple of LU. Floored at MinLUFS.
func LoudnessLUFS(channels ...[]float64) float64 {
	power := 0.0
	for _, channel := range channels {
		if len(channel) == 0 {
			continue
		}

		sumSquares := 0.0
		for _, sample := range channel {
			sumSquares += sample * sample
		}
		power += sumSquares / float64(len(channel))
	}

	if power <= 0 {
		return MinLUFS
	}

	lufs := -0.691 + 10.0*math.Log10(power)
	if lufs < MinLUFS {
		return MinLUFS
	}
	return lufs
}

// RMSLevelDB returns the RMS level across all channels in dBFS.
func RMSLevelDB(channels ...[]float64) float64 {
	sumSquares := 0.0
	count := 0
	for _, channel := range channels {
		for _, sample := range channel {
			sumSquares += sample * sample
		}
		count += len(channel)
	}

	if count == 0 {
		return MinDB
	}

	return AmplitudeToDB(math.Sqrt(sumSquares / float64(count)))
}

// CrestRangeDB returns peak level minus RMS level (the crest factor in dB),
// clamped to be non-negative. Silence reports 0.
func CrestRangeDB(channels ...[]float64) float64 {
	rangeDB := PeakLevelDB(channels...) - RMSLevelDB(channels...)
	if rangeDB < 0 {
		return 0.0
	}
	return rangeDB
}

// HasClippingRun reports whether the signal contains at least minRun
// consecutive samples at or above the absolute threshold. The run-length
// requirement keeps a single full-scale transient from flagging the whole
// mix as clipped.
func HasClippingRun(signal []float64, threshold float64, minRun int) bool {
	if minRun <= 0 {
		minRun = 1
	}

	run := 0
	for _, sample := range signal {
		if math.Abs(sample) >= threshold {
			run++
			if run >= minRun {
				return true
			}
		} else {
			run = 0
		}
	}

	return false
}
