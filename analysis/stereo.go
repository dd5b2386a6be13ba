package analysis

import (
	"github.com/mixdoctor/mixdoctor/algorithms/common"
	"github.com/mixdoctor/mixdoctor/algorithms/stats"
	"github.com/mixdoctor/mixdoctor/logging"
)

// maxMidSideRatio caps the mid/side energy ratio when the side channel is
// silent (a pure mono source), keeping the record free of infinities.
const maxMidSideRatio = 1000.0

// StereoResult holds the stereo-geometry measurements.
type StereoResult struct {
	Width            float64 `json:"width"`              // 0 (mono) to 1 (side energy equals mid energy)
	PhaseCoherence   float64 `json:"phase_coherence"`    // -1 to 1
	LeftRightBalance float64 `json:"left_right_balance"` // -1 (left heavy) to 1 (right heavy)
	MidSideRatio     float64 `json:"mid_side_ratio"`
}

// StereoAnalyzer derives stereo width and phase relationship from the
// left/right pair and its mid/side decomposition. Pure computation over
// read-only buffers; no I/O, no state between calls.
type StereoAnalyzer struct {
	logger logging.Logger
}

// NewStereoAnalyzer creates a new stereo analyzer.
func NewStereoAnalyzer() *StereoAnalyzer {
	return &StereoAnalyzer{
		logger: logging.WithFields(logging.Fields{
			"component": "stereo_analyzer",
		}),
	}
}

// Analyze computes the stereo measurements.
//
// Width is 2*sideRMS/(midRMS+sideRMS) clamped to [0,1]: identical channels
// give 0, equal mid and side energy gives 1. Phase coherence is the Pearson
// correlation of left against right over the whole signal; when either
// channel is constant (digital silence) the coefficient is undefined and the
// coherence defaults to 1.0, the value an identical pair would produce.
func (s *StereoAnalyzer) Analyze(pa *ProcessedAudio, ms *MidSideAudio) *StereoResult {
	midRMS := common.RMS(ms.Mid)
	sideRMS := common.RMS(ms.Side)
	leftRMS := common.RMS(pa.Left)
	rightRMS := common.RMS(pa.Right)

	width := 0.0
	if midRMS+sideRMS > 0 {
		width = common.Clamp(2.0*sideRMS/(midRMS+sideRMS), 0.0, 1.0)
	}

	coherence := 1.0
	if r, ok := stats.Pearson(pa.Left, pa.Right); ok {
		coherence = r
	}

	balance := 0.0
	if leftRMS+rightRMS > 0 {
		balance = common.Clamp((rightRMS-leftRMS)/(rightRMS+leftRMS), -1.0, 1.0)
	}

	midSideRatio := 0.0
	switch {
	case sideRMS > 0:
		midSideRatio = midRMS / sideRMS
		if midSideRatio > maxMidSideRatio {
			midSideRatio = maxMidSideRatio
		}
	case midRMS > 0:
		midSideRatio = maxMidSideRatio
	}

	result := &StereoResult{
		Width:            width,
		PhaseCoherence:   coherence,
		LeftRightBalance: balance,
		MidSideRatio:     midSideRatio,
	}

	s.logger.Debug("stereo analysis complete", logging.Fields{
		"width":     result.Width,
		"coherence": result.PhaseCoherence,
	})

	return result
}
