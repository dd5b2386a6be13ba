package analysis

import (
	"github.com/mixdoctor/mixdoctor/algorithms/temporal"
	"github.com/mixdoctor/mixdoctor/logging"
)

// DynamicsResult holds the level and dynamics measurements.
type DynamicsResult struct {
	PeakLevel    float64 `json:"peak_level"`    // dBFS, floored at temporal.MinDB
	Loudness     float64 `json:"loudness"`      // LUFS-like estimate
	DynamicRange float64 `json:"dynamic_range"` // dB, >= 0
	Clipping     bool    `json:"clipping"`
}

// DynamicsAnalyzer measures peak level, loudness, dynamic range and clipping
// across both channels of a ProcessedAudio.
type DynamicsAnalyzer struct {
	clipThreshold float64
	clipMinRun    int
	logger        logging.Logger
}

// NewDynamicsAnalyzer creates a new dynamics analyzer.
func NewDynamicsAnalyzer(cfg *Config) *DynamicsAnalyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &DynamicsAnalyzer{
		clipThreshold: cfg.ClipThreshold,
		clipMinRun:    cfg.ClipMinRun,
		logger: logging.WithFields(logging.Fields{
			"component": "dynamics_analyzer",
		}),
	}
}

// Analyze computes the dynamics measurements. A silent signal reports the
// level floor, zero dynamic range and no clipping.
func (d *DynamicsAnalyzer) Analyze(pa *ProcessedAudio) *DynamicsResult {
	result := &DynamicsResult{
		PeakLevel:    temporal.PeakLevelDB(pa.Left, pa.Right),
		Loudness:     temporal.LoudnessLUFS(pa.Left, pa.Right),
		DynamicRange: temporal.CrestRangeDB(pa.Left, pa.Right),
		Clipping: temporal.HasClippingRun(pa.Left, d.clipThreshold, d.clipMinRun) ||
			temporal.HasClippingRun(pa.Right, d.clipThreshold, d.clipMinRun),
	}

	d.logger.Debug("dynamics analysis complete", logging.Fields{
		"peak_level":    result.PeakLevel,
		"loudness":      result.Loudness,
		"dynamic_range": result.DynamicRange,
		"clipping":      result.Clipping,
	})

	return result
}
