package analysis

import (
	"time"
)

// SchemaVersion is stamped into every new record so older sidecars can be
// recognized when the field set evolves.
const SchemaVersion = "1.0"

// BandBalance holds each band's fraction of total spectral energy across the
// five fixed analysis bands. Fractions are in [0,1] and are not required to
// sum to 1 (energy outside 20 Hz - 20 kHz is not counted).
type BandBalance struct {
	Low     float64 `json:"low"`      // 20-250 Hz
	LowMid  float64 `json:"low_mid"`  // 250-500 Hz
	Mid     float64 `json:"mid"`      // 500-2000 Hz
	HighMid float64 `json:"high_mid"` // 2000-4000 Hz
	High    float64 `json:"high"`     // 4000-20000 Hz
}

// Measurements is the full raw measurement set the three analyzers produce.
// The aggregator maps it to a record; the insight provider consumes it to
// write its commentary.
type Measurements struct {
	StereoWidth      float64     `json:"stereo_width"`
	PhaseCoherence   float64     `json:"phase_coherence"`
	LeftRightBalance float64     `json:"left_right_balance"`
	MidSideRatio     float64     `json:"mid_side_ratio"`
	SpectralCentroid float64     `json:"spectral_centroid"`
	Bands            BandBalance `json:"band_balance"`
	DynamicRange     float64     `json:"dynamic_range"`
	Loudness         float64     `json:"loudness"`
	PeakLevel        float64     `json:"peak_level"`
	Clipping         bool        `json:"clipping"`
}

// AIInsight carries the commentary an external insight provider attaches to a
// record. A record with a nil *AIInsight has not been enriched yet; the
// provider never computes technical measurements, only narrates them.
type AIInsight struct {
	Summary         string   `json:"summary"`
	Score           *float64 `json:"score,omitempty"` // provider may decline to score
	Recommendations []string `json:"recommendations"`
}

// AnalysisRecord is the persisted result of one analysis run. One record maps
// to exactly one audio file by sidecar naming convention.
type AnalysisRecord struct {
	ID            string    `json:"id"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
	SchemaVersion string    `json:"schema_version"`

	OverallScore float64 `json:"overall_score"` // 0-100

	StereoWidth      float64     `json:"stereo_width"`       // 0-1
	PhaseCoherence   float64     `json:"phase_coherence"`    // -1 to 1
	LeftRightBalance float64     `json:"left_right_balance"` // -1 (left heavy) to 1 (right heavy)
	MidSideRatio     float64     `json:"mid_side_ratio"`     // mid RMS over side RMS
	SpectralCentroid float64     `json:"spectral_centroid"`  // Hz
	Bands            BandBalance `json:"band_balance"`
	DynamicRange     float64     `json:"dynamic_range"` // dB, >= 0
	Loudness         float64     `json:"loudness"`      // LUFS-like, typically negative
	PeakLevel        float64     `json:"peak_level"`    // dBFS, typically <= 0
	Clipping         bool        `json:"clipping"`

	HasPhaseIssues        bool `json:"has_phase_issues"`
	HasStereoIssues       bool `json:"has_stereo_issues"`
	HasFrequencyImbalance bool `json:"has_frequency_imbalance"`
	HasDynamicRangeIssues bool `json:"has_dynamic_range_issues"`

	Recommendations []string `json:"recommendations"`

	// Insight is nil until the external provider has run.
	Insight *AIInsight `json:"ai_insight,omitempty"`

	ReadyForMastering bool `json:"ready_for_mastering"`
}

// measurements reconstructs the raw measurement view of a record, for handing
// an already-persisted record to the insight provider.
func (r *AnalysisRecord) measurements() *Measurements {
	return &Measurements{
		StereoWidth:      r.StereoWidth,
		PhaseCoherence:   r.PhaseCoherence,
		LeftRightBalance: r.LeftRightBalance,
		MidSideRatio:     r.MidSideRatio,
		SpectralCentroid: r.SpectralCentroid,
		Bands:            r.Bands,
		DynamicRange:     r.DynamicRange,
		Loudness:         r.Loudness,
		PeakLevel:        r.PeakLevel,
		Clipping:         r.Clipping,
	}
}
