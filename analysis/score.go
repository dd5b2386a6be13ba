package analysis

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mixdoctor/mixdoctor/logging"
)

// Scoring policy. These are the fixed business thresholds for the whole
// pipeline; tests pin them. A stereo width inside [0.3, 0.7], a correlation
// of at least 0.3, a dynamic range of 6-18 dB and a peak no hotter than
// -1 dBFS describe a mix with no flagged issues.
const (
	minGoodStereoWidth  = 0.3
	maxGoodStereoWidth  = 0.7
	minGoodCoherence    = 0.3
	maxBandDeviation    = 0.15
	minGoodDynamicRange = 6.0
	maxGoodDynamicRange = 18.0
	maxGoodPeakLevel    = -1.0 // dBFS

	stereoWidthPenalty  = 15.0
	severePhasePenalty  = 30.0 // correlation below zero: channels cancelling
	phasePenalty        = 15.0
	dynamicRangePenalty = 10.0
	hotPeakPenalty      = 10.0
	bandDeviationWeight = 50.0 // scales mean band deviation into score points
)

// idealBands is the target energy distribution for a balanced full mix.
var idealBands = BandBalance{
	Low:     0.25,
	LowMid:  0.15,
	Mid:     0.30,
	HighMid: 0.18,
	High:    0.12,
}

// Recommendation catalog: exactly one fixed string per issue flag, emitted in
// flag order (phase, stereo, frequency, dynamics).
const (
	recPhase     = "Check for phase cancellation between left and right channels; flip the polarity of doubled tracks and re-check mono compatibility."
	recStereoLow = "The mix is close to mono; widen pads, reverbs or doubled parts to open up the stereo image."
	recStereoHi  = "The stereo image is wider than is safe for mono playback; pull hard-panned elements toward the center."
	recFrequency = "The spectral balance deviates from a typical full-range mix; rebalance EQ across the low, mid and high bands."
	recDynamics  = "The dynamic range is outside the 6-18 dB range typical of a healthy mix; revisit bus compression and limiting."
	recClipping  = "The signal clips at full scale; lower the mix bus level or the limiter ceiling to restore headroom."
)

// Aggregator maps a raw measurement set to a scored AnalysisRecord. It is the
// single owner of the scoring policy and performs no I/O.
type Aggregator struct {
	logger logging.Logger

	// Injectable for deterministic tests
	now   func() time.Time
	newID func() string
}

// NewAggregator creates a new score aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		logger: logging.WithFields(logging.Fields{
			"component": "score_aggregator",
		}),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Aggregate builds a fresh AnalysisRecord from a measurement set: a bounded
// overall score, the four issue flags and their recommendations, and a newly
// generated identifier and timestamp. Deterministic given the measurements.
func (a *Aggregator) Aggregate(m *Measurements) *AnalysisRecord {
	record := &AnalysisRecord{
		ID:            a.newID(),
		AnalyzedAt:    a.now().UTC().Truncate(time.Second),
		SchemaVersion: SchemaVersion,

		StereoWidth:      m.StereoWidth,
		PhaseCoherence:   m.PhaseCoherence,
		LeftRightBalance: m.LeftRightBalance,
		MidSideRatio:     m.MidSideRatio,
		SpectralCentroid: m.SpectralCentroid,
		Bands:            m.Bands,
		DynamicRange:     m.DynamicRange,
		Loudness:         m.Loudness,
		PeakLevel:        m.PeakLevel,
		Clipping:         m.Clipping,
	}

	record.HasPhaseIssues = m.PhaseCoherence < minGoodCoherence
	record.HasStereoIssues = m.StereoWidth < minGoodStereoWidth || m.StereoWidth > maxGoodStereoWidth
	record.HasFrequencyImbalance = maxBandDeviationFrom(m.Bands) > maxBandDeviation
	record.HasDynamicRangeIssues = m.DynamicRange < minGoodDynamicRange || m.DynamicRange > maxGoodDynamicRange

	record.OverallScore = a.score(m)
	record.Recommendations = a.recommendations(record)
	record.ReadyForMastering = !record.HasPhaseIssues &&
		!record.HasStereoIssues &&
		!record.HasFrequencyImbalance &&
		!record.HasDynamicRangeIssues &&
		!record.Clipping

	a.logger.Debug("measurements aggregated", logging.Fields{
		"record_id":     record.ID,
		"overall_score": record.OverallScore,
		"ready":         record.ReadyForMastering,
	})

	return record
}

// score applies the fixed penalty model to the measurements.
func (a *Aggregator) score(m *Measurements) float64 {
	score := 100.0

	if m.StereoWidth < minGoodStereoWidth || m.StereoWidth > maxGoodStereoWidth {
		score -= stereoWidthPenalty
	}

	if m.PhaseCoherence < 0 {
		score -= severePhasePenalty
	} else if m.PhaseCoherence < minGoodCoherence {
		score -= phasePenalty
	}

	if m.DynamicRange < minGoodDynamicRange || m.DynamicRange > maxGoodDynamicRange {
		score -= dynamicRangePenalty
	}

	if m.PeakLevel > maxGoodPeakLevel {
		score -= hotPeakPenalty
	}

	score -= meanBandDeviationFrom(m.Bands) * bandDeviationWeight

	if score < 0 {
		return 0.0
	}
	if score > 100 {
		return 100.0
	}
	return score
}

// recommendations emits one catalog string per triggered flag, in flag order.
// Clipping gets its own entry even though it has no dedicated issue flag.
func (a *Aggregator) recommendations(record *AnalysisRecord) []string {
	recs := []string{}

	if record.HasPhaseIssues {
		recs = append(recs, recPhase)
	}
	if record.HasStereoIssues {
		if record.StereoWidth < minGoodStereoWidth {
			recs = append(recs, recStereoLow)
		} else {
			recs = append(recs, recStereoHi)
		}
	}
	if record.HasFrequencyImbalance {
		recs = append(recs, recFrequency)
	}
	if record.HasDynamicRangeIssues {
		recs = append(recs, recDynamics)
	}
	if record.Clipping {
		recs = append(recs, recClipping)
	}

	return recs
}

func bandDeviations(b BandBalance) [5]float64 {
	return [5]float64{
		math.Abs(b.Low - idealBands.Low),
		math.Abs(b.LowMid - idealBands.LowMid),
		math.Abs(b.Mid - idealBands.Mid),
		math.Abs(b.HighMid - idealBands.HighMid),
		math.Abs(b.High - idealBands.High),
	}
}

func meanBandDeviationFrom(b BandBalance) float64 {
	deviations := bandDeviations(b)
	sum := 0.0
	for _, d := range deviations {
		sum += d
	}
	return sum / float64(len(deviations))
}

func maxBandDeviationFrom(b BandBalance) float64 {
	deviations := bandDeviations(b)
	maxDev := 0.0
	for _, d := range deviations {
		if d > maxDev {
			maxDev = d
		}
	}
	return maxDev
}
