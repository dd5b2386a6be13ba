package analysis

import (
	"math"
	"testing"
	"time"
)

// testAggregator returns an aggregator with a pinned clock and identifier so
// expectations stay deterministic.
func testAggregator() *Aggregator {
	a := NewAggregator()
	a.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "test-record-id" }
	return a
}

func cleanMeasurements() *Measurements {
	return &Measurements{
		StereoWidth:      0.5,
		PhaseCoherence:   0.9,
		LeftRightBalance: 0.0,
		MidSideRatio:     3.0,
		SpectralCentroid: 2500,
		Bands:            idealBands,
		DynamicRange:     12,
		Loudness:         -14,
		PeakLevel:        -3,
		Clipping:         false,
	}
}

func TestAggregateCleanMix(t *testing.T) {
	record := testAggregator().Aggregate(cleanMeasurements())

	if record.OverallScore != 100 {
		t.Errorf("score = %v, want 100 for a clean mix", record.OverallScore)
	}
	if record.HasPhaseIssues || record.HasStereoIssues || record.HasFrequencyImbalance || record.HasDynamicRangeIssues {
		t.Errorf("clean mix raised issue flags: %+v", record)
	}
	if len(record.Recommendations) != 0 {
		t.Errorf("clean mix produced recommendations: %v", record.Recommendations)
	}
	if !record.ReadyForMastering {
		t.Error("clean mix not marked ready for mastering")
	}
	if record.ID != "test-record-id" || record.SchemaVersion != SchemaVersion {
		t.Errorf("record identity fields wrong: id=%q schema=%q", record.ID, record.SchemaVersion)
	}
	if record.Insight != nil {
		t.Error("fresh record already carries AI insight")
	}
}

func TestAggregatePenalties(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(m *Measurements)
		wantScore float64
		wantFlag  func(r *AnalysisRecord) bool
	}{
		{
			name:      "narrow_stereo",
			mutate:    func(m *Measurements) { m.StereoWidth = 0.2 },
			wantScore: 85,
			wantFlag:  func(r *AnalysisRecord) bool { return r.HasStereoIssues },
		},
		{
			name:      "wide_stereo",
			mutate:    func(m *Measurements) { m.StereoWidth = 0.8 },
			wantScore: 85,
			wantFlag:  func(r *AnalysisRecord) bool { return r.HasStereoIssues },
		},
		{
			name:      "weak_phase",
			mutate:    func(m *Measurements) { m.PhaseCoherence = 0.1 },
			wantScore: 85,
			wantFlag:  func(r *AnalysisRecord) bool { return r.HasPhaseIssues },
		},
		{
			name:      "negative_phase",
			mutate:    func(m *Measurements) { m.PhaseCoherence = -0.5 },
			wantScore: 70,
			wantFlag:  func(r *AnalysisRecord) bool { return r.HasPhaseIssues },
		},
		{
			name:      "squashed_dynamics",
			mutate:    func(m *Measurements) { m.DynamicRange = 4 },
			wantScore: 90,
			wantFlag:  func(r *AnalysisRecord) bool { return r.HasDynamicRangeIssues },
		},
		{
			name:      "excessive_dynamics",
			mutate:    func(m *Measurements) { m.DynamicRange = 20 },
			wantScore: 90,
			wantFlag:  func(r *AnalysisRecord) bool { return r.HasDynamicRangeIssues },
		},
		{
			name:      "hot_peak",
			mutate:    func(m *Measurements) { m.PeakLevel = -0.2 },
			wantScore: 90,
			// A hot peak costs points but raises no issue flag
			wantFlag: func(r *AnalysisRecord) bool {
				return !r.HasPhaseIssues && !r.HasStereoIssues &&
					!r.HasFrequencyImbalance && !r.HasDynamicRangeIssues
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := cleanMeasurements()
			tt.mutate(m)
			record := testAggregator().Aggregate(m)

			if math.Abs(record.OverallScore-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", record.OverallScore, tt.wantScore)
			}
			if !tt.wantFlag(record) {
				t.Errorf("expected flag not raised: %+v", record)
			}
		})
	}
}

func TestAggregateBandImbalance(t *testing.T) {
	m := cleanMeasurements()
	// Push all energy into the low band: max deviation 0.75 over the limit
	m.Bands = BandBalance{Low: 1.0}

	record := testAggregator().Aggregate(m)

	if !record.HasFrequencyImbalance {
		t.Error("extreme band skew did not raise the frequency imbalance flag")
	}
	// Mean deviation: (0.75+0.15+0.30+0.18+0.12)/5 = 0.30 -> 15 points
	if math.Abs(record.OverallScore-85) > 1e-9 {
		t.Errorf("score = %v, want 85 for the skewed band balance", record.OverallScore)
	}
}

func TestAggregateScoreStaysBounded(t *testing.T) {
	worst := &Measurements{
		StereoWidth:    1.0,
		PhaseCoherence: -1.0,
		Bands:          BandBalance{Low: 1, LowMid: 1, Mid: 1, HighMid: 1, High: 1},
		DynamicRange:   0,
		PeakLevel:      0,
		Clipping:       true,
	}

	record := testAggregator().Aggregate(worst)
	if record.OverallScore < 0 || record.OverallScore > 100 {
		t.Fatalf("score = %v, want within [0,100]", record.OverallScore)
	}
	if record.OverallScore != 0 {
		t.Errorf("score = %v, want clamp to 0 for the degenerate worst case", record.OverallScore)
	}
	if record.ReadyForMastering {
		t.Error("degenerate mix marked ready for mastering")
	}
}

func TestAggregateRecommendationOrder(t *testing.T) {
	m := cleanMeasurements()
	m.PhaseCoherence = -0.8
	m.StereoWidth = 0.1
	m.Bands = BandBalance{Low: 1.0}
	m.DynamicRange = 2
	m.Clipping = true

	record := testAggregator().Aggregate(m)

	want := []string{recPhase, recStereoLow, recFrequency, recDynamics, recClipping}
	if len(record.Recommendations) != len(want) {
		t.Fatalf("got %d recommendations, want %d: %v", len(record.Recommendations), len(want), record.Recommendations)
	}
	for i := range want {
		if record.Recommendations[i] != want[i] {
			t.Errorf("recommendation[%d] = %q, want %q", i, record.Recommendations[i], want[i])
		}
	}
}

func TestAggregateWideStereoRecommendation(t *testing.T) {
	m := cleanMeasurements()
	m.StereoWidth = 0.9

	record := testAggregator().Aggregate(m)
	if len(record.Recommendations) != 1 || record.Recommendations[0] != recStereoHi {
		t.Fatalf("recommendations = %v, want only the too-wide advice", record.Recommendations)
	}
}

func TestAggregateSilentSignalCase(t *testing.T) {
	// The canonical "no issues, no information" input: everything at its
	// silence value. Width 0 (-15), zeroed bands (mean deviation 0.2, -10),
	// dynamic range 0 (-10): score 65.
	silent := &Measurements{
		StereoWidth:    0,
		PhaseCoherence: 1.0,
		DynamicRange:   0,
		Loudness:       -70,
		PeakLevel:      -96,
		Bands:          BandBalance{},
	}

	record := testAggregator().Aggregate(silent)

	if math.Abs(record.OverallScore-65) > 1e-9 {
		t.Errorf("score = %v, want 65 for silence", record.OverallScore)
	}
	if record.HasPhaseIssues {
		t.Error("silence flagged with phase issues")
	}
	if !record.HasStereoIssues || !record.HasFrequencyImbalance || !record.HasDynamicRangeIssues {
		t.Errorf("silence flags wrong: %+v", record)
	}
}
