package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mixdoctor/mixdoctor/logging"
)

// SidecarSuffix is appended to the audio file name to form its sidecar name.
const SidecarSuffix = ".analysis.json"

// sidecarRecord is the on-disk shape of an AnalysisRecord. It exists so the
// wire format can stay fixed (timestamps as Unix seconds) independent of the
// in-memory type. Missing keys decode to zero values, which is exactly the
// default-on-missing-field policy older sidecar versions rely on; unknown
// keys are ignored by the decoder.
type sidecarRecord struct {
	ID            string `json:"id"`
	AnalyzedAt    int64  `json:"analyzed_at"` // Unix seconds
	SchemaVersion string `json:"schema_version"`

	OverallScore float64 `json:"overall_score"`

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

	HasPhaseIssues        bool `json:"has_phase_issues"`
	HasStereoIssues       bool `json:"has_stereo_issues"`
	HasFrequencyImbalance bool `json:"has_frequency_imbalance"`
	HasDynamicRangeIssues bool `json:"has_dynamic_range_issues"`

	Recommendations []string `json:"recommendations"`

	Insight *AIInsight `json:"ai_insight,omitempty"`

	ReadyForMastering bool `json:"ready_for_mastering"`
}

func toSidecar(record *AnalysisRecord) *sidecarRecord {
	return &sidecarRecord{
		ID:                    record.ID,
		AnalyzedAt:            record.AnalyzedAt.Unix(),
		SchemaVersion:         record.SchemaVersion,
		OverallScore:          record.OverallScore,
		StereoWidth:           record.StereoWidth,
		PhaseCoherence:        record.PhaseCoherence,
		LeftRightBalance:      record.LeftRightBalance,
		MidSideRatio:          record.MidSideRatio,
		SpectralCentroid:      record.SpectralCentroid,
		Bands:                 record.Bands,
		DynamicRange:          record.DynamicRange,
		Loudness:              record.Loudness,
		PeakLevel:             record.PeakLevel,
		Clipping:              record.Clipping,
		HasPhaseIssues:        record.HasPhaseIssues,
		HasStereoIssues:       record.HasStereoIssues,
		HasFrequencyImbalance: record.HasFrequencyImbalance,
		HasDynamicRangeIssues: record.HasDynamicRangeIssues,
		Recommendations:       record.Recommendations,
		Insight:               record.Insight,
		ReadyForMastering:     record.ReadyForMastering,
	}
}

func fromSidecar(stored *sidecarRecord) *AnalysisRecord {
	return &AnalysisRecord{
		ID:                    stored.ID,
		AnalyzedAt:            time.Unix(stored.AnalyzedAt, 0).UTC(),
		SchemaVersion:         stored.SchemaVersion,
		OverallScore:          stored.OverallScore,
		StereoWidth:           stored.StereoWidth,
		PhaseCoherence:        stored.PhaseCoherence,
		LeftRightBalance:      stored.LeftRightBalance,
		MidSideRatio:          stored.MidSideRatio,
		SpectralCentroid:      stored.SpectralCentroid,
		Bands:                 stored.Bands,
		DynamicRange:          stored.DynamicRange,
		Loudness:              stored.Loudness,
		PeakLevel:             stored.PeakLevel,
		Clipping:              stored.Clipping,
		HasPhaseIssues:        stored.HasPhaseIssues,
		HasStereoIssues:       stored.HasStereoIssues,
		HasFrequencyImbalance: stored.HasFrequencyImbalance,
		HasDynamicRangeIssues: stored.HasDynamicRangeIssues,
		Recommendations:       stored.Recommendations,
		Insight:               stored.Insight,
		ReadyForMastering:     stored.ReadyForMastering,
	}
}

// SidecarStore persists one AnalysisRecord per audio file as a
// "<audioFileName>.analysis.json" sidecar inside its directory. Writes are
// atomic (temp file plus rename), so a reader never observes a partial file.
type SidecarStore struct {
	dir    string
	logger logging.Logger
}

// NewSidecarStore creates a store rooted at the given directory.
func NewSidecarStore(dir string) *SidecarStore {
	return &SidecarStore{
		dir: dir,
		logger: logging.WithFields(logging.Fields{
			"component": "sidecar_store",
			"dir":       dir,
		}),
	}
}

// Path returns the sidecar location for an audio file name.
func (s *SidecarStore) Path(key string) string {
	return filepath.Join(s.dir, key+SidecarSuffix)
}

// Save serializes the record and atomically replaces the sidecar for key.
// An existing sidecar is overwritten.
func (s *SidecarStore) Save(record *AnalysisRecord, key string) error {
	data, err := json.MarshalIndent(toSidecar(record), "", "  ")
	if err != nil {
		return wrapError(ErrSerializationFailed, err, "cannot encode record %s", record.ID)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return wrapError(ErrWriteFailed, err, "cannot create temp sidecar for %q", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrapError(ErrWriteFailed, err, "cannot write sidecar for %q", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return wrapError(ErrWriteFailed, err, "cannot close sidecar for %q", key)
	}

	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return wrapError(ErrWriteFailed, err, "cannot replace sidecar for %q", key)
	}

	s.logger.Debug("sidecar saved", logging.Fields{
		"key":       key,
		"record_id": record.ID,
	})

	return nil
}

// Load returns the record previously saved for key, or (nil, nil) when no
// sidecar exists. A malformed or unreadable sidecar is also treated as
// absent — it is logged here and the caller's safe fallback is to re-run the
// analysis — so Load only errors on programmer mistakes, never on disk state.
func (s *SidecarStore) Load(key string) (*AnalysisRecord, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.logger.Warn("sidecar unreadable, treating as absent", logging.Fields{
			"key":   key,
			"error": fmt.Sprintf("%v", err),
		})
		return nil, nil
	}

	var stored sidecarRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("sidecar malformed, treating as absent", logging.Fields{
			"key":   key,
			"error": fmt.Sprintf("%v", err),
		})
		return nil, nil
	}

	return fromSidecar(&stored), nil
}

// Delete removes the sidecar for key. Deleting a key that has no sidecar is
// a no-op, not an error.
func (s *SidecarStore) Delete(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return wrapError(ErrWriteFailed, err, "cannot delete sidecar for %q", key)
	}
	return nil
}
