package analysis

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/mixdoctor/mixdoctor/logging"
)

// Decoder is the media-decoding collaborator: it turns an audio file into
// per-channel sample buffers. transcode.FFmpegDecoder is the concrete
// implementation shipped with this module.
type Decoder interface {
	Decode(ctx context.Context, path string) (*DecodedBuffer, error)
}

// LocationProvider resolves where audio files (and therefore their sidecars)
// live. It is an external collaborator; the pipeline never guesses paths.
type LocationProvider interface {
	AudioDir() (string, error)
}

// InsightProvider turns a completed measurement set into natural-language
// commentary. It only populates the AI fields of a record and never computes
// or overrides the technical measurements.
type InsightProvider interface {
	GenerateInsight(ctx context.Context, m *Measurements) (*AIInsight, error)
}

// Pipeline wires the full analysis flow: decode, load, decompose, run the
// three analyzers in parallel, aggregate, optionally enrich, persist.
type Pipeline struct {
	loader     *Loader
	spectral   *SpectralAnalyzer
	stereo     *StereoAnalyzer
	dynamics   *DynamicsAnalyzer
	aggregator *Aggregator

	decoder Decoder
	store   *SidecarStore
	insight InsightProvider // nil disables enrichment

	logger logging.Logger
}

// NewPipeline builds a pipeline from its collaborators. insight may be nil;
// records are then persisted without AI enrichment.
func NewPipeline(cfg *Config, decoder Decoder, store *SidecarStore, insight InsightProvider) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	spectralAnalyzer, err := NewSpectralAnalyzer(cfg)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		loader:     NewLoader(),
		spectral:   spectralAnalyzer,
		stereo:     NewStereoAnalyzer(),
		dynamics:   NewDynamicsAnalyzer(cfg),
		aggregator: NewAggregator(),
		decoder:    decoder,
		store:      store,
		insight:    insight,
		logger: logging.WithFields(logging.Fields{
			"component": "analysis_pipeline",
		}),
	}, nil
}

// NewPipelineAt builds a pipeline whose sidecar store lives in the directory
// the location provider resolves, which keeps sidecars next to the audio
// files they describe.
func NewPipelineAt(cfg *Config, decoder Decoder, locations LocationProvider, insight InsightProvider) (*Pipeline, error) {
	dir, err := locations.AudioDir()
	if err != nil {
		return nil, wrapError(ErrWriteFailed, err, "cannot resolve audio directory")
	}
	return NewPipeline(cfg, decoder, NewSidecarStore(dir), insight)
}

// Analyze runs a full single-shot analysis of the audio file at path and
// persists the resulting record under the file's base name. A decode failure
// short-circuits before any analyzer runs and nothing is persisted.
func (p *Pipeline) Analyze(ctx context.Context, path string) (*AnalysisRecord, error) {
	logger := p.logger.WithFields(logging.Fields{"path": path})

	buf, err := p.decoder.Decode(ctx, path)
	if err != nil {
		logger.Error(err, "decode failed, aborting analysis")
		return nil, wrapError(ErrDecodeFailed, err, "cannot decode %q", path)
	}

	processed, err := p.loader.Load(buf)
	if err != nil {
		return nil, err
	}

	midSide, err := Decompose(processed.Left, processed.Right)
	if err != nil {
		return nil, err
	}

	measurements, err := p.measure(processed, midSide)
	if err != nil {
		return nil, err
	}

	record := p.aggregator.Aggregate(measurements)

	p.enrich(ctx, record, measurements)

	key := filepath.Base(path)
	if err := p.store.Save(record, key); err != nil {
		return nil, err
	}

	logger.Info("analysis complete", logging.Fields{
		"record_id":     record.ID,
		"overall_score": record.OverallScore,
	})

	return record, nil
}

// Result returns the cached record for the audio file at path if a sidecar
// exists, otherwise it runs a fresh analysis. Recomputation is always the
// safe fallback for an unreadable sidecar, so this never fails on cache
// state alone.
func (p *Pipeline) Result(ctx context.Context, path string) (*AnalysisRecord, error) {
	key := filepath.Base(path)

	cached, err := p.store.Load(key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		p.logger.Debug("using cached analysis", logging.Fields{
			"path":      path,
			"record_id": cached.ID,
		})
		return cached, nil
	}

	return p.Analyze(ctx, path)
}

// Invalidate removes the cached record for the audio file at path.
func (p *Pipeline) Invalidate(path string) error {
	return p.store.Delete(filepath.Base(path))
}

// measure runs the three analyzers concurrently over the shared read-only
// buffers and assembles the measurement set. The aggregator only runs after
// all three have completed.
func (p *Pipeline) measure(processed *ProcessedAudio, midSide *MidSideAudio) (*Measurements, error) {
	var (
		wg sync.WaitGroup

		spectralResult *SpectralResult
		spectralErr    error
		stereoResult   *StereoResult
		dynamicsResult *DynamicsResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		spectralResult, spectralErr = p.spectral.Analyze(midSide, processed.SampleRate)
	}()
	go func() {
		defer wg.Done()
		stereoResult = p.stereo.Analyze(processed, midSide)
	}()
	go func() {
		defer wg.Done()
		dynamicsResult = p.dynamics.Analyze(processed)
	}()
	wg.Wait()

	if spectralErr != nil {
		return nil, spectralErr
	}

	return &Measurements{
		StereoWidth:      stereoResult.Width,
		PhaseCoherence:   stereoResult.PhaseCoherence,
		LeftRightBalance: stereoResult.LeftRightBalance,
		MidSideRatio:     stereoResult.MidSideRatio,
		SpectralCentroid: spectralResult.Centroid,
		Bands:            spectralResult.Bands,
		DynamicRange:     dynamicsResult.DynamicRange,
		Loudness:         dynamicsResult.Loudness,
		PeakLevel:        dynamicsResult.PeakLevel,
		Clipping:         dynamicsResult.Clipping,
	}, nil
}

// enrich asks the insight provider for commentary. A provider failure leaves
// the AI fields unset; the technical measurements are already final and a
// missing narrative never invalidates them.
func (p *Pipeline) enrich(ctx context.Context, record *AnalysisRecord, m *Measurements) {
	if p.insight == nil {
		return
	}

	insight, err := p.insight.GenerateInsight(ctx, m)
	if err != nil {
		p.logger.Warn("insight provider failed, record stays unenriched", logging.Fields{
			"record_id": record.ID,
			"error":     err.Error(),
		})
		return
	}

	record.Insight = insight
}

// Enrich re-runs insight generation for an already-persisted record, updating
// only its AI fields and saving the result. Used when the provider was
// unavailable during the original analysis run.
func (p *Pipeline) Enrich(ctx context.Context, path string) (*AnalysisRecord, error) {
	key := filepath.Base(path)

	record, err := p.store.Load(key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return p.Analyze(ctx, path)
	}

	p.enrich(ctx, record, record.measurements())

	if err := p.store.Save(record, key); err != nil {
		return nil, err
	}

	return record, nil
}
