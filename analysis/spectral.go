package analysis

import (
	"github.com/mixdoctor/mixdoctor/algorithms/spectral"
	"github.com/mixdoctor/mixdoctor/algorithms/windowing"
	"github.com/mixdoctor/mixdoctor/logging"
)

// SpectralResult holds the frequency-domain measurements.
type SpectralResult struct {
	Centroid float64     `json:"centroid"` // Hz
	Bands    BandBalance `json:"bands"`
}

// SpectralAnalyzer computes the averaged magnitude spectrum of the mid signal
// and derives the spectral centroid and the five-band energy balance from it.
// Analyzing the mid signal rather than one channel keeps the result
// symmetric for stereo material and identical for mono.
type SpectralAnalyzer struct {
	spectrum *spectral.Spectrum
	logger   logging.Logger
}

// NewSpectralAnalyzer creates a spectral analyzer for the configured window
// and hop size. Fails with ErrTransformSetupFailed when the transform cannot
// be initialized for that window size.
func NewSpectralAnalyzer(cfg *Config) (*SpectralAnalyzer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var window *windowing.Hann
	if cfg.WindowSize > 0 {
		window = windowing.NewHann(cfg.WindowSize, false)
	}

	spectrum, err := spectral.NewSpectrum(cfg.WindowSize, cfg.HopSize, window)
	if err != nil {
		return nil, wrapError(ErrTransformSetupFailed, err,
			"cannot initialize transform for window size %d", cfg.WindowSize)
	}

	return &SpectralAnalyzer{
		spectrum: spectrum,
		logger: logging.WithFields(logging.Fields{
			"component": "spectral_analyzer",
		}),
	}, nil
}

// Analyze computes the spectral measurements over the mid signal. A buffer
// shorter than one window is zero-padded to a single frame; an empty buffer
// reports a zero centroid and zeroed band energies.
func (s *SpectralAnalyzer) Analyze(ms *MidSideAudio, sampleRate float64) (*SpectralResult, error) {
	result, err := s.spectrum.ComputeAverage(ms.Mid, sampleRate)
	if err != nil {
		return nil, wrapError(ErrTransformSetupFailed, err, "spectrum computation failed")
	}

	fractions := spectral.BandEnergyFractions(result, spectral.MixBands)

	spectralResult := &SpectralResult{
		Centroid: spectral.Centroid(result),
		Bands: BandBalance{
			Low:     fractions[0],
			LowMid:  fractions[1],
			Mid:     fractions[2],
			HighMid: fractions[3],
			High:    fractions[4],
		},
	}

	s.logger.Debug("spectral analysis complete", logging.Fields{
		"frames":   result.Frames,
		"centroid": spectralResult.Centroid,
	})

	return spectralResult, nil
}
