package spectral

import (
	"fmt"
	"math/cmplx"
)

// Window is the window function contract the spectrum computation expects.
// Satisfied by the types in algorithms/windowing.
type Window interface {
	ApplyInPlace(signal []float64) error
	Size() int
}

// Spectrum computes an averaged magnitude spectrum over overlapping windowed
// frames. Averaging across frames keeps the variance of the estimate down
// compared to a single transform of the whole signal.
type Spectrum struct {
	fft        *FFT
	windowSize int
	hopSize    int
	window     Window
}

// SpectrumResult holds an aggregated magnitude spectrum.
type SpectrumResult struct {
	Magnitude      []float64 `json:"magnitude"`       // Averaged magnitude per frequency bin
	FreqBins       int       `json:"freq_bins"`       // Number of positive-frequency bins
	Frames         int       `json:"frames"`          // Number of frames averaged
	WindowSize     int       `json:"window_size"`     // Transform window size
	SampleRate     float64   `json:"sample_rate"`     // Sample rate in Hz
	FreqResolution float64   `json:"freq_resolution"` // Hz per bin
}

// BinFrequency returns the center frequency of bin i in Hz.
func (r *SpectrumResult) BinFrequency(i int) float64 {
	return float64(i) * r.FreqResolution
}

// NewSpectrum creates a spectrum calculator for the given window and hop size.
// The window's size must match windowSize.
func NewSpectrum(windowSize, hopSize int, window Window) (*Spectrum, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d", hopSize)
	}
	if window != nil && window.Size() != windowSize {
		return nil, fmt.Errorf("window size mismatch: window is %d, transform is %d", window.Size(), windowSize)
	}

	return &Spectrum{
		fft:        NewFFT(),
		windowSize: windowSize,
		hopSize:    hopSize,
		window:     window,
	}, nil
}

// ComputeAverage computes the magnitude spectrum of each overlapping frame and
// averages them. A signal shorter than one window is zero-padded to a single
// frame rather than skipped, so short buffers still produce a usable spectrum.
func (s *Spectrum) ComputeAverage(signal []float64, sampleRate float64) (*SpectrumResult, error) {
	freqBins := s.windowSize/2 + 1

	result := &SpectrumResult{
		Magnitude:      make([]float64, freqBins),
		FreqBins:       freqBins,
		WindowSize:     s.windowSize,
		SampleRate:     sampleRate,
		FreqResolution: sampleRate / float64(s.windowSize),
	}

	if len(signal) == 0 {
		return result, nil
	}

	numFrames := 0
	if len(signal) >= s.windowSize {
		numFrames = (len(signal)-s.windowSize)/s.hopSize + 1
	} else {
		numFrames = 1
	}

	frameBuffer := make([]float64, s.windowSize)

	for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
		startIdx := frameIdx * s.hopSize
		endIdx := startIdx + s.windowSize

		if endIdx > len(signal) {
			// Short final/only frame: zero-pad
			n := copy(frameBuffer, signal[startIdx:])
			for i := n; i < s.windowSize; i++ {
				frameBuffer[i] = 0
			}
		} else {
			copy(frameBuffer, signal[startIdx:endIdx])
		}

		if s.window != nil {
			if err := s.window.ApplyInPlace(frameBuffer); err != nil {
				return nil, fmt.Errorf("windowing frame %d: %w", frameIdx, err)
			}
		}

		fftResult := s.fft.Compute(frameBuffer)

		for i := 0; i < freqBins; i++ {
			result.Magnitude[i] += cmplx.Abs(fftResult[i])
		}
	}

	for i := 0; i < freqBins; i++ {
		result.Magnitude[i] /= float64(numFrames)
	}
	result.Frames = numFrames

	return result, nil
}
