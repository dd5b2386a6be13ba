package analysis

import (
	"github.com/mixdoctor/mixdoctor/logging"
)

// DecodedBuffer is the raw output of the media decoder collaborator:
// one sample slice per channel, all the same length.
type DecodedBuffer struct {
	Channels   [][]float64 `json:"-"`
	SampleRate float64     `json:"sample_rate"`
	FrameCount int         `json:"frame_count"`
}

// ProcessedAudio is the canonical two-channel buffer every analyzer consumes.
// Left and Right always have identical length equal to FrameCount, and a mono
// source is duplicated into both channels so downstream code never branches
// on channel count. Treat as immutable once built.
type ProcessedAudio struct {
	Left       []float64
	Right      []float64
	SampleRate float64
	FrameCount int
}

// MidSideAudio is the mid/side decomposition of a ProcessedAudio:
// mid = (L+R)/2, side = (L-R)/2, so L = mid+side and R = mid-side.
type MidSideAudio struct {
	Mid  []float64
	Side []float64
}

// Loader validates a decoded buffer and produces the canonical stereo pair.
type Loader struct {
	logger logging.Logger
}

// NewLoader creates a new audio loader.
func NewLoader() *Loader {
	return &Loader{
		logger: logging.WithFields(logging.Fields{
			"component": "audio_loader",
		}),
	}
}

// Load builds a ProcessedAudio from a decoded buffer. Channel 0 becomes the
// left channel; channel 1 becomes the right when present, otherwise the left
// channel is copied so mono behaves as a centered stereo source.
func (l *Loader) Load(buf *DecodedBuffer) (*ProcessedAudio, error) {
	if buf == nil || len(buf.Channels) < 1 {
		return nil, newError(ErrInvalidChannelCount, "decoded buffer has no channels")
	}

	frameCount := buf.FrameCount
	if frameCount < 0 || frameCount > len(buf.Channels[0]) {
		return nil, newError(ErrBufferAllocationFailed,
			"cannot size stereo buffer to %d frames from %d decoded samples",
			frameCount, len(buf.Channels[0]))
	}

	left := make([]float64, frameCount)
	copy(left, buf.Channels[0][:frameCount])

	right := make([]float64, frameCount)
	if len(buf.Channels) > 1 {
		if len(buf.Channels[1]) < frameCount {
			return nil, newError(ErrBufferAllocationFailed,
				"right channel has %d samples, need %d",
				len(buf.Channels[1]), frameCount)
		}
		copy(right, buf.Channels[1][:frameCount])
	} else {
		copy(right, left)
	}

	l.logger.Debug("audio loaded", logging.Fields{
		"channels":    len(buf.Channels),
		"frame_count": frameCount,
		"sample_rate": buf.SampleRate,
	})

	return &ProcessedAudio{
		Left:       left,
		Right:      right,
		SampleRate: buf.SampleRate,
		FrameCount: frameCount,
	}, nil
}

// Decompose derives the mid/side signals from a left/right pair.
// The inputs must be the same length; mismatched buffers fail loudly instead
// of being silently truncated.
func Decompose(left, right []float64) (*MidSideAudio, error) {
	if len(left) != len(right) {
		return nil, newError(ErrChannelLengthMismatch,
			"left has %d samples, right has %d", len(left), len(right))
	}

	mid := make([]float64, len(left))
	side := make([]float64, len(left))

	for i := range left {
		mid[i] = (left[i] + right[i]) / 2.0
		side[i] = (left[i] - right[i]) / 2.0
	}

	return &MidSideAudio{Mid: mid, Side: side}, nil
}
