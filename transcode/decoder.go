package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/mixdoctor/mixdoctor/analysis"
	"github.com/mixdoctor/mixdoctor/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout"`      // Timeout for ffmpeg operations
	MaxChannels int           `json:"max_channels"` // Channels beyond this are downmixed by ffmpeg
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",  // Assume in PATH
		FFprobePath: "ffprobe", // Assume in PATH
		Timeout:     60 * time.Second,
		MaxChannels: 2, // Analysis is stereo; surround sources are downmixed
	}
}

// audioMetadata holds detected audio properties from FFprobe
type audioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
}

// FFmpegDecoder decodes audio files to per-channel sample buffers by shelling
// out to FFmpeg. It satisfies analysis.Decoder.
type FFmpegDecoder struct {
	config *DecoderConfig
}

// NewFFmpegDecoder creates a new FFmpeg-backed decoder
func NewFFmpegDecoder(config *DecoderConfig) *FFmpegDecoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &FFmpegDecoder{config: config}
}

// Decode probes the file, decodes it to raw f64le PCM at its native sample
// rate and deinterleaves the result into one buffer per channel.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*analysis.DecodedBuffer, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "ffmpeg_decoder",
		"path":      path,
	})

	logger.Debug("starting file decode")

	metadata, err := d.probe(ctx, path)
	if err != nil {
		logger.Error(err, "probe failed")
		return nil, err
	}

	channels := metadata.Channels
	if channels < 1 {
		return nil, fmt.Errorf("ffprobe reported %d audio channels for %q", channels, path)
	}
	if d.config.MaxChannels > 0 && channels > d.config.MaxChannels {
		channels = d.config.MaxChannels
	}

	logger.Debug("audio metadata detected", logging.Fields{
		"sample_rate": metadata.SampleRate,
		"channels":    metadata.Channels,
		"codec":       metadata.Codec,
		"duration":    metadata.Duration,
	})

	decodeCtx := ctx
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		decodeCtx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-v", "error",
		"-i", path,
		"-map", "0:a:0",
		"-vn",
		"-f", "f64le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(metadata.SampleRate),
		"pipe:1",
	}

	cmd := exec.CommandContext(decodeCtx, d.config.FFmpegPath, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %q", path)
	}

	frameCount := len(samples) / channels
	buffers := deinterleave(samples, channels, frameCount)

	logger.Debug("decode complete", logging.Fields{
		"frame_count": frameCount,
		"channels":    channels,
	})

	return &analysis.DecodedBuffer{
		Channels:   buffers,
		SampleRate: float64(metadata.SampleRate),
		FrameCount: frameCount,
	}, nil
}

// probe uses ffprobe to read the first audio stream's properties.
func (d *FFmpegDecoder) probe(ctx context.Context, path string) (*audioMetadata, error) {
	probeCtx := ctx
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		path,
	}

	cmd := exec.CommandContext(probeCtx, d.config.FFprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput extracts the fields we need from ffprobe's JSON.
// ffprobe encodes numbers as strings in stream entries.
func parseFFprobeOutput(jsonData []byte) (*audioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio stream found")
	}

	stream := probe.Streams[0]

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q in ffprobe output", stream.SampleRate)
	}

	metadata := &audioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
	}

	if stream.Duration != "" {
		if duration, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
			metadata.Duration = duration
		}
	}

	return metadata, nil
}

// bytesToFloat64 reinterprets raw f64le PCM bytes as samples.
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := 0; i < sampleCount; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8:])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// deinterleave splits interleaved samples into per-channel buffers.
func deinterleave(samples []float64, channels, frameCount int) [][]float64 {
	buffers := make([][]float64, channels)
	for ch := 0; ch < channels; ch++ {
		buffers[ch] = make([]float64, frameCount)
	}

	for frame := 0; frame < frameCount; frame++ {
		base := frame * channels
		for ch := 0; ch < channels; ch++ {
			buffers[ch][frame] = samples[base+ch]
		}
	}

	return buffers
}
