package analysis

// Config holds the signal-analysis parameters. The business thresholds that
// drive scoring are fixed policy and live in score.go, not here.
type Config struct {
	// WindowSize is the transform window for spectral analysis
	WindowSize int `json:"window_size"`

	// HopSize is the advance between overlapping analysis windows
	HopSize int `json:"hop_size"`

	// ClipThreshold is the near-full-scale absolute amplitude treated as clipping
	ClipThreshold float64 `json:"clip_threshold"`

	// ClipMinRun is how many consecutive samples must sit at or above
	// ClipThreshold before the clipping flag is raised
	ClipMinRun int `json:"clip_min_run"`
}

// DefaultConfig returns the standard analysis configuration: 4096-sample Hann
// windows with 50% overlap, clipping at 0.999 full scale for 3 samples.
func DefaultConfig() *Config {
	return &Config{
		WindowSize:    4096,
		HopSize:       2048,
		ClipThreshold: 0.999,
		ClipMinRun:    3,
	}
}
