package spectral

// Centroid computes the magnitude-weighted mean frequency of a spectrum,
// the usual proxy for perceived brightness.
func Centroid(result *SpectrumResult) float64 {
	if result == nil || len(result.Magnitude) == 0 {
		return 0.0
	}

	numerator := 0.0
	denominator := 0.0

	for i, mag := range result.Magnitude {
		numerator += result.BinFrequency(i) * mag
		denominator += mag
	}

	// A silent spectrum has no center of mass
	if denominator == 0 {
		return 0.0
	}

	return numerator / denominator
}
