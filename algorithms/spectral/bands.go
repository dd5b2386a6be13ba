package spectral

// Band is a fixed frequency band with inclusive lower and exclusive upper
// bound in Hz.
type Band struct {
	Name string  `json:"name"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// MixBands are the five fixed bands the balance analysis reports on.
// The boundaries are declared policy, not user-configurable.
var MixBands = []Band{
	{Name: "low", Low: 20, High: 250},
	{Name: "low_mid", Low: 250, High: 500},
	{Name: "mid", Low: 500, High: 2000},
	{Name: "high_mid", Low: 2000, High: 4000},
	{Name: "high", Low: 4000, High: 20000},
}

// BandEnergyFractions sums magnitude-squared energy inside each band and
// returns each band's fraction of the total across all bands. A silent
// spectrum yields all-zero fractions rather than dividing by zero.
func BandEnergyFractions(result *SpectrumResult, bands []Band) []float64 {
	fractions := make([]float64, len(bands))
	if result == nil || len(result.Magnitude) == 0 {
		return fractions
	}

	energies := make([]float64, len(bands))
	total := 0.0

	for i, mag := range result.Magnitude {
		freq := result.BinFrequency(i)
		power := mag * mag

		for b, band := range bands {
			if freq >= band.Low && freq < band.High {
				energies[b] += power
				total += power
				break
			}
		}
	}

	if total == 0 {
		return fractions
	}

	for b := range bands {
		fractions[b] = energies[b] / total
	}

	return fractions
}
