package indicator

import "CandleVault/internal/model"

// AD computes the Accumulation/Distribution line: the cumulative sum
// of CLV * volume, where CLV = ((close-low)-(high-close))/(high-low).
// A bar with high == low contributes 0 regardless of volume.
func AD(bars []model.Bar) []float64 {
	if len(bars) == 0 {
		return nil
	}
	out := make([]float64, len(bars))
	sum := 0.0
	for i, b := range bars {
		rng := b.High - b.Low
		if rng != 0 {
			clv := ((b.Close - b.Low) - (b.High - b.Close)) / rng
			sum += clv * b.Volume
		}
		out[i] = sum
	}
	return out
}
