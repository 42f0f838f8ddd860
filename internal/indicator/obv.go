package indicator

import "errors"

// OBV computes On-Balance Volume. The series starts at 0 on the first
// bar and accumulates +volume on up-closes and -volume on down-closes
// thereafter; an unchanged close carries the previous value forward.
// The fold is inherently sequential, so no closed form is attempted.
func OBV(closes, volumes []float64) ([]float64, error) {
	if len(closes) != len(volumes) {
		return nil, errors.New("close and volume length mismatch")
	}
	if len(closes) == 0 {
		return nil, nil
	}
	out := make([]float64, len(closes))
	out[0] = 0
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out, nil
}
