// Package indicator holds stateless transforms from an OHLCV series
// to derived series. Each transform trims its own warm-up window: the
// returned values start at the reported input offset, and inputs too
// short to satisfy the warm-up produce empty output rather than an
// error.
package indicator

import "errors"

// DefaultRSIPeriod is the conventional RSI look-back.
const DefaultRSIPeriod = 14

// RSI computes the Wilder-smoothed Relative Strength Index over the
// close column. values[i] corresponds to closes[offset+i]; the first
// defined value appears after `period` price changes. A window with
// no losses is full strength (RSI=100), and every value is clipped to
// [0,100].
func RSI(closes []float64, period int) (values []float64, offset int, err error) {
	if period <= 0 {
		return nil, 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return nil, 0, nil
	}

	// Seed: average gain/loss over the first `period` changes.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	values = make([]float64, 0, len(closes)-period)
	values = append(values, rsiValue(avgGain, avgLoss))

	// Wilder smoothing for the remaining bars (EMA, alpha=1/period).
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		values = append(values, rsiValue(avgGain, avgLoss))
	}
	return values, period, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}
