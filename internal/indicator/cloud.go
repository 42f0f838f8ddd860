package indicator

import "errors"

// Cloud colors match the TradingView dark theme: green for a bullish
// cloud (span A >= span B), red otherwise.
const (
	CloudBullishColor = "#089981"
	CloudBearishColor = "#f23645"
)

// CloudParams configures the Ichimoku leading-span computation.
type CloudParams struct {
	ConversionPeriod int // Tenkan-sen window
	BasePeriod       int // Kijun-sen window
	SpanBPeriod      int
	Displacement     int // forward shift of both spans
}

// DefaultCloudParams are the conventional 9/26/52 settings.
func DefaultCloudParams() CloudParams {
	return CloudParams{ConversionPeriod: 9, BasePeriod: 26, SpanBPeriod: 52, Displacement: 26}
}

// Cloud holds the Ichimoku leading spans. Values[i] aligns to input
// index Offset+i; rows where either span is undefined (insufficient
// history, including the forward shift) are excluded, so the cloud is
// shorter than the input with gaps removed rather than null-filled.
type Cloud struct {
	Offset  int
	SpanA   []float64
	SpanB   []float64
	Top     []float64
	Bottom  []float64
	Bullish []bool
}

// Len returns the number of defined cloud rows.
func (c *Cloud) Len() int { return len(c.SpanA) }

// IchimokuCloud computes the leading spans (Senkou A/B) over the high
// and low columns. Span A is the midpoint of the conversion and base
// lines, span B the long-window midpoint, both shifted forward by the
// displacement.
func IchimokuCloud(highs, lows []float64, p CloudParams) (*Cloud, error) {
	if p.ConversionPeriod <= 0 || p.BasePeriod <= 0 || p.SpanBPeriod <= 0 || p.Displacement < 0 {
		return nil, errors.New("cloud periods must be positive")
	}
	if len(highs) != len(lows) {
		return nil, errors.New("high and low length mismatch")
	}

	n := len(highs)
	conv := rollingMidpoint(highs, lows, p.ConversionPeriod)
	base := rollingMidpoint(highs, lows, p.BasePeriod)
	spanBRaw := rollingMidpoint(highs, lows, p.SpanBPeriod)

	// Span A needs the base line plus the forward shift; span B the
	// long window plus the shift. Both defined from the later of the
	// two.
	startA := p.BasePeriod - 1 + p.Displacement
	if p.ConversionPeriod > p.BasePeriod {
		startA = p.ConversionPeriod - 1 + p.Displacement
	}
	startB := p.SpanBPeriod - 1 + p.Displacement
	start := startA
	if startB > start {
		start = startB
	}

	cloud := &Cloud{Offset: start}
	for i := start; i < n; i++ {
		src := i - p.Displacement
		a := (conv[src] + base[src]) / 2
		b := spanBRaw[src]
		top, bottom := a, b
		if b > a {
			top, bottom = b, a
		}
		cloud.SpanA = append(cloud.SpanA, a)
		cloud.SpanB = append(cloud.SpanB, b)
		cloud.Top = append(cloud.Top, top)
		cloud.Bottom = append(cloud.Bottom, bottom)
		cloud.Bullish = append(cloud.Bullish, a >= b)
	}
	return cloud, nil
}

// rollingMidpoint returns (rolling max high + rolling min low)/2 per
// index; entries before window-1 are meaningless and never read.
func rollingMidpoint(highs, lows []float64, window int) []float64 {
	out := make([]float64, len(highs))
	for i := window - 1; i < len(highs); i++ {
		hi := highs[i]
		lo := lows[i]
		for j := i - window + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		out[i] = (hi + lo) / 2
	}
	return out
}
