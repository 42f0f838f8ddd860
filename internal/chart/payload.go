// Package chart composes resampled series and aligned indicator
// series into the response payloads the charting client renders.
package chart

import (
	"encoding/json"
	"fmt"
	"time"

	"CandleVault/internal/catalog"
	"CandleVault/internal/indicator"
	"CandleVault/internal/model"
	"CandleVault/internal/resample"
	"CandleVault/internal/store"
)

// Chart colors, TradingView dark theme.
const (
	UpVolumeColor   = "rgba(8, 153, 129, 0.4)"
	DownVolumeColor = "rgba(242, 54, 69, 0.4)"
)

// Time encodes a bar timestamp for the consumer: integer Unix seconds
// for continuously traded crypto pairs, a {year, month, day} triple
// for session-based markets. The client renders the two differently,
// so the distinction is preserved exactly.
type Time struct {
	Date  time.Time
	Class model.Classification
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.Class == model.ClassCrypto {
		return json.Marshal(t.Date.Unix())
	}
	return json.Marshal(map[string]int{
		"year":  t.Date.Year(),
		"month": int(t.Date.Month()),
		"day":   t.Date.Day(),
	})
}

// Candle is one OHLC point.
type Candle struct {
	Time  Time    `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Point is one single-valued point, optionally colored.
type Point struct {
	Time  Time    `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// CloudPoint is one Ichimoku cloud row.
type CloudPoint struct {
	Time   Time    `json:"time"`
	SpanA  float64 `json:"spanA"`
	SpanB  float64 `json:"spanB"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Color  string  `json:"color"`
}

// Payload is the candle-chart response for one (dataset, interval).
type Payload struct {
	Type    model.Classification `json:"type"`
	Candles []Candle             `json:"candles"`
	Volumes []Point              `json:"volumes"`
	RSI     []Point              `json:"rsi"`
	OBV     []Point              `json:"obv"`
}

// IndicatorPayload carries the A/D line and the Ichimoku cloud for
// one (dataset, interval).
type IndicatorPayload struct {
	Type  model.Classification `json:"type"`
	AD    []Point              `json:"ad"`
	Cloud []CloudPoint         `json:"cloud"`
}

// Summary describes one dataset for the dataset picker.
type Summary struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Rows    int    `json:"rows"`
	Range   string `json:"range"`
	Default bool   `json:"default"`
}

// Builder builds and memoizes chart payloads. Builds are deterministic
// and idempotent, so cached entries live until the dataset's canonical
// series advances and Invalidate is called.
type Builder struct {
	Store   *store.Store
	Catalog *catalog.Catalog
	cache   *payloadCache
}

// NewBuilder creates a Builder.
func NewBuilder(st *store.Store, cat *catalog.Catalog) *Builder {
	return &Builder{Store: st, Catalog: cat, cache: newPayloadCache()}
}

// Invalidate drops every cached payload for the dataset. The updater
// calls this after a successful sync that wrote rows.
func (b *Builder) Invalidate(datasetID string) {
	b.cache.invalidate(datasetID)
}

// Build returns the memoized candle payload for (datasetID, interval).
// An unknown interval fails with model.ErrUnsupportedInterval before
// the cache is touched.
func (b *Builder) Build(datasetID, interval string) (*Payload, error) {
	iv, err := resample.Parse(interval)
	if err != nil {
		return nil, err
	}
	ds, err := b.Catalog.Resolve(datasetID)
	if err != nil {
		return nil, err
	}
	v, err := b.cache.getOrCompute(ds.ID, cacheKey(ds.ID, string(iv), "candles"), func() (any, error) {
		return b.buildPayload(ds, iv)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Payload), nil
}

// BuildIndicators returns the memoized A/D + Ichimoku payload for
// (datasetID, interval).
func (b *Builder) BuildIndicators(datasetID, interval string) (*IndicatorPayload, error) {
	iv, err := resample.Parse(interval)
	if err != nil {
		return nil, err
	}
	ds, err := b.Catalog.Resolve(datasetID)
	if err != nil {
		return nil, err
	}
	v, err := b.cache.getOrCompute(ds.ID, cacheKey(ds.ID, string(iv), "indicators"), func() (any, error) {
		return b.buildIndicators(ds, iv)
	})
	if err != nil {
		return nil, err
	}
	return v.(*IndicatorPayload), nil
}

func (b *Builder) resampled(ds model.Dataset, iv resample.Interval) (*model.Series, error) {
	series, err := b.Store.Load(ds.ID)
	if err != nil {
		return nil, err
	}
	return resample.Resample(series, iv)
}

func (b *Builder) buildPayload(ds model.Dataset, iv resample.Interval) (*Payload, error) {
	working, err := b.resampled(ds, iv)
	if err != nil {
		return nil, err
	}

	closes := working.Closes()
	volumes := working.Volumes()
	rsiValues, rsiOffset, err := indicator.RSI(closes, indicator.DefaultRSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi %s: %w", ds.ID, err)
	}
	obvValues, err := indicator.OBV(closes, volumes)
	if err != nil {
		return nil, fmt.Errorf("obv %s: %w", ds.ID, err)
	}

	p := &Payload{
		Type:    ds.Classification,
		Candles: make([]Candle, 0, working.Len()),
		Volumes: make([]Point, 0, working.Len()),
		RSI:     make([]Point, 0, len(rsiValues)),
		OBV:     make([]Point, 0, working.Len()),
	}
	for i, bar := range working.Bars {
		ts := Time{Date: bar.Date, Class: ds.Classification}
		p.Candles = append(p.Candles, Candle{
			Time: ts, Open: bar.Open, High: bar.High, Low: bar.Low, Close: bar.Close,
		})
		color := UpVolumeColor
		if bar.Close < bar.Open {
			color = DownVolumeColor
		}
		p.Volumes = append(p.Volumes, Point{Time: ts, Value: bar.Volume, Color: color})
		// RSI leading warm-up gap is dropped; OBV is defined from the
		// first resampled row, so its leading gap is simply absent.
		if i >= rsiOffset && i-rsiOffset < len(rsiValues) {
			p.RSI = append(p.RSI, Point{Time: ts, Value: rsiValues[i-rsiOffset]})
		}
		p.OBV = append(p.OBV, Point{Time: ts, Value: obvValues[i]})
	}
	return p, nil
}

func (b *Builder) buildIndicators(ds model.Dataset, iv resample.Interval) (*IndicatorPayload, error) {
	working, err := b.resampled(ds, iv)
	if err != nil {
		return nil, err
	}

	adValues := indicator.AD(working.Bars)
	highs := make([]float64, working.Len())
	lows := make([]float64, working.Len())
	for i, bar := range working.Bars {
		highs[i] = bar.High
		lows[i] = bar.Low
	}
	cloud, err := indicator.IchimokuCloud(highs, lows, indicator.DefaultCloudParams())
	if err != nil {
		return nil, fmt.Errorf("ichimoku %s: %w", ds.ID, err)
	}

	p := &IndicatorPayload{Type: ds.Classification}
	for i, bar := range working.Bars {
		ts := Time{Date: bar.Date, Class: ds.Classification}
		p.AD = append(p.AD, Point{Time: ts, Value: adValues[i]})
		if i >= cloud.Offset && i-cloud.Offset < cloud.Len() {
			j := i - cloud.Offset
			color := cloudColor(cloud.Bullish[j])
			p.Cloud = append(p.Cloud, CloudPoint{
				Time:   ts,
				SpanA:  cloud.SpanA[j],
				SpanB:  cloud.SpanB[j],
				Top:    cloud.Top[j],
				Bottom: cloud.Bottom[j],
				Color:  color,
			})
		}
	}
	return p, nil
}

func cloudColor(bullish bool) string {
	if bullish {
		return indicator.CloudBullishColor
	}
	return indicator.CloudBearishColor
}

// ListDatasets summarizes every catalog dataset for the picker.
// Datasets whose series cannot be loaded are skipped with the error
// reported inline, so one broken file does not hide the others.
func (b *Builder) ListDatasets() []Summary {
	defaultID := b.Catalog.DefaultID()
	var out []Summary
	for _, id := range b.Catalog.IDs() {
		s := Summary{ID: id, Label: catalog.Label(id), Default: id == defaultID}
		series, err := b.Store.Load(id)
		if err != nil {
			s.Range = "unavailable"
			out = append(out, s)
			continue
		}
		s.Rows = series.Len()
		s.Range = fmt.Sprintf("%s ~ %s",
			series.FirstDate().Format(model.DateLayout),
			series.LastDate().Format(model.DateLayout))
		out = append(out, s)
	}
	return out
}
