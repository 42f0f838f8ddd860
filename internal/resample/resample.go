// Package resample aggregates daily series into coarser fixed
// intervals with right-closed, right-labeled buckets: a bucket is
// stamped with the last day it covers, and a bar belongs to the
// bucket ending on or after its own date.
package resample

import (
	"fmt"
	"strings"
	"time"

	"CandleVault/internal/model"
)

// Interval is a supported chart resolution.
type Interval string

const (
	Interval1D Interval = "1d"
	Interval3D Interval = "3d"
	Interval1W Interval = "1w"
)

// Intervals lists the supported values in display order.
var Intervals = []Interval{Interval1D, Interval3D, Interval1W}

// Parse validates an interval string. Empty input defaults to 1d.
func Parse(s string) (Interval, error) {
	if s == "" {
		return Interval1D, nil
	}
	switch Interval(strings.ToLower(s)) {
	case Interval1D:
		return Interval1D, nil
	case Interval3D:
		return Interval3D, nil
	case Interval1W:
		return Interval1W, nil
	}
	return "", fmt.Errorf("%w: %q (supported: 1d, 3d, 1w)", model.ErrUnsupportedInterval, s)
}

// Resample aggregates a daily series to the given interval. The 1d
// passthrough returns the input series itself, no copy. Per bucket:
// open=first, high=max, low=min, close=last, volume=sum.
func Resample(s *model.Series, interval Interval) (*model.Series, error) {
	if interval == Interval1D {
		return s, nil
	}
	if s.Empty() {
		return nil, fmt.Errorf("%w: %s %s", model.ErrInsufficientData, s.DatasetID, interval)
	}

	out := &model.Series{DatasetID: s.DatasetID}
	var cur model.Bar
	var curLabel time.Time
	open := false

	flush := func() {
		if open {
			out.Bars = append(out.Bars, cur)
			open = false
		}
	}

	for _, b := range s.Bars {
		label := bucketEnd(b.Date, interval)
		if !open || !label.Equal(curLabel) {
			flush()
			curLabel = label
			cur = model.Bar{
				Date:   label,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			}
			open = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	flush()

	if out.Empty() {
		return nil, fmt.Errorf("%w: %s %s", model.ErrInsufficientData, s.DatasetID, interval)
	}
	return out, nil
}

// bucketEnd returns the date of the last day of the bucket containing
// day. 3-day buckets are anchored to the Unix epoch day number so
// bucketing is stable across runs; weekly buckets end on Sunday,
// matching right-labeled calendar-week resampling.
func bucketEnd(day time.Time, interval Interval) time.Time {
	switch interval {
	case Interval3D:
		n := int(day.Unix() / 86400)
		end := (n/3)*3 + 2
		return day.AddDate(0, 0, end-n)
	case Interval1W:
		offset := (7 - int(day.Weekday())) % 7 // days until Sunday
		return day.AddDate(0, 0, offset)
	default:
		return day
	}
}
