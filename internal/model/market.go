package model

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents a single daily candlestick.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is the canonical daily OHLCV series for one dataset,
// ordered by strictly increasing date with no duplicates.
type Series struct {
	DatasetID string
	Bars      []Bar
}

// Classification tells the consumer how timestamps should be encoded.
type Classification string

const (
	ClassStock  Classification = "stock"
	ClassCrypto Classification = "crypto"
)

// Dataset binds a dataset id to its fetch ticker and classification.
type Dataset struct {
	ID             string
	Ticker         string
	Classification Classification
}

// DateLayout is the on-disk date format and the sole sort/dedup key.
const DateLayout = "2006-01-02"

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s *Series) Empty() bool { return len(s.Bars) == 0 }

// LastDate returns the date of the most recent bar. The zero time is
// returned for an empty series.
func (s *Series) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

// FirstDate returns the date of the oldest bar.
func (s *Series) FirstDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// Closes extracts the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Normalize sorts bars ascending by date and drops duplicate dates.
// When two bars share a date the later-appended one wins, which is
// what the gap-fill merge relies on: remote rows are appended after
// local rows and are authoritative for re-fetched days.
func (s *Series) Normalize() {
	for i := range s.Bars {
		s.Bars[i].Date = Day(s.Bars[i].Date)
	}
	sort.SliceStable(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
	seen := make(map[time.Time]int, len(s.Bars))
	out := s.Bars[:0]
	for _, b := range s.Bars {
		if idx, ok := seen[b.Date]; ok {
			out[idx] = b
			continue
		}
		seen[b.Date] = len(out)
		out = append(out, b)
	}
	s.Bars = out
}

// Validate checks the series invariants after load or merge.
func (s *Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("%w: dataset %s", ErrEmptySeries, s.DatasetID)
	}
	for i, b := range s.Bars {
		if i > 0 && !s.Bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("series %s: dates not strictly increasing at index %d (%s >= %s)",
				s.DatasetID, i,
				s.Bars[i-1].Date.Format(DateLayout), b.Date.Format(DateLayout))
		}
		if b.Volume < 0 {
			return fmt.Errorf("series %s: negative volume at %s",
				s.DatasetID, b.Date.Format(DateLayout))
		}
	}
	return nil
}
