package resample

import (
	"errors"
	"testing"
	"time"

	"CandleVault/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Interval
		wantErr bool
	}{
		{"", Interval1D, false},
		{"1d", Interval1D, false},
		{"3d", Interval3D, false},
		{"1w", Interval1W, false},
		{"1W", Interval1W, false},
		{"2d", "", true},
		{"1m", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, model.ErrUnsupportedInterval) {
				t.Errorf("Parse(%q): expected ErrUnsupportedInterval, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Parse(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestResample_DailyPassthroughSameObject(t *testing.T) {
	s := &model.Series{DatasetID: "x", Bars: []model.Bar{
		{Date: day(2024, 1, 1), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
	}}
	out, err := Resample(s, Interval1D)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != s {
		t.Error("1d passthrough must return the input series unmodified")
	}
}

func TestResample_ThreeDayAggregation(t *testing.T) {
	// 2023-12-31 starts an epoch-anchored 3-day bucket, so all three
	// bars land in the bucket labeled 2024-01-02.
	s := &model.Series{DatasetID: "x", Bars: []model.Bar{
		{Date: day(2023, 12, 31), Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Date: day(2024, 1, 1), Open: 11, High: 13, Low: 10, Close: 12, Volume: 200},
		{Date: day(2024, 1, 2), Open: 12, High: 11, Low: 8, Close: 9, Volume: 300},
	}}
	out, err := Resample(s, Interval3D)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected 1 bucket, got %d", out.Len())
	}
	b := out.Bars[0]
	if !b.Date.Equal(day(2024, 1, 2)) {
		t.Errorf("bucket label = %s, want 2024-01-02 (right-labeled)", b.Date.Format(model.DateLayout))
	}
	if b.Open != 10 || b.High != 13 || b.Low != 8 || b.Close != 9 || b.Volume != 600 {
		t.Errorf("got O=%v H=%v L=%v C=%v V=%v, want O=10 H=13 L=8 C=9 V=600",
			b.Open, b.High, b.Low, b.Close, b.Volume)
	}
}

func TestResample_WeeklyBuckets(t *testing.T) {
	// Mon 2024-01-01 .. Fri 2024-01-05 plus Mon 2024-01-08: two weeks,
	// labeled on their Sundays.
	var bars []model.Bar
	for d := 1; d <= 5; d++ {
		bars = append(bars, model.Bar{Date: day(2024, 1, d), Open: 1, High: 2, Low: 1, Close: 1, Volume: 1})
	}
	bars = append(bars, model.Bar{Date: day(2024, 1, 8), Open: 1, High: 2, Low: 1, Close: 1, Volume: 1})
	s := &model.Series{DatasetID: "x", Bars: bars}

	out, err := Resample(s, Interval1W)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", out.Len())
	}
	if !out.Bars[0].Date.Equal(day(2024, 1, 7)) {
		t.Errorf("first bucket label = %s, want 2024-01-07", out.Bars[0].Date.Format(model.DateLayout))
	}
	if !out.Bars[1].Date.Equal(day(2024, 1, 14)) {
		t.Errorf("second bucket label = %s, want 2024-01-14", out.Bars[1].Date.Format(model.DateLayout))
	}
	if out.Bars[0].Volume != 5 {
		t.Errorf("first bucket volume = %v, want 5", out.Bars[0].Volume)
	}
}

func TestResample_SundayStaysInItsWeek(t *testing.T) {
	// A Sunday bar is the last day of its own bucket.
	s := &model.Series{DatasetID: "x", Bars: []model.Bar{
		{Date: day(2024, 1, 7), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}}
	out, err := Resample(s, Interval1W)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Bars[0].Date.Equal(day(2024, 1, 7)) {
		t.Errorf("bucket label = %s, want 2024-01-07", out.Bars[0].Date.Format(model.DateLayout))
	}
}

func TestResample_EmptyInput(t *testing.T) {
	s := &model.Series{DatasetID: "x"}
	if _, err := Resample(s, Interval3D); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
