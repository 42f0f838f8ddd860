package model

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(d time.Time, close float64) Bar {
	return Bar{Date: d, Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func TestNormalize_RemoteWinsOnDuplicateDates(t *testing.T) {
	s := &Series{DatasetID: "TEST"}
	// Local rows first.
	for d := 1; d <= 5; d++ {
		s.Bars = append(s.Bars, bar(day(2024, 1, d), float64(d)))
	}
	// Remote rows appended after, overlapping 01-04..01-05 with
	// different closes and adding 01-06.
	s.Bars = append(s.Bars,
		bar(day(2024, 1, 4), 40),
		bar(day(2024, 1, 5), 50),
		bar(day(2024, 1, 6), 60),
	)
	s.Normalize()

	if s.Len() != 6 {
		t.Fatalf("expected exactly 6 dated rows, got %d", s.Len())
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("normalized series must validate: %v", err)
	}
	if s.Bars[3].Close != 40 {
		t.Errorf("01-04 must keep the remote value: got close=%v, want 40", s.Bars[3].Close)
	}
	if s.Bars[5].Close != 60 || !s.Bars[5].Date.Equal(day(2024, 1, 6)) {
		t.Errorf("last row mismatch: %+v", s.Bars[5])
	}
}

func TestNormalize_SortsUnorderedInput(t *testing.T) {
	s := &Series{DatasetID: "TEST", Bars: []Bar{
		bar(day(2024, 1, 3), 3),
		bar(day(2024, 1, 1), 1),
		bar(day(2024, 1, 2), 2),
	}}
	s.Normalize()
	for i, want := range []int{1, 2, 3} {
		if !s.Bars[i].Date.Equal(day(2024, 1, want)) {
			t.Errorf("position %d: got %s", i, s.Bars[i].Date.Format(DateLayout))
		}
	}
}

func TestValidate_EmptySeries(t *testing.T) {
	s := &Series{DatasetID: "TEST"}
	if err := s.Validate(); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestValidate_RejectsDuplicates(t *testing.T) {
	s := &Series{DatasetID: "TEST", Bars: []Bar{
		bar(day(2024, 1, 1), 1),
		bar(day(2024, 1, 1), 2),
	}}
	if err := s.Validate(); err == nil {
		t.Error("expected error for duplicate dates")
	}
}

func TestSeriesColumns(t *testing.T) {
	s := &Series{Bars: []Bar{
		{Date: day(2024, 1, 1), Close: 10, Volume: 100},
		{Date: day(2024, 1, 2), Close: 11, Volume: 200},
	}}
	closes := s.Closes()
	volumes := s.Volumes()
	if closes[1] != 11 || volumes[1] != 200 {
		t.Errorf("column extraction mismatch: %v %v", closes, volumes)
	}
	if !s.FirstDate().Equal(day(2024, 1, 1)) || !s.LastDate().Equal(day(2024, 1, 2)) {
		t.Errorf("date range mismatch: %v %v", s.FirstDate(), s.LastDate())
	}
}
