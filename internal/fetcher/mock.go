package fetcher

import (
	"context"
	"sync"
	"time"

	"CandleVault/internal/model"
)

// MockFetcher returns controllable fixed data for development and
// testing. It records every requested window so tests can assert what
// the updater asked for.
type MockFetcher struct {
	mu    sync.Mutex
	Bars  []model.Bar
	Err   error
	Calls []Window
}

// Window is one recorded FetchRange request.
type Window struct {
	Ticker     string
	Start, End time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchRange(_ context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Window{Ticker: ticker, Start: start, End: end})
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Bar, len(m.Bars))
	copy(out, m.Bars)
	return out, nil
}

// CallCount returns how many times FetchRange was invoked.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// GenerateBars builds count consecutive daily bars ending at end,
// drifting around basePrice.
func GenerateBars(basePrice float64, count int, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Date:   model.Day(end).AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
