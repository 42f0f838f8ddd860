package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CandleVault/internal/model"
)

const binanceKlineLimit = 1000

// BinanceFetcher implements Fetcher for continuously traded pairs
// using the Binance public klines API.
type BinanceFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewBinanceFetcher creates a new Binance klines fetcher.
func NewBinanceFetcher(proxyURL string) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BinanceFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: "https://api.binance.com",
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchRange pulls daily klines between start and end inclusive,
// paging past the per-request limit as needed.
func (f *BinanceFetcher) FetchRange(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	startMs := model.Day(start).UnixMilli()
	endMs := model.Day(end).AddDate(0, 0, 1).UnixMilli() - 1

	var bars []model.Bar
	for startMs <= endMs {
		page, err := f.fetchPage(ctx, ticker, startMs, endMs)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		bars = append(bars, page...)
		if len(page) < binanceKlineLimit {
			break
		}
		startMs = page[len(page)-1].Date.AddDate(0, 0, 1).UnixMilli()
	}
	return bars, nil
}

func (f *BinanceFetcher) fetchPage(ctx context.Context, symbol string, startMs, endMs int64) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&startTime=%d&endTime=%d&limit=%d",
		f.BaseURL, url.QueryEscape(symbol), startMs, endMs, binanceKlineLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: binance: %v", model.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: binance read body: %v", model.ErrFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: binance status %d: %s", model.ErrFetchFailed, resp.StatusCode, string(body))
	}

	// Each kline is [openTime, open, high, low, close, volume, ...]
	// with the numeric fields encoded as strings.
	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: binance decode: %v", model.ErrFetchFailed, err)
	}

	bars := make([]model.Bar, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		o, ok1 := klineFloat(k[1])
		h, ok2 := klineFloat(k[2])
		l, ok3 := klineFloat(k[3])
		c, ok4 := klineFloat(k[4])
		v, _ := klineFloat(k[5])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		bars = append(bars, model.Bar{
			Date:   model.Day(time.UnixMilli(int64(openTime)).UTC()),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	return bars, nil
}

func klineFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
