package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"CandleVault/internal/catalog"
	"CandleVault/internal/fetcher"
	"CandleVault/internal/model"
	"CandleVault/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(d time.Time, close float64) model.Bar {
	return model.Bar{Date: d, Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 100}
}

func newFixture(t *testing.T, mapping map[string]string, stock, crypto fetcher.Fetcher, today time.Time) *Updater {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cat, err := catalog.New(mapping, "")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	u := New(st, cat, fetcher.NewRouter(stock, crypto))
	u.Now = func() time.Time { return today }
	return u
}

func TestUpdateDataset_Idempotent(t *testing.T) {
	today := day(2024, 6, 10)
	mock := &fetcher.MockFetcher{Bars: fetcher.GenerateBars(100, 10, today)}
	u := newFixture(t, map[string]string{"KOSPI_SET": "KOSPI"}, mock, nil, today)

	first, err := u.UpdateDataset(context.Background(), "KOSPI_SET")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Appended) != 10 {
		t.Fatalf("first run appended %d rows, want 10", len(first.Appended))
	}

	second, err := u.UpdateDataset(context.Background(), "KOSPI_SET")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.UpToDate() {
		t.Errorf("second run must be a no-op, appended %d rows", len(second.Appended))
	}
	if mock.CallCount() != 1 {
		t.Errorf("already-current dataset must not be re-fetched: %d calls", mock.CallCount())
	}
}

func TestUpdateDataset_FetchWindowAndClamp(t *testing.T) {
	today := day(2024, 6, 10)
	// The fetcher answers with a superset reaching back before the
	// requested window; those rows must be discarded.
	var remote []model.Bar
	for d := 3; d <= 10; d++ {
		remote = append(remote, bar(day(2024, 6, d), float64(d)*10))
	}
	mock := &fetcher.MockFetcher{Bars: remote}
	u := newFixture(t, map[string]string{"KOSPI_SET": "KOSPI"}, mock, nil, today)

	local := &model.Series{DatasetID: "KOSPI_SET"}
	for d := 1; d <= 5; d++ {
		local.Bars = append(local.Bars, bar(day(2024, 6, d), float64(d)))
	}
	if err := u.Store.Save("KOSPI_SET", local); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := u.UpdateDataset(context.Background(), "KOSPI_SET")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(res.Appended) != 5 {
		t.Fatalf("appended %d rows, want 5 (06-06..06-10 after clamp)", len(res.Appended))
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(mock.Calls))
	}
	call := mock.Calls[0]
	if !call.Start.Equal(day(2024, 6, 6)) || !call.End.Equal(today) {
		t.Errorf("fetch window = [%s, %s], want [2024-06-06, 2024-06-10]",
			call.Start.Format(model.DateLayout), call.End.Format(model.DateLayout))
	}

	// Clamped-away days keep their local values.
	merged, err := u.Store.Load("KOSPI_SET")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if merged.Len() != 10 {
		t.Fatalf("merged rows = %d, want 10", merged.Len())
	}
	if merged.Bars[2].Close != 3 {
		t.Errorf("06-03 must keep the local close outside the window, got %v", merged.Bars[2].Close)
	}
	if merged.Bars[9].Close != 100 {
		t.Errorf("06-10 must carry the fetched close, got %v", merged.Bars[9].Close)
	}
}

func TestUpdateDataset_CurrentSeriesSkipsFetch(t *testing.T) {
	today := day(2024, 6, 10)
	mock := &fetcher.MockFetcher{}
	u := newFixture(t, map[string]string{"KOSPI_SET": "KOSPI"}, mock, nil, today)

	local := &model.Series{DatasetID: "KOSPI_SET", Bars: []model.Bar{bar(today, 1)}}
	if err := u.Store.Save("KOSPI_SET", local); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err := u.UpdateDataset(context.Background(), "KOSPI_SET")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !res.UpToDate() || mock.CallCount() != 0 {
		t.Errorf("current dataset must skip the fetch entirely")
	}
}

func TestUpdateDataset_UnknownDataset(t *testing.T) {
	u := newFixture(t, map[string]string{"KOSPI_SET": "KOSPI"}, &fetcher.MockFetcher{}, nil, day(2024, 6, 10))
	if _, err := u.UpdateDataset(context.Background(), "NOPE"); !errors.Is(err, model.ErrDatasetNotFound) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestUpdateDataset_OnUpdatedHook(t *testing.T) {
	today := day(2024, 6, 10)
	mock := &fetcher.MockFetcher{Bars: fetcher.GenerateBars(100, 5, today)}
	u := newFixture(t, map[string]string{"KOSPI_SET": "KOSPI"}, mock, nil, today)

	var invalidated []string
	u.OnUpdated = func(id string) { invalidated = append(invalidated, id) }

	if _, err := u.UpdateDataset(context.Background(), "KOSPI_SET"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(invalidated) != 1 || invalidated[0] != "KOSPI_SET" {
		t.Errorf("OnUpdated not fired correctly: %v", invalidated)
	}

	// A no-op run must not invalidate.
	invalidated = nil
	if _, err := u.UpdateDataset(context.Background(), "KOSPI_SET"); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(invalidated) != 0 {
		t.Errorf("no-op run must not invalidate, got %v", invalidated)
	}
}

func TestUpdateAll_IsolatesFailures(t *testing.T) {
	today := day(2024, 6, 10)
	broken := &fetcher.MockFetcher{Err: errors.New("connection reset")}
	healthy := &fetcher.MockFetcher{Bars: fetcher.GenerateBars(2000, 10, today)}
	u := newFixture(t, map[string]string{
		"KOSPI_SET":  "KOSPI",   // stock -> broken fetcher
		"ETHUSDT_2Y": "ETHUSDT", // crypto -> healthy fetcher
	}, broken, healthy, today)

	outcomes := u.UpdateAll(context.Background(), 2)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	byID := map[string]Outcome{}
	for _, o := range outcomes {
		byID[o.DatasetID] = o
	}
	if byID["KOSPI_SET"].Status != StatusFailed {
		t.Errorf("KOSPI_SET status = %s, want failed", byID["KOSPI_SET"].Status)
	}
	if !errors.Is(byID["KOSPI_SET"].Err, model.ErrFetchFailed) {
		t.Errorf("failure must wrap ErrFetchFailed, got %v", byID["KOSPI_SET"].Err)
	}
	if byID["ETHUSDT_2Y"].Status != StatusUpdated || byID["ETHUSDT_2Y"].Appended != 10 {
		t.Errorf("healthy dataset must still update: %+v", byID["ETHUSDT_2Y"])
	}
}

func TestFetchWindow_FallbackForNewDataset(t *testing.T) {
	today := day(2024, 6, 10)
	u := newFixture(t, map[string]string{"KOSPI_SET": "KOSPI"}, &fetcher.MockFetcher{}, nil, today)
	u.FallbackDays = 30

	start, end, ok := u.fetchWindow(&model.Series{DatasetID: "KOSPI_SET"})
	if !ok {
		t.Fatal("expected a window for an empty series")
	}
	if !start.Equal(day(2024, 5, 11)) || !end.Equal(today) {
		t.Errorf("window = [%s, %s], want [2024-05-11, 2024-06-10]",
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
}
