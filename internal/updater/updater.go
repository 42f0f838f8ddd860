// Package updater keeps persisted dataset series synchronized with
// their remote source, fetching only the trailing date window that is
// not yet covered locally.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"CandleVault/internal/catalog"
	"CandleVault/internal/fetcher"
	"CandleVault/internal/model"
	"CandleVault/internal/store"
)

const (
	// DefaultFallbackDays is how far back the first fetch reaches when
	// no local series exists yet.
	DefaultFallbackDays = 730

	// DefaultFetchTimeout bounds one remote fetch call.
	DefaultFetchTimeout = 60 * time.Second
)

// Updater brings dataset series up to "today" with at-most-once
// re-fetch of any already-covered date range. Writes are serialized
// per dataset id.
type Updater struct {
	Store        *store.Store
	Catalog      *catalog.Catalog
	Router       *fetcher.Router
	FallbackDays int
	FetchTimeout time.Duration

	// Now is injectable so the window computation is testable.
	Now func() time.Time

	// OnUpdated is called after a successful save that appended or
	// replaced rows; the chart layer hooks cache invalidation here.
	OnUpdated func(datasetID string)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Updater with defaults filled in.
func New(st *store.Store, cat *catalog.Catalog, router *fetcher.Router) *Updater {
	return &Updater{
		Store:        st,
		Catalog:      cat,
		Router:       router,
		FallbackDays: DefaultFallbackDays,
		FetchTimeout: DefaultFetchTimeout,
		Now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Result reports the outcome of one dataset update.
type Result struct {
	DatasetID string
	// Appended holds the rows newly added or replaced by this run;
	// empty means the dataset was already current.
	Appended []model.Bar
	// Rows is the series length after the update.
	Rows int
}

// UpToDate reports whether the run was a no-op.
func (r *Result) UpToDate() bool { return len(r.Appended) == 0 }

func (u *Updater) lockFor(datasetID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.locks[datasetID]
	if !ok {
		l = &sync.Mutex{}
		u.locks[datasetID] = l
	}
	return l
}

// UpdateDataset synchronizes one dataset. Running it twice in
// succession with no new remote data yields an empty delta the second
// time.
func (u *Updater) UpdateDataset(ctx context.Context, datasetID string) (*Result, error) {
	ds, err := u.Catalog.Resolve(datasetID)
	if err != nil {
		return nil, err
	}
	f, err := u.Router.For(ds.Classification)
	if err != nil {
		return nil, err
	}

	lock := u.lockFor(datasetID)
	lock.Lock()
	defer lock.Unlock()

	local := &model.Series{DatasetID: datasetID}
	if u.Store.Exists(datasetID) {
		local, err = u.Store.Load(datasetID)
		if err != nil && !errors.Is(err, model.ErrEmptySeries) {
			return nil, err
		}
		if local == nil {
			local = &model.Series{DatasetID: datasetID}
		}
	}

	start, end, ok := u.fetchWindow(local)
	if !ok {
		return &Result{DatasetID: datasetID, Rows: local.Len()}, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, u.FetchTimeout)
	defer cancel()
	remote, err := f.FetchRange(fetchCtx, ds.Ticker, start, end)
	if err != nil {
		if errors.Is(err, model.ErrFetchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", model.ErrFetchFailed, datasetID, err)
	}

	// Defensive clamp: the fetcher may return a superset of the window.
	fresh := clamp(remote, start, end)
	if len(fresh) == 0 {
		return &Result{DatasetID: datasetID, Rows: local.Len()}, nil
	}

	merged := &model.Series{DatasetID: datasetID}
	merged.Bars = append(merged.Bars, local.Bars...)
	merged.Bars = append(merged.Bars, fresh...)
	merged.Normalize()
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("merge %s: %w", datasetID, err)
	}
	if err := u.Store.Save(datasetID, merged); err != nil {
		return nil, err
	}

	if u.OnUpdated != nil {
		u.OnUpdated(datasetID)
	}
	return &Result{DatasetID: datasetID, Appended: fresh, Rows: merged.Len()}, nil
}

// fetchWindow computes the missing trailing window. ok=false means
// the dataset is already current.
func (u *Updater) fetchWindow(local *model.Series) (start, end time.Time, ok bool) {
	today := model.Day(u.Now())
	if local.Empty() {
		start = today.AddDate(0, 0, -u.FallbackDays)
	} else {
		start = local.LastDate().AddDate(0, 0, 1)
	}
	if start.After(today) {
		return time.Time{}, time.Time{}, false
	}
	return start, today, true
}

func clamp(bars []model.Bar, start, end time.Time) []model.Bar {
	var out []model.Bar
	for _, b := range bars {
		d := model.Day(b.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		b.Date = d
		if b.Volume < 0 {
			b.Volume = 0
		}
		out = append(out, b)
	}
	return out
}

// Status of one dataset within a batch run.
type Status string

const (
	StatusUpdated  Status = "updated"
	StatusUpToDate Status = "up-to-date"
	StatusFailed   Status = "failed"
)

// Outcome is the per-dataset result of a batch run.
type Outcome struct {
	DatasetID string
	Status    Status
	Appended  int
	Rows      int
	Err       error
}

// UpdateAll synchronizes every catalog dataset with a bounded worker
// pool. One dataset's failure never aborts the others; each outcome
// is reported independently, in catalog id order.
func (u *Updater) UpdateAll(ctx context.Context, workers int) []Outcome {
	ids := u.Catalog.IDs()
	if workers <= 0 {
		workers = 1
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string)
	outcomes := make([]Outcome, len(ids))
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				outcomes[index[id]] = u.updateOne(ctx, id)
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (u *Updater) updateOne(ctx context.Context, id string) Outcome {
	res, err := u.UpdateDataset(ctx, id)
	if err != nil {
		log.Printf("[ERROR] [%s] update failed: %v", id, err)
		return Outcome{DatasetID: id, Status: StatusFailed, Err: err}
	}
	if res.UpToDate() {
		log.Printf("[INFO] [%s] already up to date", id)
		return Outcome{DatasetID: id, Status: StatusUpToDate, Rows: res.Rows}
	}
	log.Printf("[INFO] [%s] appended %d new rows", id, len(res.Appended))
	return Outcome{DatasetID: id, Status: StatusUpdated, Appended: len(res.Appended), Rows: res.Rows}
}
