package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"CandleVault/internal/model"
)

// columnAliases maps each canonical field to the header spellings we
// accept, in priority order. The Korean names come from pykrx-style
// exports that predate the canonical schema.
var columnAliases = map[string][]string{
	"date":   {"date", "Date", "날짜"},
	"open":   {"open", "Open", "시가"},
	"high":   {"high", "High", "고가"},
	"low":    {"low", "Low", "저가"},
	"close":  {"close", "Close", "종가"},
	"volume": {"volume", "Volume", "거래량"},
}

// canonicalHeader is the schema every saved file uses.
var canonicalHeader = []string{"date", "open", "high", "low", "close", "volume"}

// acceptedDateLayouts covers dates written by older exporters that
// carried a market-open time component.
var acceptedDateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Store reads and writes one CSV file per dataset under a data
// directory. Only the gap-fill updater writes; chart reads load fresh
// copies.
type Store struct {
	DataDir string
}

// New creates a Store rooted at dataDir, creating it if needed.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{DataDir: dataDir}, nil
}

func (s *Store) path(datasetID string) string {
	return filepath.Join(s.DataDir, datasetID+".csv")
}

// Exists reports whether a backing file exists for the dataset.
func (s *Store) Exists(datasetID string) bool {
	_, err := os.Stat(s.path(datasetID))
	return err == nil
}

// Load reads and cleans the persisted series for datasetID.
// Rows with non-numeric OHLC are dropped (and counted in the log);
// missing volume becomes 0. A file with no surviving rows fails with
// model.ErrEmptySeries, a missing file with model.ErrDatasetNotFound.
func (s *Store) Load(datasetID string) (*model.Series, error) {
	f, err := os.Open(s.path(datasetID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrDatasetNotFound, datasetID)
		}
		return nil, fmt.Errorf("open series %s: %w", datasetID, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", datasetID, err)
	}
	schema, err := resolveSchema(header)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", datasetID, err)
	}

	series := &model.Series{DatasetID: datasetID}
	dropped := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read series %s: %w", datasetID, err)
		}
		bar, ok := schema.parseRow(rec)
		if !ok {
			dropped++
			continue
		}
		series.Bars = append(series.Bars, bar)
	}
	if dropped > 0 {
		log.Printf("[WARN] series %s: dropped %d invalid rows", datasetID, dropped)
	}

	series.Normalize()
	if series.Empty() {
		return nil, fmt.Errorf("%w: %s", model.ErrEmptySeries, datasetID)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

// Save persists the series atomically: the file is written to a
// temporary sibling and renamed over the target, so a crash can never
// leave a partial file behind.
func (s *Store) Save(datasetID string, series *model.Series) error {
	tmp, err := os.CreateTemp(s.DataDir, datasetID+".csv.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", datasetID, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(canonicalHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header %s: %w", datasetID, err)
	}
	for _, b := range series.Bars {
		rec := []string{
			b.Date.Format(model.DateLayout),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write row %s: %w", datasetID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", datasetID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp %s: %w", datasetID, err)
	}
	if err := os.Rename(tmpName, s.path(datasetID)); err != nil {
		return fmt.Errorf("replace series %s: %w", datasetID, err)
	}
	return nil
}

// ListIDs returns the dataset ids with a backing file, sorted by the
// directory iteration order of os.ReadDir (lexicographic).
func (s *Store) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return ids, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// schema holds resolved column indexes; -1 means the column is absent.
type schema struct {
	date, open, high, low, closeC, volume int
}

// resolveSchema matches the header against the alias lists once, so
// row parsing is plain index lookups. Date and all four OHLC columns
// are required; volume is optional.
func resolveSchema(header []string) (*schema, error) {
	find := func(field string) int {
		for _, alias := range columnAliases[field] {
			for i, h := range header {
				if strings.TrimSpace(h) == alias {
					return i
				}
			}
		}
		return -1
	}
	sc := &schema{
		date:   find("date"),
		open:   find("open"),
		high:   find("high"),
		low:    find("low"),
		closeC: find("close"),
		volume: find("volume"),
	}
	for field, idx := range map[string]int{
		"date": sc.date, "open": sc.open, "high": sc.high,
		"low": sc.low, "close": sc.closeC,
	} {
		if idx < 0 {
			return nil, fmt.Errorf("missing required column %q", field)
		}
	}
	return sc, nil
}

// parseRow converts one record to a Bar. It reports ok=false when the
// date or any OHLC value does not parse; missing volume becomes 0.
func (sc *schema) parseRow(rec []string) (model.Bar, bool) {
	at := func(idx int) string {
		if idx < 0 || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}
	date, ok := parseDate(at(sc.date))
	if !ok {
		return model.Bar{}, false
	}
	o, ok1 := parseNumber(at(sc.open))
	h, ok2 := parseNumber(at(sc.high))
	l, ok3 := parseNumber(at(sc.low))
	c, ok4 := parseNumber(at(sc.closeC))
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return model.Bar{}, false
	}
	v, okV := parseNumber(at(sc.volume))
	if !okV || v < 0 {
		v = 0
	}
	return model.Bar{Date: date, Open: o, High: h, Low: l, Close: c, Volume: v}, true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
