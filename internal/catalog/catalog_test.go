package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"CandleVault/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want model.Classification
	}{
		{"ETHUSDT_2Y_OHLCV_Trans", model.ClassCrypto},
		{"btcusdt_daily", model.ClassCrypto},
		{"KOSPI_OHLCV", model.ClassStock},
		{"AAPL_5Y", model.ClassStock},
		{"my_crypto_basket", model.ClassCrypto},
	}
	for _, tt := range tests {
		if got := Classify(tt.id); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNewAndResolve(t *testing.T) {
	c, err := New(map[string]string{
		"KOSPI_OHLCV": "KOSPI",
		"ETHUSDT_2Y":  "ETHUSDT",
	}, "ETHUSDT_2Y")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ds, err := c.Resolve("ETHUSDT_2Y")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ds.Ticker != "ETHUSDT" || ds.Classification != model.ClassCrypto {
		t.Errorf("unexpected dataset: %+v", ds)
	}
	if _, err := c.Resolve("UNKNOWN"); !errors.Is(err, model.ErrDatasetNotFound) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestDefaultFallsBackToFirstID(t *testing.T) {
	c, err := New(map[string]string{"B_SET": "B", "A_SET": "A"}, "MISSING")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.DefaultID() != "A_SET" {
		t.Errorf("default = %q, want first id in sort order", c.DefaultID())
	}
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != "A_SET" || ids[1] != "B_SET" {
		t.Errorf("unexpected id order: %v", ids)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset_tickers.json")
	content := `{"ETHUSDT_2Y": "ETHUSDT", "KOSPI_OHLCV": "KOSPI"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.IDs()) != 2 {
		t.Errorf("expected 2 datasets, got %d", len(c.IDs()))
	}
}

func TestEmptyCatalogFails(t *testing.T) {
	if _, err := New(nil, ""); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestLabel(t *testing.T) {
	if got := Label("ETHUSDT_2Y_OHLCV"); got != "ETHUSDT 2Y OHLCV" {
		t.Errorf("Label = %q", got)
	}
}
