package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"CandleVault/internal/model"
)

// cryptoKeywords classify a dataset id as continuously traded when any
// of them appears in the id. Everything else is session-based stock
// data. Classification only affects timestamp encoding downstream.
var cryptoKeywords = []string{"USDT", "USDC", "BTC", "ETH", "CRYPTO"}

// Catalog is an immutable dataset-id -> ticker lookup, loaded once at
// process start and passed by handle into the components that need it.
type Catalog struct {
	datasets  map[string]model.Dataset
	ids       []string
	defaultID string
}

// Load reads a JSON mapping of dataset id -> ticker, classifies each
// id, and freezes the result. defaultID falls back to the first id in
// sort order when it is empty or unknown.
func Load(path, defaultID string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(mapping, defaultID)
}

// New builds a catalog from an in-memory mapping.
func New(mapping map[string]string, defaultID string) (*Catalog, error) {
	if len(mapping) == 0 {
		return nil, fmt.Errorf("catalog has no datasets")
	}
	c := &Catalog{datasets: make(map[string]model.Dataset, len(mapping))}
	for id, ticker := range mapping {
		c.datasets[id] = model.Dataset{
			ID:             id,
			Ticker:         ticker,
			Classification: Classify(id),
		}
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	c.defaultID = c.ids[0]
	if _, ok := c.datasets[defaultID]; ok {
		c.defaultID = defaultID
	}
	return c, nil
}

// Classify tags a dataset id as crypto when it contains a known
// crypto keyword, otherwise stock.
func Classify(datasetID string) model.Classification {
	upper := strings.ToUpper(datasetID)
	for _, kw := range cryptoKeywords {
		if strings.Contains(upper, kw) {
			return model.ClassCrypto
		}
	}
	return model.ClassStock
}

// Resolve maps a dataset id to its dataset record.
func (c *Catalog) Resolve(datasetID string) (model.Dataset, error) {
	ds, ok := c.datasets[datasetID]
	if !ok {
		return model.Dataset{}, fmt.Errorf("%w: %s", model.ErrDatasetNotFound, datasetID)
	}
	return ds, nil
}

// IDs returns all dataset ids in sort order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// DefaultID returns the id the chart should open with.
func (c *Catalog) DefaultID() string { return c.defaultID }

// Label renders a display label for a dataset id.
func Label(datasetID string) string {
	return strings.ReplaceAll(datasetID, "_", " ")
}
