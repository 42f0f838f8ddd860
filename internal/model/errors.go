package model

import "errors"

// Error kinds surfaced to callers. Row-level parse problems are
// recovered locally (the row is dropped and counted); everything else
// propagates wrapped around one of these sentinels.
var (
	ErrDatasetNotFound     = errors.New("dataset not found")
	ErrEmptySeries         = errors.New("series has no valid rows")
	ErrFetchFailed         = errors.New("remote fetch failed")
	ErrUnsupportedInterval = errors.New("unsupported interval")
	ErrInsufficientData    = errors.New("insufficient data for interval")
)
