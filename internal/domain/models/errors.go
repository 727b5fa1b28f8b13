package models

import "errors"

var (
	// ErrDataInsufficient: fewer than the minimum valid price points for a fit.
	ErrDataInsufficient = errors.New("insufficient data for regression")
	// ErrProviderUnavailable: network or decoding failure from one upstream.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrCacheCorrupt: unreadable or malformed persisted file.
	ErrCacheCorrupt = errors.New("cache entry corrupt")
	// ErrConfigMissing: no calibration entry for an asset.
	ErrConfigMissing = errors.New("no configuration for asset")
)
