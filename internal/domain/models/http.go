package models

// RiskHistoryRequest asks for the sampled regression-risk series of one asset.
// Days of 0 means the full available history.
type RiskHistoryRequest struct {
	Asset string `query:"asset" validate:"required"`
	Days  int    `query:"days" default:"0" validate:"gte=0,lte=36500"`
}

// MultiFactorRequest asks for the current composite risk of one asset.
type MultiFactorRequest struct {
	Asset   string `query:"asset" validate:"required"`
	Refresh bool   `query:"refresh"`
}

// ConfidenceRequest asks for the adaptive confidence of one asset.
type ConfidenceRequest struct {
	Asset string `query:"asset" validate:"required"`
}

// ClearCacheRequest clears cached results for one asset, or all when empty.
type ClearCacheRequest struct {
	Asset string `query:"asset"`
}

// RiskHistoryResponse wraps the sampled series.
type RiskHistoryResponse struct {
	Asset  string             `json:"asset"`
	Days   int                `json:"days"`
	Points []RiskHistoryPoint `json:"points"`
}
