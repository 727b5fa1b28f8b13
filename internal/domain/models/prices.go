package models

import "time"

// PricePoint is one daily close in an asset's price series. Series are ordered
// ascending by date with no duplicate dates, and never contain the current,
// still-open day.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Candle is one OHLC bar from the candle provider.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// PriceSeries is a persisted slice of one asset's history: either the frozen
// baseline or the incremental extension fetched after the baseline's end.
type PriceSeries struct {
	AssetID   string       `json:"asset_id"`
	Points    []PricePoint `json:"points"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// EndDate returns the date of the last point, or the zero time when empty.
func (s *PriceSeries) EndDate() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}
