package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/util"
)

// HistoryClient implements HistoryProvider against the aggregator's
// market-chart range endpoint. Used for baseline bootstrap and as the
// incremental fallback for assets without an exchange listing.
type HistoryClient struct {
	base     *httpBase
	currency string
}

// NewHistoryClient creates the alternate full-history client.
func NewHistoryClient(baseURL, currency string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *HistoryClient {
	if currency == "" {
		currency = "usd"
	}
	return &HistoryClient{
		base:     newHTTPBase("history", baseURL, timeout, l, m),
		currency: currency,
	}
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// HistoryRange returns one daily point per UTC day within [from, to],
// ascending. When the upstream returns several samples for a day the last one
// wins.
func (c *HistoryClient) HistoryRange(ctx context.Context, assetID string, from, to time.Time) ([]models.PricePoint, error) {
	var resp marketChartResponse
	path := fmt.Sprintf("/coins/%s/market_chart/range", assetID)
	err := c.base.getJSON(ctx, path, map[string][]string{
		"vs_currency": {c.currency},
		"from":        {strconv.FormatInt(from.Unix(), 10)},
		"to":          {strconv.FormatInt(to.Unix(), 10)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]float64, len(resp.Prices))
	order := make([]time.Time, 0, len(resp.Prices))
	for _, pair := range resp.Prices {
		if len(pair) < 2 || pair[1] <= 0 {
			continue
		}
		day := util.DayUTC(time.UnixMilli(int64(pair[0])))
		if _, seen := byDay[day]; !seen {
			order = append(order, day)
		}
		byDay[day] = pair[1]
	}

	points := make([]models.PricePoint, 0, len(order))
	for _, day := range order {
		points = append(points, models.PricePoint{Date: day, Price: byDay[day]})
	}
	return points, nil
}
