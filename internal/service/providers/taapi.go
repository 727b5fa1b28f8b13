package providers

import (
	"context"
	"strconv"
	"time"

	"RiskPulse/internal/domain/repository"
	applogger "RiskPulse/pkg/logger"
)

// IndicatorClient implements IndicatorProvider. The upstream enforces one
// request per 15 seconds; callers must route every call through the shared
// minimum-interval gate, this client does not queue by itself.
type IndicatorClient struct {
	base   *httpBase
	apiKey string
}

// NewIndicatorClient creates the momentum/trend indicator client.
func NewIndicatorClient(baseURL, apiKey string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *IndicatorClient {
	return &IndicatorClient{
		base:   newHTTPBase("indicator", baseURL, timeout, l, m),
		apiKey: apiKey,
	}
}

type indicatorValueResponse struct {
	Value float64 `json:"value"`
}

// Momentum returns the RSI-style momentum scalar.
func (c *IndicatorClient) Momentum(ctx context.Context, symbol, exchange, interval string, period int) (float64, error) {
	return c.scalar(ctx, "/rsi", symbol, exchange, interval, period)
}

// TrendMean returns the trailing-mean trend scalar.
func (c *IndicatorClient) TrendMean(ctx context.Context, symbol, exchange, interval string, period int) (float64, error) {
	return c.scalar(ctx, "/sma", symbol, exchange, interval, period)
}

func (c *IndicatorClient) scalar(ctx context.Context, path, symbol, exchange, interval string, period int) (float64, error) {
	var resp indicatorValueResponse
	err := c.base.getJSON(ctx, path, map[string][]string{
		"secret":   {c.apiKey},
		"exchange": {exchange},
		"symbol":   {symbol},
		"interval": {interval},
		"period":   {strconv.Itoa(period)},
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}
