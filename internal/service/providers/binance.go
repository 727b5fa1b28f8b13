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

// BinanceClient implements CandleProvider against the exchange klines API.
type BinanceClient struct {
	base *httpBase
}

// NewBinanceClient creates the candle provider client.
func NewBinanceClient(baseURL string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *BinanceClient {
	return &BinanceClient{base: newHTTPBase("binance", baseURL, timeout, l, m)}
}

// DailyCandles returns daily candles for [from, to], ascending.
func (c *BinanceClient) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	return c.klines(ctx, map[string][]string{
		"symbol":    {symbol},
		"interval":  {"1d"},
		"startTime": {strconv.FormatInt(util.DayUTC(from).UnixMilli(), 10)},
		"endTime":   {strconv.FormatInt(util.NextDay(to).UnixMilli() - 1, 10)},
		"limit":     {"1000"},
	})
}

// RecentCandles returns the last n daily candles, ascending.
func (c *BinanceClient) RecentCandles(ctx context.Context, symbol string, n int) ([]models.Candle, error) {
	return c.klines(ctx, map[string][]string{
		"symbol":   {symbol},
		"interval": {"1d"},
		"limit":    {strconv.Itoa(n)},
	})
}

func (c *BinanceClient) klines(ctx context.Context, query map[string][]string) ([]models.Candle, error) {
	// Kline rows are heterogeneous arrays: [openTime, open, high, low, close, volume, ...].
	var rows [][]interface{}
	if err := c.base.getJSON(ctx, "/api/v3/klines", query, &rows); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		openMs, ok := row[0].(float64)
		if !ok {
			continue
		}
		open, err1 := parseField(row[1])
		high, err2 := parseField(row[2])
		low, err3 := parseField(row[3])
		closePx, err4 := parseField(row[4])
		volume, err5 := parseField(row[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		candles = append(candles, models.Candle{
			OpenTime: time.UnixMilli(int64(openMs)).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePx,
			Volume:   volume,
		})
	}
	return candles, nil
}

func parseField(v interface{}) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("unexpected kline field type %T", v)
	}
}

// FundingClient implements FundingProvider against the perpetual futures
// premium index endpoint.
type FundingClient struct {
	base *httpBase
}

// NewFundingClient creates the funding/positioning provider client.
func NewFundingClient(baseURL string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *FundingClient {
	return &FundingClient{base: newHTTPBase("funding", baseURL, timeout, l, m)}
}

type premiumIndexResponse struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
}

// Rate returns the last funding rate for symbol as a decimal.
func (c *FundingClient) Rate(ctx context.Context, symbol string) (float64, error) {
	var resp premiumIndexResponse
	err := c.base.getJSON(ctx, "/fapi/v1/premiumIndex", map[string][]string{
		"symbol": {symbol},
	}, &resp)
	if err != nil {
		return 0, err
	}
	rate, perr := strconv.ParseFloat(resp.LastFundingRate, 64)
	if perr != nil {
		return 0, fmt.Errorf("funding: %w: bad rate %q", models.ErrProviderUnavailable, resp.LastFundingRate)
	}
	return rate, nil
}
