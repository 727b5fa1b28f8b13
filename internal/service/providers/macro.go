package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/service/ratelimit"
	applogger "RiskPulse/pkg/logger"
)

// MacroClient implements MacroProvider: two series read from one economic
// data API under a combined soft daily quota. The pair is always fetched
// together; callers cache the result jointly.
type MacroClient struct {
	base    *httpBase
	apiKey  string
	seriesA string
	seriesB string
	budget  *ratelimit.DailyBudget
	logger  *applogger.Logger
}

// NewMacroClient creates the macro index client.
func NewMacroClient(baseURL, apiKey, seriesA, seriesB string, budget *ratelimit.DailyBudget, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *MacroClient {
	return &MacroClient{
		base:    newHTTPBase("macro", baseURL, timeout, l, m),
		apiKey:  apiKey,
		seriesA: seriesA,
		seriesB: seriesB,
		budget:  budget,
		logger:  l,
	}
}

type macroObservationsResponse struct {
	Observations []struct {
		Value string `json:"value"`
	} `json:"observations"`
}

// Indices fetches both macro readings. A missing half degrades to nil; an
// error is returned only when neither index could be read.
func (c *MacroClient) Indices(ctx context.Context) (repository.MacroIndices, error) {
	var out repository.MacroIndices

	if a, err := c.latest(ctx, c.seriesA); err == nil {
		out.A = &a
	}
	if b, err := c.latest(ctx, c.seriesB); err == nil {
		out.B = &b
	}

	if out.A == nil && out.B == nil {
		return out, fmt.Errorf("macro: %w", models.ErrProviderUnavailable)
	}
	return out, nil
}

func (c *MacroClient) latest(ctx context.Context, series string) (float64, error) {
	if !c.budget.Allow() {
		if c.logger != nil {
			c.logger.Debug("macro daily budget exhausted", applogger.String("series", series))
		}
		return 0, fmt.Errorf("macro: %w: daily budget exhausted", models.ErrProviderUnavailable)
	}

	var resp macroObservationsResponse
	err := c.base.getJSON(ctx, "/fred/series/observations", map[string][]string{
		"series_id":  {series},
		"api_key":    {c.apiKey},
		"file_type":  {"json"},
		"sort_order": {"desc"},
		"limit":      {"1"},
	}, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Observations) == 0 {
		return 0, fmt.Errorf("macro: %w: no observations for %s", models.ErrProviderUnavailable, series)
	}
	v, perr := strconv.ParseFloat(resp.Observations[0].Value, 64)
	if perr != nil {
		return 0, fmt.Errorf("macro: %w: bad value %q", models.ErrProviderUnavailable, resp.Observations[0].Value)
	}
	return v, nil
}
