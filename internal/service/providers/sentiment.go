package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	applogger "RiskPulse/pkg/logger"
)

// SentimentClient implements SentimentProvider against the fear/greed index
// API. Unrestricted.
type SentimentClient struct {
	base *httpBase
}

// NewSentimentClient creates the sentiment index client.
func NewSentimentClient(baseURL string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *SentimentClient {
	return &SentimentClient{base: newHTTPBase("sentiment", baseURL, timeout, l, m)}
}

type sentimentResponse struct {
	Data []struct {
		Value string `json:"value"`
	} `json:"data"`
}

// Index returns the latest sentiment reading (0-100).
func (c *SentimentClient) Index(ctx context.Context) (float64, error) {
	var resp sentimentResponse
	err := c.base.getJSON(ctx, "/fng/", map[string][]string{
		"limit": {"1"},
	}, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("sentiment: %w: empty response", models.ErrProviderUnavailable)
	}
	v, perr := strconv.ParseFloat(resp.Data[0].Value, 64)
	if perr != nil {
		return 0, fmt.Errorf("sentiment: %w: bad value %q", models.ErrProviderUnavailable, resp.Data[0].Value)
	}
	return v, nil
}
