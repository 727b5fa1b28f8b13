package providers

import (
	"context"
	"fmt"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	xhttp "RiskPulse/pkg/http"
	applogger "RiskPulse/pkg/logger"

	"github.com/sony/gobreaker"
)

// httpBase is the shared foundation for provider clients: an outbound HTTP
// client with retries and per-call timeout, a circuit breaker per provider,
// and request metrics. A provider whose breaker is open fails fast so its
// factor degrades to unavailable instead of stalling the pipeline.
type httpBase struct {
	name    string
	baseURL string
	client  *xhttp.Client
	breaker *gobreaker.CircuitBreaker
	logger  *applogger.Logger
	metrics repository.Metrics
}

func newHTTPBase(name, baseURL string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *httpBase {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &httpBase{
		name:    name,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  l,
		metrics: m,
	}
}

// getJSON performs a GET through the breaker and decodes JSON into dest.
// Failures are logged here and wrapped as ErrProviderUnavailable; callers at
// the fetch boundary turn them into missing factors, never hard faults.
func (b *httpBase) getJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         b.baseURL + path,
			QueryParams: query,
		}, dest)
	})
	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordProviderRequest(b.name, "error")
		}
		if b.logger != nil {
			b.logger.Warn("provider request failed",
				applogger.String("provider", b.name),
				applogger.String("path", path),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("%s: %w: %v", b.name, models.ErrProviderUnavailable, err)
	}
	if b.metrics != nil {
		b.metrics.RecordProviderRequest(b.name, "ok")
	}
	return nil
}
