package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"slydes/viewer/internal/config"
	"slydes/viewer/internal/domain"
)

const defaultBreakerDelay = 5 * time.Minute

// IngestionClient posts analytics batches to the ingestion endpoint
type IngestionClient interface {
	Send(ctx context.Context, batch domain.AnalyticsBatch) error
}

type ingestionClient struct {
	rl         ratelimit.Limiter
	endpoint   string
	httpClient *resty.Client

	// Circuit breaker for a throttling endpoint
	circuitBreakerMutex sync.RWMutex
	throttledUntil      time.Time
	circuitBreakerDelay time.Duration
}

func NewIngestionClient(cfg config.AnalyticsConfig) IngestionClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &ingestionClient{
		rl:                  ratelimit.New(cfg.MaxRequestsPerSecond),
		endpoint:            cfg.Endpoint,
		httpClient:          client,
		circuitBreakerDelay: defaultBreakerDelay,
	}
}

// Send delivers one batch. Failures are returned, never retried.
func (c *ingestionClient) Send(ctx context.Context, batch domain.AnalyticsBatch) error {
	if c.isCircuitBreakerOpen() {
		return fmt.Errorf("ingestion throttled for %v more", c.remainingCircuitBreakerTime().Round(time.Second))
	}

	// Take can wait out a burst; a caller that gave up meanwhile is not sent
	c.rl.Take()
	if ctx.Err() != nil {
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}

	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(batch)
	if batch.KeepAlive {
		req.SetHeader("Connection", "keep-alive")
	}

	resp, err := req.Post(c.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to post analytics batch: %w", err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		c.triggerCircuitBreaker()
		return fmt.Errorf("ingestion endpoint throttled: %s", resp.Status())
	}

	if resp.IsError() {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	log.Debugf("Delivered %d analytics event(s) for %s", len(batch.Events), batch.OrganizationSlug)
	return nil
}

func (c *ingestionClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.throttledUntil)
	wasTriggered := !c.throttledUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		// Double-check after acquiring write lock
		if !c.throttledUntil.IsZero() && now.After(c.throttledUntil) {
			c.throttledUntil = time.Time{}
			log.Infof("✅ Analytics delivery re-enabled")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *ingestionClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.throttledUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Analytics endpoint throttled, dropping events until %v",
		c.throttledUntil.Format("15:04:05"))
}

func (c *ingestionClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.throttledUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}
