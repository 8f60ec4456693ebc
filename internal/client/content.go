package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"slydes/viewer/internal/config"
	"slydes/viewer/internal/domain"
)

// ContentClient fetches published content graphs from the backend API
type ContentClient interface {
	LoadGraph(ctx context.Context, organizationSlug string) (*domain.Graph, error)
}

type contentClient struct {
	httpClient *resty.Client
}

func NewContentClient(cfg config.ContentConfig) ContentClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &contentClient{httpClient: client}
}

func (c *contentClient) LoadGraph(ctx context.Context, organizationSlug string) (*domain.Graph, error) {
	var graph domain.Graph

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&graph).
		Get("/organizations/" + url.PathEscape(organizationSlug) + "/slyde")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content for %s: %w", organizationSlug, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, organizationSlug)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	if graph.OrganizationSlug == "" {
		graph.OrganizationSlug = organizationSlug
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	log.Debugf("Loaded content for %s with %d categories", organizationSlug, len(graph.Categories))
	return &graph, nil
}
