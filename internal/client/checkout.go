package client

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"slydes/viewer/internal/config"
	"slydes/viewer/internal/domain"
)

// CheckoutClient hands buy_now and enquire actions to the commerce backend
type CheckoutClient interface {
	BuyNow(ctx context.Context, item domain.InventoryItem) error
	Enquire(ctx context.Context, item domain.InventoryItem) error
}

type checkoutClient struct {
	httpClient *resty.Client
}

type checkoutRequest struct {
	ItemID     string `json:"item_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Mode       string `json:"commerce_mode"`
}

func NewCheckoutClient(cfg config.CheckoutConfig) CheckoutClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("Content-Type", "application/json")

	return &checkoutClient{httpClient: client}
}

func (c *checkoutClient) BuyNow(ctx context.Context, item domain.InventoryItem) error {
	return c.post(ctx, "/buy-now", item)
}

func (c *checkoutClient) Enquire(ctx context.Context, item domain.InventoryItem) error {
	return c.post(ctx, "/enquiries", item)
}

func (c *checkoutClient) post(ctx context.Context, path string, item domain.InventoryItem) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(checkoutRequest{
			ItemID:     item.ID,
			Title:      item.Title,
			PriceCents: item.PriceCents,
			Mode:       item.CommerceMode.String(),
		}).
		Post(path)
	if err != nil {
		return fmt.Errorf("failed to reach checkout: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("checkout rejected %s: %d %s", item.ID, resp.StatusCode(), resp.Status())
	}

	log.Infof("🛒 Handed %s off to %s", item.ID, path)
	return nil
}
