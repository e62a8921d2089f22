package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"insights-service/internal/service"
	"insights-service/pkg/config"
)

// TenantConfig carries the per-tenant credentials for the Shopify Admin API.
type TenantConfig struct {
	StoreDomain string
	AccessToken string
}

// APIError is a non-2xx response from the Shopify API, wrapped with the
// entity being fetched and the upstream status.
type APIError struct {
	Entity string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API error fetching %s (%d): %s", e.Entity, e.Status, e.Body)
}

// Client fetches store data from the Shopify Admin REST API. Requests are
// bounded by the configured HTTP timeout; there is no retry.
type Client struct {
	httpClient *http.Client
	apiVersion string
}

func NewClient(cfg *config.ShopifyConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiVersion: cfg.APIVersion,
	}
}

// FetchProducts returns the store's products, normalized for ingestion.
func (c *Client) FetchProducts(ctx context.Context, tc TenantConfig) ([]service.ProductPayload, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	if err := c.get(ctx, tc, "products.json", "products", &resp); err != nil {
		return nil, err
	}

	payloads := make([]service.ProductPayload, 0, len(resp.Products))
	for _, p := range resp.Products {
		payload, err := p.Payload()
		if err != nil {
			return nil, fmt.Errorf("normalize product %d: %w", p.ID, err)
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// FetchCustomers returns the store's customers, normalized for ingestion.
func (c *Client) FetchCustomers(ctx context.Context, tc TenantConfig) ([]service.CustomerPayload, error) {
	var resp struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.get(ctx, tc, "customers.json", "customers", &resp); err != nil {
		return nil, err
	}

	payloads := make([]service.CustomerPayload, 0, len(resp.Customers))
	for _, cust := range resp.Customers {
		payloads = append(payloads, cust.Payload())
	}
	return payloads, nil
}

// FetchOrders returns the store's orders, normalized for ingestion.
func (c *Client) FetchOrders(ctx context.Context, tc TenantConfig) ([]service.OrderPayload, error) {
	var resp struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, tc, "orders.json", "orders", &resp); err != nil {
		return nil, err
	}

	payloads := make([]service.OrderPayload, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		payload, err := o.Payload()
		if err != nil {
			return nil, fmt.Errorf("normalize order %d: %w", o.ID, err)
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

func (c *Client) get(ctx context.Context, tc TenantConfig, path, entity string, out interface{}) error {
	if tc.StoreDomain == "" || tc.AccessToken == "" {
		return fmt.Errorf("missing tenant shopify configuration")
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/%s", tc.StoreDomain, c.apiVersion, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", tc.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s from shopify: %w", entity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", entity, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Entity: entity, Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", entity, err)
	}
	return nil
}
