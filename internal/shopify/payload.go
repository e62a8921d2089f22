package shopify

import (
	"fmt"
	"time"

	"insights-service/internal/service"

	"github.com/shopspring/decimal"
)

// Wire shapes accepted by the ingestion endpoints and returned by the Shopify
// API. Each type carries both the platform-native snake_case fields and the
// internal camelCase fields; normalization prefers the camelCase value and
// falls back to the platform-native one.

// Product is one product record on the wire.
type Product struct {
	ID        int64  `json:"id"`
	ShopifyID int64  `json:"shopifyId"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Variants  []struct {
		Price string `json:"price"`
	} `json:"variants"`
}

// Payload normalizes the product into its canonical ingestion shape.
func (p Product) Payload() (service.ProductPayload, error) {
	price := p.Price
	if price == "" && len(p.Variants) > 0 {
		price = p.Variants[0].Price
	}
	if price == "" {
		price = "0.00"
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return service.ProductPayload{}, fmt.Errorf("invalid product price %q: %w", price, err)
	}

	return service.ProductPayload{
		ShopifyID: pick64(p.ShopifyID, p.ID),
		Title:     p.Title,
		Price:     amount,
	}, nil
}

// Customer is one customer record on the wire.
type Customer struct {
	ID             int64  `json:"id"`
	ShopifyID      int64  `json:"shopifyId"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	FirstNameSnake string `json:"first_name"`
	LastName       string `json:"lastName"`
	LastNameSnake  string `json:"last_name"`
}

// Payload normalizes the customer into its canonical ingestion shape.
func (c Customer) Payload() service.CustomerPayload {
	return service.CustomerPayload{
		ShopifyID: pick64(c.ShopifyID, c.ID),
		Email:     c.Email,
		FirstName: pick(c.FirstName, c.FirstNameSnake),
		LastName:  pick(c.LastName, c.LastNameSnake),
	}
}

// LineItem is one order line item on the wire.
type LineItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Order is one order record on the wire.
type Order struct {
	ID              int64      `json:"id"`
	ShopifyID       int64      `json:"shopifyId"`
	TotalPrice      string     `json:"totalPrice"`
	TotalPriceSnake string     `json:"total_price"`
	PlacedAt        string     `json:"createdAtShopify"`
	PlacedAtSnake   string     `json:"created_at"`
	Customer        *struct {
		ID int64 `json:"id"`
	} `json:"customer"`
	LineItems      []LineItem `json:"lineItems"`
	LineItemsSnake []LineItem `json:"line_items"`
}

// Payload normalizes the order into its canonical ingestion shape. An order
// without a customer reference normalizes to a payload with a nil Customer;
// deciding what to do with it belongs to the pipeline, not the adapter.
func (o Order) Payload() (service.OrderPayload, error) {
	total, err := decimal.NewFromString(pick(o.TotalPrice, o.TotalPriceSnake))
	if err != nil {
		return service.OrderPayload{}, fmt.Errorf("invalid order total %q: %w", pick(o.TotalPrice, o.TotalPriceSnake), err)
	}

	placedAt, err := parseTime(pick(o.PlacedAt, o.PlacedAtSnake))
	if err != nil {
		return service.OrderPayload{}, fmt.Errorf("invalid order timestamp: %w", err)
	}

	payload := service.OrderPayload{
		ShopifyID:  pick64(o.ShopifyID, o.ID),
		TotalPrice: total,
		PlacedAt:   placedAt,
	}
	if o.Customer != nil && o.Customer.ID != 0 {
		payload.Customer = &service.CustomerRef{ShopifyID: o.Customer.ID}
	}

	items := o.LineItems
	if len(items) == 0 {
		items = o.LineItemsSnake
	}
	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return service.OrderPayload{}, fmt.Errorf("invalid line item price %q: %w", item.Price, err)
		}
		payload.LineItems = append(payload.LineItems, service.LineItemPayload{
			ProductShopifyID: item.ProductID,
			Quantity:         item.Quantity,
			Price:            price,
		})
	}
	return payload, nil
}

// Activity is one customer activity record from the Shopify events feed.
type Activity struct {
	SubjectType string `json:"subject_type"`
	SubjectID   int64  `json:"subject_id"`
	Verb        string `json:"verb"`
	Message     string `json:"message"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Payload normalizes the activity into its canonical ingestion shape.
func (a Activity) Payload() (service.ActivityPayload, error) {
	occurredAt, err := parseTime(a.CreatedAt)
	if err != nil {
		return service.ActivityPayload{}, fmt.Errorf("invalid activity timestamp: %w", err)
	}
	return service.ActivityPayload{
		SubjectType: a.SubjectType,
		SubjectID:   a.SubjectID,
		Verb:        a.Verb,
		Message:     a.Message,
		Author:      a.Author,
		Description: a.Description,
		OccurredAt:  occurredAt,
	}, nil
}

func pick(internal, native string) string {
	if internal != "" {
		return internal
	}
	return native
}

func pick64(internal, native int64) int64 {
	if internal != 0 {
		return internal
	}
	return native
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
