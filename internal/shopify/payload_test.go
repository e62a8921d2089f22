package shopify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductPayloadPriceFallback(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 201,
		"title": "Mug",
		"variants": [{"price": "12.50"}, {"price": "15.00"}]
	}`), &p))

	payload, err := p.Payload()
	require.NoError(t, err)
	assert.Equal(t, int64(201), payload.ShopifyID)
	assert.Equal(t, "Mug", payload.Title)
	assert.True(t, payload.Price.Equal(decimal.RequireFromString("12.50")))
}

func TestProductPayloadDefaultsPriceToZero(t *testing.T) {
	payload, err := Product{ID: 201, Title: "Mug"}.Payload()
	require.NoError(t, err)
	assert.True(t, payload.Price.IsZero())
}

func TestProductPayloadRejectsBadPrice(t *testing.T) {
	_, err := Product{ID: 201, Price: "not-a-number"}.Payload()
	assert.Error(t, err)
}

func TestCustomerPayloadPrefersInternalShape(t *testing.T) {
	var c Customer
	require.NoError(t, json.Unmarshal([]byte(`{
		"shopifyId": 501,
		"email": "jo@example.com",
		"firstName": "Jo",
		"first_name": "Ignored",
		"last_name": "Smith"
	}`), &c))

	payload := c.Payload()
	assert.Equal(t, int64(501), payload.ShopifyID)
	assert.Equal(t, "Jo", payload.FirstName)
	assert.Equal(t, "Smith", payload.LastName)
}

func TestCustomerPayloadNativeShape(t *testing.T) {
	var c Customer
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 501,
		"email": "jo@example.com",
		"first_name": "Jo",
		"last_name": "Smith"
	}`), &c))

	payload := c.Payload()
	assert.Equal(t, int64(501), payload.ShopifyID)
	assert.Equal(t, "Jo", payload.FirstName)
	assert.Equal(t, "Smith", payload.LastName)
}

func TestOrderPayloadInternalShape(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{
		"shopifyId": 1001,
		"totalPrice": "100.25",
		"createdAtShopify": "2026-08-20T10:00:00Z",
		"customer": {"id": 501},
		"lineItems": [{"product_id": 201, "quantity": 2, "price": "25.00"}]
	}`), &o))

	payload, err := o.Payload()
	require.NoError(t, err)
	assert.Equal(t, int64(1001), payload.ShopifyID)
	assert.True(t, payload.TotalPrice.Equal(decimal.RequireFromString("100.25")))
	assert.Equal(t, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC), payload.PlacedAt)
	require.NotNil(t, payload.Customer)
	assert.Equal(t, int64(501), payload.Customer.ShopifyID)
	require.Len(t, payload.LineItems, 1)
	assert.Equal(t, int64(201), payload.LineItems[0].ProductShopifyID)
	assert.Equal(t, 2, payload.LineItems[0].Quantity)
}

func TestOrderPayloadNativeShape(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 1001,
		"total_price": "50.00",
		"created_at": "2026-08-20 10:00:00",
		"customer": {"id": 501},
		"line_items": [{"product_id": 201, "quantity": 1, "price": "50.00"}]
	}`), &o))

	payload, err := o.Payload()
	require.NoError(t, err)
	assert.Equal(t, int64(1001), payload.ShopifyID)
	assert.True(t, payload.TotalPrice.Equal(decimal.RequireFromString("50.00")))
	require.Len(t, payload.LineItems, 1)
}

func TestOrderPayloadWithoutCustomer(t *testing.T) {
	payload, err := Order{
		ID:              1001,
		TotalPriceSnake: "50.00",
		PlacedAtSnake:   "2026-08-20",
	}.Payload()
	require.NoError(t, err)
	assert.Nil(t, payload.Customer)
}

func TestOrderPayloadRejectsBadTimestamp(t *testing.T) {
	_, err := Order{ID: 1001, TotalPrice: "50.00", PlacedAt: "yesterday"}.Payload()
	assert.Error(t, err)
}

func TestActivityPayload(t *testing.T) {
	payload, err := Activity{
		SubjectType: "Customer",
		SubjectID:   501,
		Verb:        "checkout_started",
		Message:     "started checkout",
		CreatedAt:   "2026-08-25T15:30:00Z",
	}.Payload()
	require.NoError(t, err)
	assert.Equal(t, "Customer", payload.SubjectType)
	assert.Equal(t, int64(501), payload.SubjectID)
	assert.Equal(t, "checkout_started", payload.Verb)
	assert.Equal(t, time.Date(2026, 8, 25, 15, 30, 0, 0, time.UTC), payload.OccurredAt)
}
