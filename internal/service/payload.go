package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical ingestion payloads. The shopify package normalizes both the
// platform-native snake_case shape and the internal camelCase shape into
// these before anything touches the store.

// ProductPayload is one product record to ingest.
type ProductPayload struct {
	ShopifyID int64
	Title     string
	Price     decimal.Decimal
}

// CustomerPayload is one customer record to ingest.
type CustomerPayload struct {
	ShopifyID int64
	Email     string
	FirstName string
	LastName  string
}

// CustomerRef identifies the customer an order belongs to.
type CustomerRef struct {
	ShopifyID int64
}

// LineItemPayload is one product-quantity-price entry within an order.
type LineItemPayload struct {
	ProductShopifyID int64
	Quantity         int
	Price            decimal.Decimal
}

// OrderPayload is one order record to ingest. Customer is nil when the source
// record carried no customer reference; such records are skipped.
type OrderPayload struct {
	ShopifyID  int64
	TotalPrice decimal.Decimal
	PlacedAt   time.Time
	Customer   *CustomerRef
	LineItems  []LineItemPayload
}

// ActivityPayload is one externally sourced activity record. Only activities
// whose subject is a customer are ingested.
type ActivityPayload struct {
	SubjectType string
	SubjectID   int64
	Verb        string
	Message     string
	Author      string
	Description string
	OccurredAt  time.Time
}

// Report is the explicit outcome of one ingestion batch: how many records
// were persisted (or matched as already present) and how many were skipped
// as malformed or unresolvable.
type Report struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
}
