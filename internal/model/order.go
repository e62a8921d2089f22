package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a completed transaction scoped to a tenant and linked to one
// customer. PlacedAt is the timestamp the external platform assigned to the
// order; CreatedAt is when this system first saw it. Orders are immutable
// after creation, so no UpdatedAt is tracked.
type Order struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ShopifyID  int64           `json:"shopify_id" gorm:"uniqueIndex:idx_orders_tenant_shopify;not null"`
	TenantID   uint            `json:"tenant_id" gorm:"uniqueIndex:idx_orders_tenant_shopify;not null"`
	CustomerID uint            `json:"customer_id" gorm:"index;not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	PlacedAt   time.Time       `json:"placed_at" gorm:"index;not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderItem links an order to a product with the quantity and unit price at
// the time of sale. Rows are created only when the owning order is first
// created and never mutated afterward.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"uniqueIndex:idx_order_items_order_product;not null"`
	ProductID uint            `json:"product_id" gorm:"uniqueIndex:idx_order_items_order_product;not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
}
