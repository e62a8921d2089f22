package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item scoped to a tenant.
type Product struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	ShopifyID int64           `json:"shopify_id" gorm:"uniqueIndex:idx_products_tenant_shopify;not null"`
	TenantID  uint            `json:"tenant_id" gorm:"uniqueIndex:idx_products_tenant_shopify;not null"`
	Title     string          `json:"title" gorm:"type:varchar(255);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
