package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is one shopper, scoped to exactly one tenant. The same shopper
// at two different stores is two separate rows.
type Customer struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ShopifyID int64  `json:"shopify_id" gorm:"uniqueIndex:idx_customers_tenant_shopify;not null"`
	TenantID  uint   `json:"tenant_id" gorm:"uniqueIndex:idx_customers_tenant_shopify;not null"`
	Email     string `json:"email" gorm:"type:varchar(255)"`
	FirstName string `json:"first_name" gorm:"type:varchar(255)"`
	LastName  string `json:"last_name" gorm:"type:varchar(255)"`
	// TotalSpent is a derived aggregate: incremented exactly once per newly
	// created order, never on re-ingestion of an existing one.
	TotalSpent decimal.Decimal `json:"total_spent" gorm:"type:decimal(12,2);default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FullName joins first and last name for display.
func (c *Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
