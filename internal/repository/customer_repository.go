package repository

import (
	"context"
	"errors"

	"insights-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerRepository provides tenant-scoped access to customer records.
type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// UpsertByShopifyID looks up a customer by (tenant, shopify id) and creates it
// with the given defaults when absent. Defaults are never applied to an
// existing row: re-running ingestion must not overwrite fields that may have
// been adjusted locally. A duplicate-key error from a concurrent insert is
// resolved by re-running the lookup.
func (r *CustomerRepository) UpsertByShopifyID(ctx context.Context, tenantID uint, shopifyID int64, defaults model.Customer) (*model.Customer, bool, error) {
	var existing model.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shopify_id = ?", tenantID, shopifyID).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	defaults.TenantID = tenantID
	defaults.ShopifyID = shopifyID
	if err := r.db.WithContext(ctx).Create(&defaults).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent insert; the row exists now.
			if err := r.db.WithContext(ctx).
				Where("tenant_id = ? AND shopify_id = ?", tenantID, shopifyID).
				First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &defaults, true, nil
}

// FindByShopifyID returns the tenant's customer with the given shopify id,
// or nil when no such customer exists.
func (r *CustomerRepository) FindByShopifyID(ctx context.Context, tenantID uint, shopifyID int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shopify_id = ?", tenantID, shopifyID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// IncrementTotalSpent adds amount to the customer's running spend total as a
// relative update so that concurrent increments accumulate without a
// read-modify-write race.
func (r *CustomerRepository) IncrementTotalSpent(ctx context.Context, customerID uint, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("total_spent", gorm.Expr("total_spent + ?", amount)).Error
}

// UpdateEmptyFields fills the given fields on a customer row. Callers pass
// only fields that are currently empty; populated fields are never touched.
func (r *CustomerRepository) UpdateEmptyFields(ctx context.Context, customerID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", customerID).
		Updates(fields).Error
}

// CountByTenant returns the number of customers for a tenant.
func (r *CustomerRepository) CountByTenant(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// TopBySpend returns the tenant's customers ordered by total spend descending.
func (r *CustomerRepository) TopBySpend(ctx context.Context, tenantID uint, limit int) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("total_spent DESC").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}

// ListByTenant returns all of the tenant's customers.
func (r *CustomerRepository) ListByTenant(ctx context.Context, tenantID uint) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&customers).Error
	return customers, err
}

// FindByIDs returns the tenant's customers with the given primary keys.
func (r *CustomerRepository) FindByIDs(ctx context.Context, tenantID uint, ids []uint) ([]model.Customer, error) {
	var customers []model.Customer
	if len(ids) == 0 {
		return customers, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&customers).Error
	return customers, err
}
