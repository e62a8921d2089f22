package repository

import (
	"context"
	"errors"

	"insights-service/internal/model"

	"gorm.io/gorm"
)

// ProductRepository provides tenant-scoped access to product records.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// UpsertByShopifyID looks up a product by (tenant, shopify id) and creates it
// with the given defaults when absent. Existing rows are returned unchanged.
func (r *ProductRepository) UpsertByShopifyID(ctx context.Context, tenantID uint, shopifyID int64, defaults model.Product) (*model.Product, bool, error) {
	var existing model.Product
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

// FindByShopifyID returns the tenant's product with the given shopify id, or
// nil when no such product exists.
func (r *ProductRepository) FindByShopifyID(ctx context.Context, tenantID uint, shopifyID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shopify_id = ?", tenantID, shopifyID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}
