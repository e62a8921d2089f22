package repository

import (
	"context"
	"errors"
	"time"

	"insights-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository provides tenant-scoped access to orders and their line items.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// TrendPoint is one calendar-day revenue bucket.
type TrendPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductTitleRow pairs an order ID with the title of one linked product.
type ProductTitleRow struct {
	OrderID uint
	Title   string
}

// UpsertByShopifyID looks up an order by (tenant, shopify id) and creates it
// with the given defaults when absent. The created flag drives the pipeline's
// only-on-creation rule: line items and the spend increment happen exactly
// when this returns true.
func (r *OrderRepository) UpsertByShopifyID(ctx context.Context, tenantID uint, shopifyID int64, defaults model.Order) (*model.Order, bool, error) {
	var existing model.Order
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

// CreateItem links a product to an order with quantity and sale-time price.
func (r *OrderRepository) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// CountByTenant returns the number of orders for a tenant.
func (r *OrderRepository) CountByTenant(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// SumTotalByTenant returns the tenant's revenue, zero when there are no orders.
func (r *OrderRepository) SumTotalByTenant(ctx context.Context, tenantID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(SUM(total_price), 0)").
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// List returns the tenant's orders, optionally bounded by an inclusive
// placed_at range, newest first, capped at limit rows.
func (r *OrderRepository) List(ctx context.Context, tenantID uint, from, to *time.Time, limit int) ([]model.Order, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if from != nil {
		query = query.Where("placed_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("placed_at <= ?", *to)
	}

	var orders []model.Order
	err := query.Order("placed_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

// ListByTenant returns every order for a tenant.
func (r *OrderRepository) ListByTenant(ctx context.Context, tenantID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("placed_at DESC").
		Find(&orders).Error
	return orders, err
}

// ProductTitles returns the titles of the products linked to the given orders.
func (r *OrderRepository) ProductTitles(ctx context.Context, orderIDs []uint) ([]ProductTitleRow, error) {
	var rows []ProductTitleRow
	if len(orderIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.order_id AS order_id, products.title AS title").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id IN ?", orderIDs).
		Scan(&rows).Error
	return rows, err
}

// TrendSince returns per-day revenue buckets for the tenant's orders placed at
// or after since, ordered by day ascending. The day is derived from the
// external order timestamp, not the local insertion time.
func (r *OrderRepository) TrendSince(ctx context.Context, tenantID uint, since time.Time) ([]TrendPoint, error) {
	var points []TrendPoint
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("DATE(placed_at) AS date, SUM(total_price) AS revenue").
		Where("tenant_id = ? AND placed_at >= ?", tenantID, since).
		Group("DATE(placed_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// CountItemsByOrder returns the number of line items linked to an order.
func (r *OrderRepository) CountItemsByOrder(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
