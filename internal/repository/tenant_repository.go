package repository

import (
	"context"
	"errors"

	"insights-service/internal/model"

	"gorm.io/gorm"
)

// TenantRepository provides access to tenant records.
type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create persists a new tenant. A unique-constraint violation on admin email,
// store URL or store domain is surfaced as ErrDuplicateTenant.
func (r *TenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTenant
		}
		return err
	}
	return nil
}

// FindByAdminEmail looks up a tenant by its admin login email.
func (r *TenantRepository) FindByAdminEmail(ctx context.Context, email string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).Where("admin_email = ?", email).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByID looks up a tenant by primary key.
func (r *TenantRepository) FindByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).First(&tenant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// ListAll returns every registered tenant. Used by the sync scheduler.
func (r *TenantRepository) ListAll(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := r.db.WithContext(ctx).Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}
