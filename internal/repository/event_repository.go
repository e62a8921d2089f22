package repository

import (
	"context"
	"errors"
	"time"

	"insights-service/internal/model"

	"gorm.io/gorm"
)

// EventRepository provides tenant-scoped access to activity events.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventCountRow is one group-by bucket of the events summary.
type EventCountRow struct {
	EventName string
	Count     int64
}

// Create persists a client-tracked event.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindOrCreate records an externally sourced customer event, deduplicated by
// (tenant, customer, event name, occurred_at) so re-ingesting the same
// activity feed is idempotent.
func (r *EventRepository) FindOrCreate(ctx context.Context, event *model.Event) (bool, error) {
	var existing model.Event
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND event_name = ? AND occurred_at = ?",
			event.TenantID, event.CustomerID, event.EventName, event.OccurredAt).
		First(&existing).Error
	if err == nil {
		*event = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return false, err
	}
	return true, nil
}

// CountsByName returns the tenant's event counts grouped by event name.
func (r *EventRepository) CountsByName(ctx context.Context, tenantID uint) ([]EventCountRow, error) {
	var rows []EventCountRow
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Select("event_name, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("event_name").
		Scan(&rows).Error
	return rows, err
}

// RecentByCustomer returns the customer's most recent events, newest first.
func (r *EventRepository) RecentByCustomer(ctx context.Context, tenantID, customerID uint, limit int) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountSince returns the number of tenant events recorded at or after since.
func (r *EventRepository) CountSince(ctx context.Context, tenantID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("tenant_id = ? AND occurred_at >= ?", tenantID, since).
		Count(&count).Error
	return count, err
}
