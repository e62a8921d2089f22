package model

import (
	"time"
)

// Event is a free-form activity record scoped to a tenant and optionally a
// customer. It covers both client-tracked UI events and customer activity
// pulled from the external platform (e.g. "updated_payment_method").
// Externally sourced events are deduplicated by
// (tenant, customer, event name, occurred_at).
type Event struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TenantID   uint      `json:"tenant_id" gorm:"index;not null"`
	CustomerID *uint     `json:"customer_id,omitempty" gorm:"index"`
	EventName  string    `json:"event_name" gorm:"type:varchar(255);not null"`
	Details    string    `json:"details" gorm:"type:jsonb"`
	OccurredAt time.Time `json:"occurred_at" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
