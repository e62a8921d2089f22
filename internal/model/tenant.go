package model

import (
	"time"
)

// Tenant represents one store operator using the dashboard.
// Every other row in the system is partitioned by tenant ID.
type Tenant struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"type:varchar(255);not null"`
	StoreURL    string  `json:"store_url" gorm:"type:varchar(255);uniqueIndex;not null"`
	StoreDomain *string `json:"store_domain,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	AccessToken *string `json:"-" gorm:"type:varchar(255)"`
	AdminEmail  string  `json:"admin_email" gorm:"type:varchar(255);uniqueIndex;not null"`
	// AdminPasswordHash is bcrypt-hashed before the row is created, never stored in plain text
	AdminPasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	LogoURL           string    `json:"logo_url" gorm:"type:varchar(255)"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
