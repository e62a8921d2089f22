package repository

import "errors"

var (
	// ErrDuplicateTenant is returned when a tenant with the same admin email,
	// store URL or store domain already exists.
	ErrDuplicateTenant = errors.New("tenant already exists")

	// ErrTenantNotFound is returned when no tenant matches the lookup.
	ErrTenantNotFound = errors.New("tenant not found")
)
