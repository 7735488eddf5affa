// Package store holds the storage contracts shared by persistence adapters.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by adapters when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Adapter is the minimal lifecycle and health contract for storage adapters.
type Adapter interface {
	HealthCheck(ctx context.Context) error
	Close() error
}
