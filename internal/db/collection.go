package db

import (
	"context"

	"github.com/ukydev/motolog/internal/models"
)

// MaintenanceCollection defines the interface for maintenance record storage.
// Implementations assign ids on Insert and never hand out a removed id
// again. Lookups of an unknown id return models.ErrNotFound.
type MaintenanceCollection interface {
	// Insert stores a new record and returns its id. rec.ID is ignored.
	Insert(ctx context.Context, rec models.Maintenance) (int64, error)

	// FindAll returns every record in insertion order.
	FindAll(ctx context.Context) ([]models.Maintenance, error)

	FindByID(ctx context.Context, id int64) (*models.Maintenance, error)

	// Update replaces all mutable fields of the record with the given id.
	Update(ctx context.Context, id int64, rec models.Maintenance) error

	Delete(ctx context.Context, id int64) error

	Close() error
}
