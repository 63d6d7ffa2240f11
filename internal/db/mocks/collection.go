// Package mocks holds testify mocks of the db interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/motolog/internal/models"
)

// MaintenanceCollection is a mock implementation of db.MaintenanceCollection
type MaintenanceCollection struct {
	mock.Mock
}

func (m *MaintenanceCollection) Insert(ctx context.Context, rec models.Maintenance) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MaintenanceCollection) FindAll(ctx context.Context) ([]models.Maintenance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Maintenance), args.Error(1)
}

func (m *MaintenanceCollection) FindByID(ctx context.Context, id int64) (*models.Maintenance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Maintenance), args.Error(1)
}

func (m *MaintenanceCollection) Update(ctx context.Context, id int64, rec models.Maintenance) error {
	args := m.Called(ctx, id, rec)
	return args.Error(0)
}

func (m *MaintenanceCollection) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MaintenanceCollection) Close() error {
	args := m.Called()
	return args.Error(0)
}
