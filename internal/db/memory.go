package db

import (
	"context"
	"sync"

	"github.com/ukydev/motolog/internal/models"
)

// MemoryCollection keeps records in process memory. State is lost when the
// process exits.
type MemoryCollection struct {
	lock   sync.Mutex
	items  []models.Maintenance
	nextID int64
}

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{nextID: 1}
}

func (c *MemoryCollection) Insert(_ context.Context, rec models.Maintenance) (int64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	rec.ID = c.nextID
	c.nextID++
	c.items = append(c.items, rec)
	return rec.ID, nil
}

func (c *MemoryCollection) FindAll(_ context.Context) ([]models.Maintenance, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]models.Maintenance, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (c *MemoryCollection) FindByID(_ context.Context, id int64) (*models.Maintenance, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return nil, models.ErrNotFound
	}
	found := c.items[idx]
	return &found, nil
}

func (c *MemoryCollection) Update(_ context.Context, id int64, rec models.Maintenance) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return models.ErrNotFound
	}
	rec.ID = id
	c.items[idx] = rec
	return nil
}

func (c *MemoryCollection) Delete(_ context.Context, id int64) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return models.ErrNotFound
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return nil
}

func (c *MemoryCollection) Close() error {
	return nil
}

// indexOf must be called with the lock held.
func (c *MemoryCollection) indexOf(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}
