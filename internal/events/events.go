// Package events announces changes to maintenance records.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	ItemCreated = "created"
	ItemUpdated = "updated"
	ItemDeleted = "deleted"
	ReportSaved = "report_saved"
)

// Event describes one change.
type Event struct {
	Type   string    `json:"type"`
	ItemID int64     `json:"item_id,omitempty"`
	Name   string    `json:"name,omitempty"`
	Path   string    `json:"path,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher delivers events to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}
