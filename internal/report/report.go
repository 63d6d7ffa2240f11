// Package report renders maintenance snapshots as text and persists them.
package report

import (
	"fmt"
	"strings"

	"github.com/ukydev/motolog/internal/models"
)

const (
	title      = "Vehicle Maintenance Report"
	rule       = "-----------------------------------"
	EmptyText  = "No maintenance items recorded."
	DefaultCur = "R$"
)

// Report is a snapshot of every record with aggregate totals.
type Report struct {
	Items     []models.MaintenanceView `json:"items"`
	Count     int                      `json:"count"`
	TotalCost float64                  `json:"totalCost"`
	Text      string                   `json:"text"`
}

// Builder renders reports. The zero value uses DefaultCur.
type Builder struct {
	Currency string
}

// Build renders records in the order given.
func (b Builder) Build(records []models.Maintenance) *Report {
	r := &Report{Items: make([]models.MaintenanceView, 0, len(records))}
	for _, rec := range records {
		r.Items = append(r.Items, rec.View())
		r.TotalCost += rec.Cost
	}
	r.Count = len(r.Items)
	r.Text = b.render(r)
	return r
}

func (b Builder) currency() string {
	if b.Currency == "" {
		return DefaultCur
	}
	return b.Currency
}

func (b Builder) render(r *Report) string {
	var sb strings.Builder
	sb.WriteString(title + "\n")
	sb.WriteString(rule + "\n\n")

	if r.Count == 0 {
		sb.WriteString(EmptyText)
		return sb.String()
	}

	for _, item := range r.Items {
		sb.WriteString(FormatItem(item, b.currency()))
		sb.WriteString("\n")
	}

	sb.WriteString(rule + "\n")
	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  - Total Items: %d\n", r.Count)
	fmt.Fprintf(&sb, "  - Total Spent: %s%.2f\n", b.currency(), r.TotalCost)
	return sb.String()
}

// FormatItem renders the block for a single record.
func FormatItem(item models.MaintenanceView, currency string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Item: %s\n", item.Name)
	fmt.Fprintf(&sb, "  - Cost: %s%.2f\n", currency, item.Cost)
	fmt.Fprintf(&sb, "  - Service Date: %s\n", item.ServiceDate)
	fmt.Fprintf(&sb, "  - Service Odometer: %d\n", item.ServiceOdometer)
	fmt.Fprintf(&sb, "  - Next Service (odometer): %d\n", item.NextDueOdometer)
	fmt.Fprintf(&sb, "  - Next Service (date): %s\n", item.NextDueDate)
	return sb.String()
}
