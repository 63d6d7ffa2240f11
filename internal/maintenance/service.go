// Package maintenance is the core shared by the HTTP API and the console:
// it validates input, talks to the record store, derives projections and
// builds reports.
package maintenance

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motolog/internal/db"
	"github.com/ukydev/motolog/internal/events"
	"github.com/ukydev/motolog/internal/models"
	"github.com/ukydev/motolog/internal/report"
)

// Options configures a Service. Zero values fall back to an ISO date
// layout, the default report currency, no events and the wall clock.
type Options struct {
	DateLayout string
	Builder    report.Builder
	Sink       report.Sink
	Publisher  events.Publisher
	Now        func() time.Time
}

// Service implements the maintenance operations over a record store.
type Service struct {
	store      db.MaintenanceCollection
	dateLayout string
	builder    report.Builder
	sink       report.Sink
	publisher  events.Publisher
	now        func() time.Time
}

// NewService creates a new maintenance service
func NewService(store db.MaintenanceCollection, opts Options) *Service {
	s := &Service{
		store:      store,
		dateLayout: opts.DateLayout,
		builder:    opts.Builder,
		sink:       opts.Sink,
		publisher:  opts.Publisher,
		now:        opts.Now,
	}
	if s.dateLayout == "" {
		s.dateLayout = models.ISODateLayout
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// DateLayout is the layout service dates are read with.
func (s *Service) DateLayout() string {
	return s.dateLayout
}

// Create validates form and stores a new record.
func (s *Service) Create(ctx context.Context, form models.Form) (int64, error) {
	rec, err := form.Parse(s.dateLayout)
	if err != nil {
		return 0, err
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"id": id, "name": rec.Name}).Info("Maintenance item created")
	s.publish(ctx, events.Event{Type: events.ItemCreated, ItemID: id, Name: rec.Name})
	return id, nil
}

// List returns every record with its projection, in store order.
func (s *Service) List(ctx context.Context) ([]models.MaintenanceView, error) {
	recs, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.MaintenanceView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, rec.View())
	}
	return views, nil
}

// Get returns the stored record without derived fields.
func (s *Service) Get(ctx context.Context, id int64) (*models.Maintenance, error) {
	return s.store.FindByID(ctx, id)
}

// Update replaces the record with the given id. Input is validated before
// the store is consulted, so a bad form never reports ErrNotFound.
func (s *Service) Update(ctx context.Context, id int64, form models.Form) error {
	rec, err := form.Parse(s.dateLayout)
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, id, rec); err != nil {
		return err
	}
	log.WithFields(log.Fields{"id": id, "name": rec.Name}).Info("Maintenance item updated")
	s.publish(ctx, events.Event{Type: events.ItemUpdated, ItemID: id, Name: rec.Name})
	return nil
}

// Delete removes the record with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.WithField("id", id).Info("Maintenance item deleted")
	s.publish(ctx, events.Event{Type: events.ItemDeleted, ItemID: id})
	return nil
}

// Report builds a report over the current snapshot.
func (s *Service) Report(ctx context.Context) (*report.Report, error) {
	recs, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(recs), nil
}

// SaveReport builds a report and writes it through the configured sink.
// Write failures wrap models.ErrReportWrite.
func (s *Service) SaveReport(ctx context.Context) (*report.Report, string, error) {
	if s.sink == nil {
		return nil, "", fmt.Errorf("%w: no report destination configured", models.ErrReportWrite)
	}
	r, err := s.Report(ctx)
	if err != nil {
		return nil, "", err
	}
	path, err := s.sink.Write(s.now(), r.Text)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrReportWrite, err)
	}
	log.WithFields(log.Fields{"path": path, "items": r.Count}).Info("Maintenance report saved")
	s.publish(ctx, events.Event{Type: events.ReportSaved, Path: path})
	return r, path, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	ev.At = s.now()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.WithError(err).WithField("event", ev.Type).Warn("Failed to publish maintenance event")
	}
}
