package models

// DaysPerMonth is the fixed month length used for next-due projections.
// Calendar month lengths are not used.
const DaysPerMonth = 30

// Upper bounds accepted for the whole-number fields. They keep the
// next-due odometer and date from overflowing.
const (
	MaxOdometer = 1_000_000_000
	MaxMonths   = 12_000
)

// Maintenance represents one serviced part or service item.
type Maintenance struct {
	ID               int64   `json:"id" bson:"_id"`
	Name             string  `json:"name" bson:"name" validate:"required"`
	Cost             float64 `json:"cost" bson:"cost" validate:"gte=0"`
	ServiceDate      Date    `json:"serviceDate" bson:"serviceDate"`
	ServiceOdometer  int64   `json:"serviceOdometer" bson:"serviceOdometer" validate:"gte=0,lte=1000000000"`
	IntervalDistance int64   `json:"intervalDistance" bson:"intervalDistance" validate:"gte=0,lte=1000000000"`
	IntervalMonths   int64   `json:"intervalMonths" bson:"intervalMonths" validate:"gte=0,lte=12000"`
}

// Projection is the next-due estimate derived from a service event.
type Projection struct {
	NextDueOdometer int64
	NextDueDate     Date
}

// Project computes when a part is due again: the odometer threshold and
// the calendar date, counting every month as 30 days.
func Project(serviceDate Date, serviceOdometer, intervalDistance, intervalMonths int64) Projection {
	return Projection{
		NextDueOdometer: serviceOdometer + intervalDistance,
		NextDueDate:     serviceDate.AddDays(int(intervalMonths * DaysPerMonth)),
	}
}

// Projection derives the next-due values for m.
func (m *Maintenance) Projection() Projection {
	return Project(m.ServiceDate, m.ServiceOdometer, m.IntervalDistance, m.IntervalMonths)
}

// MaintenanceView is a record plus its derived fields, as listed by the
// API, the console and the reports.
type MaintenanceView struct {
	Maintenance
	NextDueOdometer int64  `json:"nextDueOdometer"`
	NextDueDate     string `json:"nextDueDate"`    // DD/MM/YYYY
	NextDueDateISO  string `json:"nextDueDateISO"` // YYYY-MM-DD
}

// View attaches the projection to m.
func (m Maintenance) View() MaintenanceView {
	p := m.Projection()
	return MaintenanceView{
		Maintenance:     m,
		NextDueOdometer: p.NextDueOdometer,
		NextDueDate:     p.NextDueDate.Display(),
		NextDueDateISO:  p.NextDueDate.String(),
	}
}
