package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Date layouts used across the API, the console and the reports.
const (
	ISODateLayout     = "2006-01-02"
	DisplayDateLayout = "02/01/2006"
)

// Date is a calendar day without time of day. It is stored and exchanged
// as ISO text (YYYY-MM-DD) in JSON, BSON and SQL.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s with layout and drops any time of day.
func ParseDate(layout, s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// String renders the ISO form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISODateLayout)
}

// Display renders DD/MM/YYYY.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayDateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(ISODateLayout, s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalBSONValue stores the date as an ISO string.
func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		parsed, err := ParseDate(ISODateLayout, raw.StringValue())
		if err != nil {
			return err
		}
		*d = parsed
	case bsontype.DateTime:
		tm := raw.Time().UTC()
		*d = NewDate(tm.Year(), tm.Month(), tm.Day())
	case bsontype.Null:
		*d = Date{}
	default:
		return fmt.Errorf("cannot decode %v into a date", t)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	case time.Time:
		v = v.UTC()
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into a date", src)
	}
}

func (d *Date) scanText(s string) error {
	parsed, err := ParseDate(ISODateLayout, s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
