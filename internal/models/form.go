package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FormValue is a raw user-supplied value. In JSON it may arrive either as a
// string or as a number; both are kept as text until Parse.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = FormValue(n.String())
	}
	return nil
}

// Form carries the fields of an add or edit request before coercion.
type Form struct {
	Name             FormValue `json:"name"`
	Cost             FormValue `json:"cost"`
	ServiceDate      FormValue `json:"serviceDate"`
	ServiceOdometer  FormValue `json:"serviceOdometer"`
	IntervalDistance FormValue `json:"intervalDistance"`
	IntervalMonths   FormValue `json:"intervalMonths"`
}

// Parse coerces every field of f into a Maintenance, reading the service
// date with dateLayout. All offending fields are reported together in a
// *ValidationError. The returned record has no ID.
func (f Form) Parse(dateLayout string) (Maintenance, error) {
	verr := &ValidationError{}
	var m Maintenance

	m.Name = strings.TrimSpace(string(f.Name))

	if s := strings.TrimSpace(string(f.Cost)); s == "" {
		verr.add("cost", "required")
	} else if cost, err := strconv.ParseFloat(s, 64); err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) {
		verr.add("cost", "must be a number")
	} else {
		m.Cost = cost
	}

	if s := strings.TrimSpace(string(f.ServiceDate)); s == "" {
		verr.add("serviceDate", "required")
	} else if d, err := ParseDate(dateLayout, s); err != nil {
		verr.add("serviceDate", "must be a date formatted as "+dateLayout)
	} else {
		m.ServiceDate = d
	}

	m.ServiceOdometer = parseInt(verr, "serviceOdometer", f.ServiceOdometer)
	m.IntervalDistance = parseInt(verr, "intervalDistance", f.IntervalDistance)
	m.IntervalMonths = parseInt(verr, "intervalMonths", f.IntervalMonths)

	if err := validate.Struct(m); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				if verr.has(jsonName(fe.Field())) {
					continue
				}
				verr.add(jsonName(fe.Field()), describeTag(fe.Tag()))
			}
		} else {
			verr.add("record", err.Error())
		}
	}

	if len(verr.Fields) > 0 {
		return Maintenance{}, verr
	}
	return m, nil
}

// FormFrom builds a Form from an existing record, e.g. to prefill an edit.
func FormFrom(m Maintenance, dateLayout string) Form {
	return Form{
		Name:             FormValue(m.Name),
		Cost:             FormValue(strconv.FormatFloat(m.Cost, 'f', -1, 64)),
		ServiceDate:      FormValue(m.ServiceDate.Format(dateLayout)),
		ServiceOdometer:  FormValue(strconv.FormatInt(m.ServiceOdometer, 10)),
		IntervalDistance: FormValue(strconv.FormatInt(m.IntervalDistance, 10)),
		IntervalMonths:   FormValue(strconv.FormatInt(m.IntervalMonths, 10)),
	}
}

func parseInt(verr *ValidationError, field string, v FormValue) int64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		verr.add(field, "required")
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		verr.add(field, "must be a whole number")
		return 0
	}
	return n
}

func (e *ValidationError) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func jsonName(structField string) string {
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "gte":
		return "must not be negative"
	case "lte":
		return "is too large"
	default:
		return "failed " + tag
	}
}
