// Package schema declares the measurement forms: which columns a resource
// has, in which order, and how each input is parsed.
package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindText Kind = iota
	KindDate
	KindTime
	KindSelect
	KindInteger
	KindDecimal
	KindCheckbox
	// KindLookup is a select whose options are read from another resource.
	KindLookup
	// KindDerived is computed from the other inputs and never typed in.
	KindDerived
)

const (
	DateFormat = "02/01/2006"
	TimeFormat = "15:04"

	htmlDate = "2006-01-02"
)

var (
	ErrNotInOptions = errors.New("not one of the proposed values")
	ErrOutOfRange   = errors.New("out of range")
	ErrNotANumber   = errors.New("not a number")
	ErrBadDate      = errors.New("not a date")
	ErrBadTime      = errors.New("not a time")
)

type Field struct {
	// Name is the column header and the form input name.
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Options  []string
	Min, Max *float64
	// Step is the html input step for numbers.
	Step string
	// Source and SourceColumn name the resource column a lookup lists.
	Source       string
	SourceColumn string
	// InputOnly fields feed derived fields but are not written.
	InputOnly bool
	Derive    func(values map[string]string) string
}

// Unset reports whether raw is the empty sentinel. "0" is a value.
func (f Field) Unset(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// Default is the value a fresh form shows.
func (f Field) Default(now time.Time) string {
	switch f.Kind {
	case KindDate:
		return now.Format(htmlDate)
	case KindTime:
		return now.Format(TimeFormat)
	default:
		return ""
	}
}

// Parse turns raw input into the value written to the resource. Unset
// optional numbers become nil so the cell stays empty.
func (f Field) Parse(raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindDate:
		for _, layout := range []string{htmlDate, DateFormat} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(DateFormat), nil
			}
		}
		return nil, ErrBadDate
	case KindTime:
		for _, layout := range []string{TimeFormat, "15:04:05"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(TimeFormat), nil
			}
		}
		return nil, ErrBadTime
	case KindSelect:
		if raw == "" {
			return "", nil
		}
		for _, o := range f.Options {
			if o == raw {
				return raw, nil
			}
		}
		return nil, ErrNotInOptions
	case KindInteger:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ErrNotANumber
		}
		if err := f.checkRange(float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case KindDecimal:
		if raw == "" {
			return nil, nil
		}
		x, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, ErrNotANumber
		}
		if err := f.checkRange(x); err != nil {
			return nil, err
		}
		return x, nil
	case KindCheckbox:
		return raw != "", nil
	default:
		return raw, nil
	}
}

func (f Field) checkRange(x float64) error {
	if f.Min != nil && x < *f.Min {
		return fmt.Errorf("%w: below %s", ErrOutOfRange, strconv.FormatFloat(*f.Min, 'f', -1, 64))
	}
	if f.Max != nil && x > *f.Max {
		return fmt.Errorf("%w: above %s", ErrOutOfRange, strconv.FormatFloat(*f.Max, 'f', -1, 64))
	}
	return nil
}

// Schema is one measurement form and the resource it appends to.
type Schema struct {
	Key      string
	Label    string
	Title    string
	Resource string
	Fields   []Field
}

// Columns returns the resource header this schema writes, in order.
func (s Schema) Columns() []string {
	var cols []string
	for _, f := range s.Fields {
		if !f.InputOnly {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Lookups returns the fields whose options come from another resource.
func (s Schema) Lookups() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == KindLookup {
			out = append(out, f)
		}
	}
	return out
}

// Defaults returns the initial input values of a fresh form.
func (s Schema) Defaults(now time.Time) map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind == KindDerived {
			continue
		}
		values[f.Name] = f.Default(now)
	}
	return values
}

// PlantID derives the sunflower identifier from a student NOMA. A second
// plant, grown after the first one died, gets the "_B" suffix.
func PlantID(noma string, second bool) string {
	noma = strings.TrimSpace(noma)
	if noma == "" {
		return ""
	}
	if second {
		return noma + "_B"
	}
	return noma
}
