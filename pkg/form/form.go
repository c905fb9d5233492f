// Package form turns submitted form values into appended rows.
package form

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"tpcollect/pkg/metrics"
	"tpcollect/pkg/schema"
	"tpcollect/pkg/store"
)

// MissingNotice is shown once, whatever the number of missing fields.
const MissingNotice = "Veuillez remplir tous les champs obligatoires (*)"

// Session is the state of one form for one user interaction.
type Session struct {
	Schema schema.Schema
	Values map[string]string
}

func NewSession(s schema.Schema, now time.Time) *Session {
	return &Session{Schema: s, Values: s.Defaults(now)}
}

// Reset puts every input back to its default.
func (s *Session) Reset(now time.Time) {
	s.Values = s.Schema.Defaults(now)
}

func (s *Session) Set(name, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[name] = value
}

type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// ValidationError aggregates everything wrong with a submission. No remote
// call is made when it is returned.
type ValidationError struct {
	Schema  string
	Missing []string
	Invalid []FieldError
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, MissingNotice+": "+strings.Join(e.Missing, ", "))
	}
	for _, fe := range e.Invalid {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Invalidator drops a cached read.
type Invalidator interface {
	Invalidate(key string)
}

type Controller struct {
	store   store.Appender
	cache   Invalidator
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func NewController(a store.Appender, cache Invalidator, opts ...Option) *Controller {
	c := &Controller{store: a, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now is the controller clock, used for fresh sessions.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Record checks the session and builds the row it would append.
func (c *Controller) Record(s *Session) (store.Record, error) {
	verr := &ValidationError{Schema: s.Schema.Key}
	for _, f := range s.Schema.Fields {
		if f.Required && f.Kind != schema.KindDerived && f.Unset(s.Values[f.Name]) {
			verr.Missing = append(verr.Missing, f.Name)
		}
	}
	if len(verr.Missing) > 0 {
		return nil, verr
	}

	rec := make(store.Record, 0, len(s.Schema.Fields))
	for _, f := range s.Schema.Fields {
		if f.InputOnly {
			continue
		}
		var value interface{}
		if f.Kind == schema.KindDerived {
			value = f.Derive(s.Values)
		} else {
			v, err := f.Parse(s.Values[f.Name])
			if err != nil {
				verr.Invalid = append(verr.Invalid, FieldError{Field: f.Name, Err: err})
				continue
			}
			value = v
		}
		rec = append(rec, store.Column{Name: f.Name, Value: value})
	}
	if len(verr.Invalid) > 0 {
		return nil, verr
	}
	return rec, nil
}

// Submit validates the session and appends its row. On success the session
// is reset and the cached read of the resource dropped; on failure the
// session is left as it was.
func (c *Controller) Submit(ctx context.Context, s *Session) (store.Record, error) {
	rec, err := c.Record(s)
	if err != nil {
		c.metrics.ValidationFailed(s.Schema.Key)
		return nil, err
	}
	if err := c.store.Append(ctx, s.Schema.Resource, rec); err != nil {
		return nil, fmt.Errorf("enregistrement %s: %w", s.Schema.Key, err)
	}
	c.cache.Invalidate(s.Schema.Resource)
	s.Reset(c.now())
	log.WithFields(log.Fields{
		"schema":   s.Schema.Key,
		"resource": s.Schema.Resource,
	}).Info("measurement saved")
	return rec, nil
}
