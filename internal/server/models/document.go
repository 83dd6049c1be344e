package models

import (
	"encoding/json"
	"time"
)

// Document is a JSON document stored under (Collection, ID). Version starts
// at 1 and grows by one on every write.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Fields decodes the top level of Data. Non-object documents yield an
// empty map.
func (d *Document) Fields() map[string]any {
	fields := map[string]any{}
	_ = json.Unmarshal(d.Data, &fields)
	return fields
}

// StringField returns a top-level string field, or "" when absent or of a
// different type.
func (d *Document) StringField(name string) string {
	s, _ := d.Fields()[name].(string)
	return s
}

// Filter is an equality predicate on a top-level string field.
type Filter struct {
	Field string
	Value string
}

// Matches reports whether d belongs to collection and satisfies all filters.
func (d *Document) Matches(collection string, filters []Filter) bool {
	if d.Collection != collection {
		return false
	}
	if len(filters) == 0 {
		return true
	}
	fields := d.Fields()
	for _, f := range filters {
		v, ok := fields[f.Field].(string)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}
