package models

import (
	"time"

	"riskgrade/pkg/threshold"
)

// FieldKind tags a record field's value type, resolved once at ingestion
// instead of re-inferred at each access.
type FieldKind string

const (
	FieldNumeric FieldKind = "numeric"
	FieldText    FieldKind = "text"
	FieldDate    FieldKind = "date"
)

// Field is one named property of a monitoring record. Raw keeps the value
// exactly as the source emitted it ("75%", "4/17/2026 10:31 PM"); rules
// decide how to coerce it.
type Field struct {
	Name string    `json:"name"`
	Raw  string    `json:"raw"`
	Kind FieldKind `json:"kind,omitempty"`
}

// ResolveKind tags the field by probing the raw value, preferring date over
// numeric so timestamps with digits don't get misread.
func (f *Field) ResolveKind() {
	if _, err := threshold.ParseLooseDate(f.Raw); err == nil {
		f.Kind = FieldDate
		return
	}
	if _, err := threshold.SanitizeNumeric(f.Raw); err == nil {
		f.Kind = FieldNumeric
		return
	}
	f.Kind = FieldText
}

// RecordEnvelope is one monitored entity's snapshot flowing through the
// pipeline. Environment is the grouping key rules are namespaced under
// (a server cluster or table name). Fields keep source order.
type RecordEnvelope struct {
	ID          string            `json:"id"`
	Environment string            `json:"environment"`
	Source      string            `json:"source"`
	Timestamp   time.Time         `json:"timestamp"`
	Fields      []Field           `json:"fields"`
	Derived     map[string]string `json:"derived,omitempty"` // report-facing fields ("Risk Level for <Property>")
	Metadata    Metadata          `json:"metadata"`
}

type Metadata struct {
	TraceID        string              `json:"trace_id,omitempty"`
	Classification *ClassificationInfo `json:"classification,omitempty"`
	Extra          map[string]any      `json:"extra,omitempty"`
}

// ClassificationInfo summarizes an annotation pass over the record.
type ClassificationInfo struct {
	EvaluatedAt time.Time         `json:"evaluated_at"`
	Levels      map[string]string `json:"levels"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// DerivedFieldName is the report-facing name a classification is attached
// under.
func DerivedFieldName(property string) string {
	return "Risk Level for " + property
}

// Annotate attaches a classification result for one property, both as a
// derived report field and in the metadata summary. Safe to call on a
// freshly decoded envelope.
func (r *RecordEnvelope) Annotate(property string, level threshold.Level) {
	if r.Derived == nil {
		r.Derived = make(map[string]string)
	}
	r.Derived[DerivedFieldName(property)] = string(level)

	if r.Metadata.Classification == nil {
		r.Metadata.Classification = &ClassificationInfo{Levels: make(map[string]string)}
	}
	r.Metadata.Classification.Levels[property] = string(level)
}

// Field returns the named field, if present.
func (r *RecordEnvelope) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SetExtra stores auxiliary pipeline metadata (DLQ reasons and the like).
func (r *RecordEnvelope) SetExtra(key string, value any) {
	if r.Metadata.Extra == nil {
		r.Metadata.Extra = make(map[string]any)
	}
	r.Metadata.Extra[key] = value
}
