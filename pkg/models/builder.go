package models

import "time"

type RecordEnvelopeBuilder struct {
	envelope *RecordEnvelope
}

func NewRecordEnvelopeBuilder() *RecordEnvelopeBuilder {
	return &RecordEnvelopeBuilder{
		envelope: &RecordEnvelope{
			Fields:   make([]Field, 0),
			Metadata: Metadata{},
		},
	}
}

func (b *RecordEnvelopeBuilder) WithID(id string) *RecordEnvelopeBuilder {
	b.envelope.ID = id
	return b
}

func (b *RecordEnvelopeBuilder) WithEnvironment(environment string) *RecordEnvelopeBuilder {
	b.envelope.Environment = environment
	return b
}

func (b *RecordEnvelopeBuilder) WithSource(source string) *RecordEnvelopeBuilder {
	b.envelope.Source = source
	return b
}

func (b *RecordEnvelopeBuilder) WithTimestamp(timestamp time.Time) *RecordEnvelopeBuilder {
	b.envelope.Timestamp = timestamp
	return b
}

// WithField appends a field in source order, resolving its kind tag once
// at build time.
func (b *RecordEnvelopeBuilder) WithField(name, raw string) *RecordEnvelopeBuilder {
	field := Field{Name: name, Raw: raw}
	field.ResolveKind()
	b.envelope.Fields = append(b.envelope.Fields, field)
	return b
}

func (b *RecordEnvelopeBuilder) WithTraceID(traceID string) *RecordEnvelopeBuilder {
	b.envelope.Metadata.TraceID = traceID
	return b
}

func (b *RecordEnvelopeBuilder) Build() *RecordEnvelope {
	if b.envelope.Timestamp.IsZero() {
		b.envelope.Timestamp = time.Now()
	}
	return b.envelope
}
