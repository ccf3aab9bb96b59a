package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/pkg/threshold"
)

func TestResolveKind(t *testing.T) {
	tests := []struct {
		raw  string
		want FieldKind
	}{
		{"75%", FieldNumeric},
		{"128 MB", FieldNumeric},
		{"4/17/2026 10:31 PM", FieldDate},
		{"2026-04-17", FieldDate},
		{"ONLINE", FieldText},
		{"", FieldText},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := Field{Name: "x", Raw: tt.raw}
			f.ResolveKind()
			assert.Equal(t, tt.want, f.Kind)
		})
	}
}

func TestAnnotate(t *testing.T) {
	r := NewRecordEnvelopeBuilder().
		WithID("rec-1").
		WithEnvironment("prod-cluster").
		WithField("CPU Usage", "75%").
		Build()

	r.Annotate("CPU Usage", threshold.LevelMedium)

	assert.Equal(t, "medium", r.Derived["Risk Level for CPU Usage"])
	require.NotNil(t, r.Metadata.Classification)
	assert.Equal(t, "medium", r.Metadata.Classification.Levels["CPU Usage"])
}

func TestValidateRecordEnvelope(t *testing.T) {
	valid := func() *RecordEnvelope {
		return &RecordEnvelope{
			ID:          "rec-1",
			Environment: "prod-cluster",
			Timestamp:   time.Now(),
			Fields:      []Field{{Name: "CPU Usage", Raw: "75%"}},
		}
	}

	assert.NoError(t, ValidateRecordEnvelope(valid()))

	r := valid()
	r.ID = ""
	assert.Error(t, ValidateRecordEnvelope(r))

	r = valid()
	r.Environment = ""
	assert.Error(t, ValidateRecordEnvelope(r))

	r = valid()
	r.Fields = append(r.Fields, Field{Name: "CPU Usage", Raw: "80%"})
	assert.Error(t, ValidateRecordEnvelope(r))

	assert.Error(t, ValidateRecordEnvelope(nil))
}
