package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeNumeric(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      float64
		wantError bool
	}{
		{
			name: "plain integer",
			raw:  "75",
			want: 75,
		},
		{
			name: "percent sign stripped",
			raw:  "75%",
			want: 75,
		},
		{
			name: "units stripped",
			raw:  "128 MB",
			want: 128,
		},
		{
			name: "decimal kept",
			raw:  "99.9 %",
			want: 99.9,
		},
		{
			name: "second decimal point dropped",
			raw:  "1.2.3",
			want: 1.23,
		},
		{
			name:      "no digits",
			raw:       "N/A",
			wantError: true,
		},
		{
			name:      "empty",
			raw:       "",
			wantError: true,
		},
		{
			name:      "lone decimal point",
			raw:       ".",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := SanitizeNumeric(tt.raw)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidNumeric)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, tt.want, v, 1e-9)
			}
		})
	}
}

func TestParseLooseDate(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      time.Time
		wantError bool
	}{
		{
			name: "month day year",
			raw:  "4/17/2026",
			want: time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "with twelve hour time",
			raw:  "4/17/2026 10:31 PM",
			want: time.Date(2026, 4, 17, 22, 31, 0, 0, time.UTC),
		},
		{
			name: "iso date",
			raw:  "2026-04-17",
			want: time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "embedded in text",
			raw:  "Last backup: 4/17/2026 10:31 PM (full)",
			want: time.Date(2026, 4, 17, 22, 31, 0, 0, time.UTC),
		},
		{
			name:      "not a date",
			raw:       "never",
			wantError: true,
		},
		{
			name:      "empty",
			raw:       "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLooseDate(tt.raw)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidDate)
			} else {
				require.NoError(t, err)
				assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
			}
		})
	}
}
