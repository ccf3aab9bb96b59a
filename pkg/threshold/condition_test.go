package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name: "single comparison",
			expr: "<50",
		},
		{
			name: "comparison with spaces",
			expr: " >= 100 ",
		},
		{
			name: "and join",
			expr: ">=100 && <200",
		},
		{
			name: "or join",
			expr: "<5 || >95",
		},
		{
			name:      "empty",
			expr:      "",
			wantError: true,
		},
		{
			name:      "no operator",
			expr:      "100",
			wantError: true,
		},
		{
			name:      "bad operand",
			expr:      ">=ten",
			wantError: true,
		},
		{
			name:      "two joins",
			expr:      ">1 && <2 && >3",
			wantError: true,
		},
		{
			name:      "mixed joins",
			expr:      ">1 && <2 || >3",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition(tt.expr)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrMalformedCondition)
				assert.Nil(t, cond)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, cond)
			}
		})
	}
}

func TestConditionEval(t *testing.T) {
	tests := []struct {
		expr  string
		value float64
		want  bool
	}{
		{">=100", 100, true},
		{">=100", 99.9, false},
		{"<=10", 10, true},
		{"<=10", 10.1, false},
		{"==5", 5, true},
		{"==5", 5.5, false},
		{"!=5", 6, true},
		{"!=5", 5, false},
		{">50", 50, false},
		{">50", 50.1, true},
		{"<50", 49.9, true},
		{">=100 && <200", 150, true},
		{">=100 && <200", 200, false},
		{">=100 && <200", 99, false},
		{"<5 || >95", 3, true},
		{"<5 || >95", 96, true},
		{"<5 || >95", 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			cond, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cond.Eval(tt.value), "expr %q value %v", tt.expr, tt.value)
		})
	}
}

func TestParseSentinel(t *testing.T) {
	tests := []struct {
		expr     string
		wantDays int
		wantOK   bool
	}{
		{"olderThan7Days", 7, true},
		{"olderthan30days", 30, true},
		{"older than 7 days", 7, true},
		{"OlderThan1Days", 1, true},
		{">=100", 0, false},
		{"olderThanDays", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			days, ok := ParseSentinel(tt.expr)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantDays, days)
			}
		})
	}
}
