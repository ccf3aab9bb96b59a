package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func operatorRuleSet() *RuleSet {
	return NewRuleSet(map[string]EnvironmentRules{
		"prod-cluster": {
			Style: StyleOperator,
			Operator: []OperatorRule{
				{
					PropertyName: "CPU Usage",
					Green:        "<50",
					Yellow:       ">=50 && <100",
					Red:          ">=100",
				},
				{
					PropertyName: "Last Backup",
					Red:          "olderThan7Days",
				},
				{
					PropertyName: "Queue Depth",
					Green:        "garbage expression",
					Red:          ">=1000",
				},
			},
		},
	})
}

func TestClassifyOperatorStyle(t *testing.T) {
	rs := operatorRuleSet()

	tests := []struct {
		name        string
		environment string
		property    string
		raw         string
		want        Level
	}{
		{
			name:        "percent value matches middle bucket",
			environment: "prod-cluster",
			property:    "CPU Usage",
			raw:         "75%",
			want:        LevelMedium,
		},
		{
			name:        "best bucket",
			environment: "prod-cluster",
			property:    "CPU Usage",
			raw:         "12",
			want:        LevelLow,
		},
		{
			name:        "worst bucket",
			environment: "prod-cluster",
			property:    "CPU Usage",
			raw:         "240",
			want:        LevelHigh,
		},
		{
			name:        "unknown environment",
			environment: "staging",
			property:    "CPU Usage",
			raw:         "75",
			want:        LevelUnclassified,
		},
		{
			name:        "unknown property",
			environment: "prod-cluster",
			property:    "Memory",
			raw:         "75",
			want:        LevelUnclassified,
		},
		{
			name:        "non numeric value",
			environment: "prod-cluster",
			property:    "CPU Usage",
			raw:         "N/A",
			want:        LevelInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.environment, tt.property, tt.raw, rs))
		})
	}
}

func TestClassifyMalformedConditionSkipped(t *testing.T) {
	rs := operatorRuleSet()

	// Green is unparsable: it must act as "no match" and surface a warning,
	// not abort.
	res := ClassifyDetailed("prod-cluster", "Queue Depth", "1500", rs)
	assert.Equal(t, LevelHigh, res.Level)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "malformed condition")

	res = ClassifyDetailed("prod-cluster", "Queue Depth", "10", rs)
	assert.Equal(t, LevelUnclassified, res.Level)
}

func TestClassifyDateSentinel(t *testing.T) {
	rs := operatorRuleSet()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want Level
	}{
		{
			name: "ten days old is worst bucket",
			raw:  "8/19/2026 3:04 PM",
			want: LevelHigh,
		},
		{
			name: "two days old is unclassified",
			raw:  "8/27/2026",
			want: LevelUnclassified,
		},
		{
			name: "unparsable date",
			raw:  "never",
			want: LevelInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classifyAt("prod-cluster", "Last Backup", tt.raw, rs, now)
			assert.Equal(t, tt.want, res.Level)
		})
	}
}

func TestClassifyBandedHighDirection(t *testing.T) {
	rs := NewRuleSet(map[string]EnvironmentRules{
		"sql-health": {
			Style: StyleBanded,
			Banded: map[string]BandedRule{
				"Free Connections": {
					RiskDirection: "High",
					Levels:        CutPoints{High: 10, Medium: 20, Low: 30, None: 100},
				},
			},
		},
	})

	tests := []struct {
		raw  string
		want Level
	}{
		{"5", LevelHigh},
		{"10", LevelHigh},
		{"15", LevelMedium},
		{"20", LevelMedium},
		{"25", LevelLow},
		{"30", LevelLow},
		{"31", LevelNone},
		{"500", LevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("sql-health", "Free Connections", tt.raw, rs))
		})
	}
}

func TestClassifyBandedLowDirection(t *testing.T) {
	rs := NewRuleSet(map[string]EnvironmentRules{
		"sql-health": {
			Style: StyleBanded,
			Banded: map[string]BandedRule{
				"Free Disk %": {
					RiskDirection: "Low",
					Levels:        CutPoints{None: 90, Low: 70, Medium: 50, High: 0},
				},
			},
		},
	})

	tests := []struct {
		raw  string
		want Level
	}{
		{"95%", LevelNone},
		{"90", LevelNone},
		{"80", LevelLow},
		{"70", LevelLow},
		{"60", LevelMedium},
		{"50", LevelMedium},
		{"49", LevelHigh},
		{"3", LevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("sql-health", "Free Disk %", tt.raw, rs))
		})
	}
}

func TestClassifyUnknownRiskDirection(t *testing.T) {
	rs := NewRuleSet(map[string]EnvironmentRules{
		"sql-health": {
			Style: StyleBanded,
			Banded: map[string]BandedRule{
				"Sessions": {
					RiskDirection: "Sideways",
					Levels:        CutPoints{High: 10, Medium: 20, Low: 30},
				},
			},
		},
	})

	res := ClassifyDetailed("sql-health", "Sessions", "15", rs)
	assert.Equal(t, LevelUnclassified, res.Level)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unknown risk direction")
}

func TestClassifyIdempotent(t *testing.T) {
	rs := operatorRuleSet()

	first := Classify("prod-cluster", "CPU Usage", "75%", rs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify("prod-cluster", "CPU Usage", "75%", rs))
	}
}

func TestClassifyNilRuleSet(t *testing.T) {
	assert.Equal(t, LevelUnclassified, Classify("prod-cluster", "CPU Usage", "75", nil))
}
