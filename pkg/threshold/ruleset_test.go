package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleSetOperatorStyle(t *testing.T) {
	doc := []byte(`{
		"thresholds": {
			"prod-cluster": [
				{"PropertyName": "CPU Usage", "Green": "<50", "Yellow": ">=50 && <100", "Red": ">=100"},
				{"PropertyName": "Last Backup", "Red": "olderThan7Days"}
			]
		}
	}`)

	rs, err := ParseRuleSet(doc)
	require.NoError(t, err)

	env, ok := rs.Environments["prod-cluster"]
	require.True(t, ok)
	assert.Equal(t, StyleOperator, env.Style)
	require.Len(t, env.Operator, 2)
	assert.Equal(t, "<50", env.Operator[0].Green)
	assert.Equal(t, "olderThan7Days", env.Operator[1].Red)
	assert.Equal(t, 2, rs.PropertyCount())
}

func TestParseRuleSetBandedStyle(t *testing.T) {
	doc := []byte(`{
		"Thresholds": {
			"sql-health": {
				"Free Disk %": {
					"RiskDirection": "Low",
					"Levels": {"None": 90, "Low": 70, "Medium": 50, "High": 0}
				}
			}
		}
	}`)

	rs, err := ParseRuleSet(doc)
	require.NoError(t, err)

	env, ok := rs.Environments["sql-health"]
	require.True(t, ok)
	assert.Equal(t, StyleBanded, env.Style)

	rule, ok := env.Banded["Free Disk %"]
	require.True(t, ok)
	assert.Equal(t, "Low", rule.RiskDirection)
	assert.Equal(t, 90.0, rule.Levels.None)
}

func TestParseRuleSetMixedEnvironments(t *testing.T) {
	doc := []byte(`{
		"thresholds": {
			"prod-cluster": [{"PropertyName": "CPU Usage", "Green": "<50"}],
			"sql-health": {
				"Sessions": {"RiskDirection": "High", "Levels": {"High": 10, "Medium": 20, "Low": 30}}
			}
		}
	}`)

	rs, err := ParseRuleSet(doc)
	require.NoError(t, err)
	assert.Equal(t, StyleOperator, rs.Environments["prod-cluster"].Style)
	assert.Equal(t, StyleBanded, rs.Environments["sql-health"].Style)
}

func TestParseRuleSetErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "invalid json",
			doc:  `{"thresholds": `,
		},
		{
			name: "missing thresholds key",
			doc:  `{"rules": {}}`,
		},
		{
			name: "environment value is scalar",
			doc:  `{"thresholds": {"prod": 42}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := ParseRuleSet([]byte(tt.doc))
			assert.Error(t, err)
			assert.Nil(t, rs)
		})
	}
}

func TestParseRuleSetMissingKeySentinel(t *testing.T) {
	_, err := ParseRuleSet([]byte(`{}`))
	assert.ErrorIs(t, err, ErrNoThresholds)
}
