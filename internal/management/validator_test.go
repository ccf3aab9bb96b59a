package management

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/pkg/errors"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func validOperatorRule() *ThresholdRule {
	return &ThresholdRule{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Style:        StyleOperator,
		GreenExpr:    ">=0 && <70",
		YellowExpr:   ">=70 && <90",
		RedExpr:      ">=90",
	}
}

func validBandedRule() *ThresholdRule {
	return &ThresholdRule{
		Environment:   "production",
		PropertyName:  "Backup Age",
		Style:         StyleBanded,
		RiskDirection: "High",
		LevelNone:     float64Ptr(100),
		LevelLow:      float64Ptr(75),
		LevelMedium:   float64Ptr(50),
		LevelHigh:     float64Ptr(25),
	}
}

func TestValidateOperatorRule(t *testing.T) {
	require.NoError(t, validateRule(validOperatorRule()))
}

func TestValidateOperatorRulePartialBuckets(t *testing.T) {
	rule := validOperatorRule()
	rule.YellowExpr = ""
	rule.RedExpr = ""
	require.NoError(t, validateRule(rule))
}

func TestValidateOperatorRuleRejectsBadExpression(t *testing.T) {
	rule := validOperatorRule()
	rule.YellowExpr = "between 70 and 90"
	err := validateRule(rule)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "yellow_expr")
}

func TestValidateOperatorRuleRejectsEmptyBuckets(t *testing.T) {
	rule := validOperatorRule()
	rule.GreenExpr = ""
	rule.YellowExpr = ""
	rule.RedExpr = ""
	err := validateRule(rule)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidateOperatorRuleDateSentinel(t *testing.T) {
	rule := validOperatorRule()
	rule.GreenExpr = ""
	rule.YellowExpr = ""
	rule.RedExpr = "olderThan30Days"
	require.NoError(t, validateRule(rule))

	rule.GreenExpr = "olderThan30Days"
	rule.RedExpr = ""
	err := validateRule(rule)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "green_expr")
}

func TestValidateBandedRule(t *testing.T) {
	require.NoError(t, validateRule(validBandedRule()))

	rule := validBandedRule()
	rule.RiskDirection = "Low"
	require.NoError(t, validateRule(rule))
}

func TestValidateBandedRuleRejectsBadDirection(t *testing.T) {
	rule := validBandedRule()
	rule.RiskDirection = "Sideways"
	err := validateRule(rule)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidateBandedRuleRejectsMissingCutPoints(t *testing.T) {
	rule := validBandedRule()
	rule.LevelMedium = nil
	err := validateRule(rule)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidateRuleRejectsUnknownStyle(t *testing.T) {
	rule := validOperatorRule()
	rule.Style = "fuzzy"
	err := validateRule(rule)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidateRuleRequiresEnvironmentAndProperty(t *testing.T) {
	rule := validOperatorRule()
	rule.Environment = "  "
	require.Error(t, validateRule(rule))

	rule = validOperatorRule()
	rule.PropertyName = ""
	require.Error(t, validateRule(rule))
}

func TestBuildRuleSetRejectsMixedStyles(t *testing.T) {
	operator := *validOperatorRule()
	banded := *validBandedRule()
	banded.Environment = operator.Environment

	_, err := BuildRuleSet([]ThresholdRule{operator, banded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes rule styles")
}

func TestBuildRuleSetGroupsByEnvironment(t *testing.T) {
	operator := *validOperatorRule()
	banded := *validBandedRule()
	banded.Environment = "staging"

	rs, err := BuildRuleSet([]ThresholdRule{operator, banded})
	require.NoError(t, err)
	assert.Equal(t, 2, rs.PropertyCount())
	assert.True(t, rs.HasRule("production", "CPU Usage"))
	assert.True(t, rs.HasRule("staging", "Backup Age"))
}
