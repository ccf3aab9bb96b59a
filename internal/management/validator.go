package management

import (
	"fmt"
	"strings"

	"riskgrade/pkg/errors"
	"riskgrade/pkg/threshold"
)

const (
	StyleOperator = "operator"
	StyleBanded   = "banded"
)

func validateRule(rule *ThresholdRule) error {
	if strings.TrimSpace(rule.Environment) == "" {
		return validationError("environment is required")
	}
	if strings.TrimSpace(rule.PropertyName) == "" {
		return validationError("property_name is required")
	}

	switch rule.Style {
	case StyleOperator:
		return validateOperatorRule(rule)
	case StyleBanded:
		return validateBandedRule(rule)
	default:
		return validationError(fmt.Sprintf("style must be %q or %q", StyleOperator, StyleBanded))
	}
}

func validateOperatorRule(rule *ThresholdRule) error {
	if rule.GreenExpr == "" && rule.YellowExpr == "" && rule.RedExpr == "" {
		return validationError("operator rules require at least one of green_expr, yellow_expr, red_expr")
	}
	for name, expr := range map[string]string{
		"green_expr":  rule.GreenExpr,
		"yellow_expr": rule.YellowExpr,
		"red_expr":    rule.RedExpr,
	} {
		if expr == "" {
			continue
		}
		// The date sentinel is only meaningful in the red bucket.
		if _, ok := threshold.ParseSentinel(expr); ok {
			if name != "red_expr" {
				return validationError(fmt.Sprintf("%s: olderThanNDays is only valid in red_expr", name))
			}
			continue
		}
		if _, err := threshold.ParseCondition(expr); err != nil {
			return validationError(fmt.Sprintf("%s: %v", name, err))
		}
	}
	return nil
}

func validateBandedRule(rule *ThresholdRule) error {
	direction := strings.ToLower(rule.RiskDirection)
	if direction != "high" && direction != "low" {
		return validationError(`risk_direction must be "High" or "Low" for banded rules`)
	}
	if rule.LevelNone == nil || rule.LevelLow == nil || rule.LevelMedium == nil || rule.LevelHigh == nil {
		return validationError("banded rules require all of level_none, level_low, level_medium, level_high")
	}
	return nil
}

func validationError(message string) error {
	return errors.ErrValidation.WithDetail("message", message)
}
