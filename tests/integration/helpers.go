package integration

import (
	"time"

	"riskgrade/internal/config"
	"riskgrade/internal/constants"
	"riskgrade/internal/logger"
	"riskgrade/internal/management"
	"riskgrade/pkg/models"
)

const (
	containerStartupTimeout = 60
	timestampDelay          = 10 * time.Millisecond
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestClassificationConfig() config.ClassificationConfig {
	return config.ClassificationConfig{
		RuleSource: constants.RuleSourcePostgres,
		Fallback: config.FallbackConfig{
			OnError: constants.FallbackUnclassified,
		},
		Reload: config.ReloadConfig{
			IntervalSeconds: 60,
		},
	}
}

func createTestOperatorRule(environment, property, green, yellow, red string) *management.ThresholdRule {
	return &management.ThresholdRule{
		Environment:  environment,
		PropertyName: property,
		Style:        management.StyleOperator,
		GreenExpr:    green,
		YellowExpr:   yellow,
		RedExpr:      red,
		Enabled:      true,
	}
}

func createTestBandedRule(environment, property, direction string, none, low, medium, high float64) *management.ThresholdRule {
	return &management.ThresholdRule{
		Environment:   environment,
		PropertyName:  property,
		Style:         management.StyleBanded,
		RiskDirection: direction,
		LevelNone:     &none,
		LevelLow:      &low,
		LevelMedium:   &medium,
		LevelHigh:     &high,
		Enabled:       true,
	}
}

func createTestRecord(id, environment string, fields map[string]string) models.RecordEnvelope {
	record := models.RecordEnvelope{
		ID:          id,
		Environment: environment,
		Source:      "integration_test",
		Timestamp:   time.Now().UTC(),
	}
	for name, raw := range fields {
		record.Fields = append(record.Fields, models.Field{
			Name: name,
			Raw:  raw,
		})
	}
	return record
}
