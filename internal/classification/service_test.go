package classification

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/config"
	"riskgrade/internal/constants"
	"riskgrade/internal/logger"
	"riskgrade/pkg/errors"
	"riskgrade/pkg/models"
	"riskgrade/pkg/threshold"
)

type stubRepository struct {
	ruleSet *threshold.RuleSet
	err     error
	calls   int
}

func (s *stubRepository) GetRuleSet(ctx context.Context) (*threshold.RuleSet, error) {
	s.calls++
	return s.ruleSet, s.err
}

func operatorRuleSet() *threshold.RuleSet {
	return threshold.NewRuleSet(map[string]threshold.EnvironmentRules{
		"production": {
			Style: threshold.StyleOperator,
			Operator: []threshold.OperatorRule{
				{PropertyName: "CPU Usage", Green: ">=0 && <70", Yellow: ">=70 && <90", Red: ">=90"},
			},
		},
	})
}

func testConfig(onError string) config.ClassificationConfig {
	return config.ClassificationConfig{
		Fallback: config.FallbackConfig{OnError: onError},
	}
}

func testRecord(fields map[string]string) models.RecordEnvelope {
	record := models.RecordEnvelope{
		ID:          "rec-1",
		Environment: "production",
		Source:      "test",
	}
	for name, raw := range fields {
		record.Fields = append(record.Fields, models.Field{Name: name, Raw: raw})
	}
	return record
}

func TestServiceAnnotate(t *testing.T) {
	repo := &stubRepository{ruleSet: operatorRuleSet()}
	svc := NewService(repo, testConfig(""), logger.NopLogger())
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	record := testRecord(map[string]string{"CPU Usage": "75%"})
	require.NoError(t, svc.Annotate(context.Background(), &record))

	require.NotNil(t, record.Metadata.Classification)
	assert.Equal(t, string(threshold.LevelMedium), record.Metadata.Classification.Levels["CPU Usage"])
	assert.Equal(t, string(threshold.LevelMedium), record.Derived[models.DerivedFieldName("CPU Usage")])
	assert.False(t, record.Metadata.Classification.EvaluatedAt.IsZero())
}

func TestServiceAnnotateSkipsFieldsWithoutRules(t *testing.T) {
	repo := &stubRepository{ruleSet: operatorRuleSet()}
	svc := NewService(repo, testConfig(""), logger.NopLogger())
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	record := testRecord(map[string]string{"Unknown Property": "42"})
	require.NoError(t, svc.Annotate(context.Background(), &record))

	assert.Nil(t, record.Metadata.Classification)
	assert.Empty(t, record.Derived)
}

func TestServiceAnnotateNoRulesFallbackUnclassified(t *testing.T) {
	repo := &stubRepository{ruleSet: threshold.NewRuleSet(nil)}
	svc := NewService(repo, testConfig(constants.FallbackUnclassified), logger.NopLogger())

	record := testRecord(map[string]string{"CPU Usage": "75"})
	require.NoError(t, svc.Annotate(context.Background(), &record))

	require.NotNil(t, record.Metadata.Classification)
	assert.Equal(t, string(threshold.LevelUnclassified), record.Metadata.Classification.Levels["CPU Usage"])
}

func TestServiceAnnotateNoRulesFallbackSkip(t *testing.T) {
	repo := &stubRepository{ruleSet: threshold.NewRuleSet(nil)}
	svc := NewService(repo, testConfig(constants.FallbackSkip), logger.NopLogger())

	record := testRecord(map[string]string{"CPU Usage": "75"})
	require.NoError(t, svc.Annotate(context.Background(), &record))

	assert.Nil(t, record.Metadata.Classification)
}

func TestServiceAnnotateNoRulesFallbackError(t *testing.T) {
	repo := &stubRepository{ruleSet: threshold.NewRuleSet(nil)}
	svc := NewService(repo, testConfig(constants.FallbackError), logger.NopLogger())

	record := testRecord(map[string]string{"CPU Usage": "75"})
	err := svc.Annotate(context.Background(), &record)
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestServiceReloadRules(t *testing.T) {
	repo := &stubRepository{ruleSet: operatorRuleSet()}
	svc := NewService(repo, testConfig(""), logger.NopLogger())

	assert.Equal(t, 0, svc.RuleCount())
	assert.True(t, svc.LastLoaded().IsZero())

	require.NoError(t, svc.ReloadRules(context.Background(), true))
	assert.Equal(t, 1, svc.RuleCount())
	assert.False(t, svc.LastLoaded().IsZero())
}

func TestServiceReloadKeepsOldRulesOnError(t *testing.T) {
	repo := &stubRepository{ruleSet: operatorRuleSet()}
	svc := NewService(repo, testConfig(""), logger.NopLogger())
	require.NoError(t, svc.ReloadRules(context.Background(), true))

	repo.err = fmt.Errorf("connection refused")
	err := svc.ReloadRules(context.Background(), true)
	require.Error(t, err)

	// The previous rule set stays active after a failed reload.
	assert.Equal(t, 1, svc.RuleCount())

	record := testRecord(map[string]string{"CPU Usage": "50"})
	require.NoError(t, svc.Annotate(context.Background(), &record))
	require.NotNil(t, record.Metadata.Classification)
	assert.Equal(t, string(threshold.LevelLow), record.Metadata.Classification.Levels["CPU Usage"])
}
