package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/classification"
	"riskgrade/internal/management"
	"riskgrade/pkg/models"
	"riskgrade/pkg/threshold"
)

func TestClassificationService_AnnotateFromPostgres(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	ctx := context.Background()

	mgmt := management.NewPostgresRepository(infra.PostgresDB)
	require.NoError(t, mgmt.Create(ctx, createTestOperatorRule("production", "CPU Usage", ">=0 && <70", ">=70 && <90", ">=90")))

	repo := classification.NewPostgresRepository(infra.PostgresDB)
	svc := classification.NewService(repo, createTestClassificationConfig(), createTestLogger())
	require.NoError(t, svc.ReloadRules(ctx, true))
	assert.Equal(t, 1, svc.RuleCount())

	record := createTestRecord("rec-1", "production", map[string]string{
		"CPU Usage": "95%",
	})

	require.NoError(t, svc.Annotate(ctx, &record))

	require.NotNil(t, record.Metadata.Classification)
	assert.Equal(t, string(threshold.LevelHigh), record.Metadata.Classification.Levels["CPU Usage"])
	assert.Equal(t, string(threshold.LevelHigh), record.Derived[models.DerivedFieldName("CPU Usage")])
}

func TestClassificationService_ReloadPicksUpChanges(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	ctx := context.Background()

	mgmt := management.NewPostgresRepository(infra.PostgresDB)
	rule := createTestOperatorRule("production", "CPU Usage", ">=0 && <70", "", ">=70")
	require.NoError(t, mgmt.Create(ctx, rule))

	repo := classification.NewPostgresRepository(infra.PostgresDB)
	svc := classification.NewService(repo, createTestClassificationConfig(), createTestLogger())
	require.NoError(t, svc.ReloadRules(ctx, true))
	assert.Equal(t, 1, svc.RuleCount())

	require.NoError(t, mgmt.Create(ctx, createTestOperatorRule("production", "Memory Usage", ">=0 && <80", "", ">=80")))

	require.NoError(t, svc.ReloadRules(ctx, true))
	assert.Equal(t, 2, svc.RuleCount())
}

func TestClassificationService_UnmatchedFieldIsUnclassified(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	ctx := context.Background()

	mgmt := management.NewPostgresRepository(infra.PostgresDB)
	require.NoError(t, mgmt.Create(ctx, createTestOperatorRule("production", "CPU Usage", ">=0 && <70", "", ">=70")))

	repo := classification.NewPostgresRepository(infra.PostgresDB)
	svc := classification.NewService(repo, createTestClassificationConfig(), createTestLogger())
	require.NoError(t, svc.ReloadRules(ctx, true))

	record := createTestRecord("rec-2", "production", map[string]string{
		"Unknown Property": "42",
	})

	require.NoError(t, svc.Annotate(ctx, &record))
	assert.Nil(t, record.Metadata.Classification)
	assert.Empty(t, record.Derived)
}
