package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/management"
	"riskgrade/pkg/errors"
)

func TestManagementRepository_CreateThresholdRule(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestOperatorRule("production", "CPU Usage", ">=0 && <70", ">=70 && <90", ">=90")

	err := repo.Create(ctx, rule)
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.False(t, rule.UpdatedAt.IsZero())
}

func TestManagementRepository_CreateThresholdRule_Duplicate(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestOperatorRule("production", "CPU Usage", ">=0 && <70", "", "")
	require.NoError(t, repo.Create(ctx, rule))

	duplicate := createTestOperatorRule("production", "CPU Usage", ">=0 && <50", "", "")
	err := repo.Create(ctx, duplicate)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestManagementRepository_GetThresholdRule(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestBandedRule("production", "Backup Age", "High", 100, 75, 50, 25)
	require.NoError(t, repo.Create(ctx, rule))

	retrieved, err := repo.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.ID, retrieved.ID)
	assert.Equal(t, rule.Environment, retrieved.Environment)
	assert.Equal(t, rule.PropertyName, retrieved.PropertyName)
	assert.Equal(t, management.StyleBanded, retrieved.Style)
	assert.Equal(t, "High", retrieved.RiskDirection)
	require.NotNil(t, retrieved.LevelMedium)
	assert.Equal(t, 50.0, *retrieved.LevelMedium)
}

func TestManagementRepository_GetThresholdRule_NotFound(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestManagementRepository_ListThresholdRules(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	rules := []*management.ThresholdRule{
		createTestOperatorRule("production", "CPU Usage", ">=0 && <70", ">=70 && <90", ">=90"),
		createTestOperatorRule("production", "Memory Usage", ">=0 && <80", "", ">=80"),
		createTestOperatorRule("staging", "CPU Usage", ">=0 && <90", "", ">=90"),
	}

	for _, rule := range rules {
		require.NoError(t, repo.Create(ctx, rule))
		time.Sleep(timestampDelay)
	}

	list, total, err := repo.List(ctx, "", 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 3)

	list, total, err = repo.List(ctx, "production", 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)
	for _, r := range list {
		assert.Equal(t, "production", r.Environment)
	}
}

func TestManagementRepository_UpdateThresholdRule(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestOperatorRule("production", "CPU Usage", ">=0 && <70", "", ">=70")
	require.NoError(t, repo.Create(ctx, rule))

	time.Sleep(timestampDelay)

	rule.YellowExpr = ">=70 && <90"
	rule.RedExpr = ">=90"
	rule.Enabled = false
	require.NoError(t, repo.Update(ctx, rule))

	updated, err := repo.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, ">=70 && <90", updated.YellowExpr)
	assert.Equal(t, ">=90", updated.RedExpr)
	assert.False(t, updated.Enabled)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestManagementRepository_DeleteThresholdRule(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestOperatorRule("production", "CPU Usage", ">=0 && <70", "", "")
	require.NoError(t, repo.Create(ctx, rule))

	require.NoError(t, repo.Delete(ctx, rule.ID))

	_, err := repo.GetByID(ctx, rule.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	err = repo.Delete(ctx, rule.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestManagementRepository_ListEnabled(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	enabled := createTestOperatorRule("production", "CPU Usage", ">=0 && <70", "", ">=70")
	require.NoError(t, repo.Create(ctx, enabled))

	disabled := createTestOperatorRule("production", "Memory Usage", ">=0 && <80", "", "")
	disabled.Enabled = false
	require.NoError(t, repo.Create(ctx, disabled))

	rules, err := repo.ListEnabled(ctx, "production")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "CPU Usage", rules[0].PropertyName)
}
