package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/classification"
	"riskgrade/internal/management"
	"riskgrade/pkg/threshold"
)

func TestClassificationRepository_GetRuleSet(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	mgmt := management.NewPostgresRepository(infra.PostgresDB)
	ctx := context.Background()

	require.NoError(t, mgmt.Create(ctx, createTestOperatorRule("production", "CPU Usage", ">=0 && <70", ">=70 && <90", ">=90")))
	require.NoError(t, mgmt.Create(ctx, createTestOperatorRule("production", "Memory Usage", ">=0 && <80", "", ">=80")))
	require.NoError(t, mgmt.Create(ctx, createTestBandedRule("staging", "Free Disk", "Low", 80, 60, 40, 20)))

	disabled := createTestOperatorRule("production", "Disabled Property", ">=0", "", "")
	disabled.Enabled = false
	require.NoError(t, mgmt.Create(ctx, disabled))

	repo := classification.NewPostgresRepository(infra.PostgresDB)
	rs, err := repo.GetRuleSet(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, rs.PropertyCount())
	assert.True(t, rs.HasRule("production", "CPU Usage"))
	assert.True(t, rs.HasRule("production", "Memory Usage"))
	assert.True(t, rs.HasRule("staging", "Free Disk"))
	assert.False(t, rs.HasRule("production", "Disabled Property"))

	assert.Equal(t, threshold.LevelMedium, threshold.Classify("production", "CPU Usage", "75", rs))
	assert.Equal(t, threshold.LevelHigh, threshold.Classify("staging", "Free Disk", "10", rs))
	assert.Equal(t, threshold.LevelNone, threshold.Classify("staging", "Free Disk", "85", rs))
}

func TestClassificationRepository_EmptyTable(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := classification.NewPostgresRepository(infra.PostgresDB)
	rs, err := repo.GetRuleSet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rs.PropertyCount())
}
