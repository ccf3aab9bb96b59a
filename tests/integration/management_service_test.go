package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/management"
	"riskgrade/pkg/errors"
)

func newManagementService(t *testing.T, infra *TestInfra) management.Service {
	t.Helper()
	repo := management.NewPostgresRepository(infra.PostgresDB)
	versioning := management.NewPostgresVersioningRepository(infra.PostgresDB)
	return management.NewService(repo, createTestLogger(),
		management.WithVersioning(versioning))
}

func TestManagementService_CreateAndVersioning(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	svc := newManagementService(t, infra)
	ctx := context.Background()

	rule, err := svc.CreateThresholdRule(ctx, management.CreateThresholdRuleRequest{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Style:        management.StyleOperator,
		GreenExpr:    ">=0 && <70",
		YellowExpr:   ">=70 && <90",
		RedExpr:      ">=90",
	}, "tester")
	require.NoError(t, err)
	require.NotEmpty(t, rule.ID)
	assert.True(t, rule.Enabled)

	versions, err := svc.GetRuleVersions(ctx, rule.ID, 10)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "tester", versions[0].ChangedBy)

	yellow := ">=60 && <90"
	_, err = svc.UpdateThresholdRule(ctx, rule.ID, management.UpdateThresholdRuleRequest{
		YellowExpr: &yellow,
	}, "tester")
	require.NoError(t, err)

	versions, err = svc.GetRuleVersions(ctx, rule.ID, 10)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)

	logs, total, err := svc.GetAuditLogs(ctx, rule.ID, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "update", logs[0].Action)
	assert.Equal(t, "create", logs[1].Action)
}

func TestManagementService_CreateRejectsInvalidExpression(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	svc := newManagementService(t, infra)
	ctx := context.Background()

	_, err := svc.CreateThresholdRule(ctx, management.CreateThresholdRuleRequest{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Style:        management.StyleOperator,
		GreenExpr:    ">>>= banana",
	}, "tester")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestManagementService_CreateRejectsIncompleteBandedRule(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	svc := newManagementService(t, infra)
	ctx := context.Background()

	low := 75.0
	_, err := svc.CreateThresholdRule(ctx, management.CreateThresholdRuleRequest{
		Environment:   "production",
		PropertyName:  "Backup Age",
		Style:         management.StyleBanded,
		RiskDirection: "High",
		LevelLow:      &low,
	}, "tester")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestManagementService_Delete(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	svc := newManagementService(t, infra)
	ctx := context.Background()

	rule, err := svc.CreateThresholdRule(ctx, management.CreateThresholdRuleRequest{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Style:        management.StyleOperator,
		GreenExpr:    ">=0 && <70",
	}, "tester")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteThresholdRule(ctx, rule.ID, "tester"))

	_, err = svc.GetThresholdRule(ctx, rule.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	// Versions survive deletion for later inspection.
	versions, err := svc.GetRuleVersions(ctx, rule.ID, 10)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestManagementService_PreviewClassification(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)
	svc := newManagementService(t, infra)
	ctx := context.Background()

	_, err := svc.CreateThresholdRule(ctx, management.CreateThresholdRuleRequest{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Style:        management.StyleOperator,
		GreenExpr:    ">=0 && <70",
		YellowExpr:   ">=70 && <90",
		RedExpr:      ">=90",
	}, "tester")
	require.NoError(t, err)

	resp, err := svc.PreviewClassification(ctx, management.ClassifyPreviewRequest{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Value:        "75%",
	})
	require.NoError(t, err)
	assert.Equal(t, "medium", resp.Level)
	assert.Equal(t, "yellow", resp.Color)

	resp, err = svc.PreviewClassification(ctx, management.ClassifyPreviewRequest{
		Environment:  "production",
		PropertyName: "CPU Usage",
		Value:        "95",
	})
	require.NoError(t, err)
	assert.Equal(t, "high", resp.Level)

	_, err = svc.PreviewClassification(ctx, management.ClassifyPreviewRequest{
		Environment:  "production",
		PropertyName: "Unknown Property",
		Value:        "10",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
