package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/history"
	"riskgrade/pkg/threshold"
)

func TestHistoryRepository_SaveAndListRecent(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	repo := history.NewRepository(infra.MongoDB, "classification_history_test")
	ctx := context.Background()

	for i, id := range []string{"rec-1", "rec-2", "rec-3"} {
		record := createTestRecord(id, "production", map[string]string{
			"CPU Usage": "95",
		})
		record.Annotate("CPU Usage", threshold.LevelHigh)
		record.Metadata.Classification.EvaluatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Save(ctx, record))
	}

	staging := createTestRecord("rec-4", "staging", map[string]string{
		"CPU Usage": "10",
	})
	staging.Annotate("CPU Usage", threshold.LevelNone)
	staging.Metadata.Classification.EvaluatedAt = time.Now()
	require.NoError(t, repo.Save(ctx, staging))

	entries, err := repo.ListRecent(ctx, "production", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "rec-3", entries[0].RecordID)
	for _, e := range entries {
		assert.Equal(t, "production", e.Environment)
		assert.Equal(t, string(threshold.LevelHigh), e.Levels["CPU Usage"])
	}

	entries, err = repo.ListRecent(ctx, "production", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistoryRepository_SaveSkipsUnclassifiedRecord(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	repo := history.NewRepository(infra.MongoDB, "classification_history_test")
	ctx := context.Background()

	record := createTestRecord("rec-unclassified", "production", map[string]string{
		"CPU Usage": "95",
	})
	require.NoError(t, repo.Save(ctx, record))

	entries, err := repo.ListRecent(ctx, "production", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
