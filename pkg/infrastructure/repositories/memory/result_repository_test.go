package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

func projection(item entities.ItemID, start time.Time, values ...int64) *entities.ProjectionResult {
	result := &entities.ProjectionResult{ItemID: item, StartDate: start}
	for i, v := range values {
		result.Days = append(result.Days, entities.DailyProjection{
			Date:      start.AddDate(0, 0, i),
			Projected: decimal.NewFromInt(v),
		})
	}
	return result
}

func run(completedAt time.Time) *entities.RunRecord {
	record := entities.NewRunRecord(completedAt.Add(-time.Second), completedAt, 2)
	record.CompletedAt = completedAt
	return record
}

func TestResultRepository_LatestCompletedRunWins(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	newer := run(start.Add(2 * time.Hour))
	older := run(start.Add(1 * time.Hour))

	require.NoError(t, repo.SaveRun(ctx, newer, []*entities.ProjectionResult{projection("BOLT", start, 100, 90)}))
	// an older run finishing its write late must not clobber newer rows
	require.NoError(t, repo.SaveRun(ctx, older, []*entities.ProjectionResult{projection("BOLT", start, 5, 4, 3)}))

	rows, err := repo.GetProjection(ctx, "BOLT")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Projected.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, newer.RunID, rows[0].RunID)
	assert.True(t, rows[1].Projected.Equal(decimal.NewFromInt(90)))
	// day not covered by the newer run is filled by the older one
	assert.Equal(t, older.RunID, rows[2].RunID)

	latest, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.RunID, latest.RunID)
}

func TestResultRepository_SameCompletionOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	completed := start.Add(time.Hour)

	require.NoError(t, repo.SaveRun(ctx, run(completed), []*entities.ProjectionResult{projection("BOLT", start, 1)}))
	second := run(completed)
	require.NoError(t, repo.SaveRun(ctx, second, []*entities.ProjectionResult{projection("BOLT", start, 2)}))

	rows, err := repo.GetProjection(ctx, "BOLT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.RunID, rows[0].RunID)
}

func TestResultRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()

	_, err := repo.LatestRun(ctx)
	assert.ErrorIs(t, err, repositories.ErrNoRuns)

	assert.Error(t, repo.SaveRun(ctx, nil, nil))
	assert.Error(t, repo.SaveRun(ctx, &entities.RunRecord{}, nil))
}
