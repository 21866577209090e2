package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

type rowKey struct {
	itemID entities.ItemID
	date   time.Time
}

// ResultRepository caches projection rows in memory with latest-completed-run-wins upserts
type ResultRepository struct {
	mu   sync.RWMutex
	rows map[rowKey]entities.ProjectionRow
	runs []entities.RunRecord
}

// NewResultRepository creates an empty result cache
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		rows: make(map[rowKey]entities.ProjectionRow),
	}
}

// Verify interface compliance
var _ repositories.ResultRepository = (*ResultRepository)(nil)

// SaveRun upserts every day of every result. Rows written by a run that completed later are kept.
func (r *ResultRepository) SaveRun(ctx context.Context, run *entities.RunRecord, results []*entities.ProjectionResult) error {
	if run == nil {
		return fmt.Errorf("run record cannot be nil")
	}
	if run.CompletedAt.IsZero() {
		return fmt.Errorf("run %s has no completion time", run.RunID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, result := range results {
		for _, day := range result.Days {
			key := rowKey{itemID: result.ItemID, date: entities.Day(day.Date)}
			if existing, exists := r.rows[key]; exists && existing.CompletedAt.After(run.CompletedAt) {
				continue
			}
			r.rows[key] = entities.ProjectionRow{
				ItemID:      result.ItemID,
				Date:        key.date,
				Consumption: day.Consumption,
				Incoming:    day.Incoming,
				Projected:   day.Projected,
				RunID:       run.RunID,
				CompletedAt: run.CompletedAt,
			}
		}
	}
	r.runs = append(r.runs, *run)

	return nil
}

// LatestRun returns the run with the latest completion time
func (r *ResultRepository) LatestRun(ctx context.Context) (*entities.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.runs) == 0 {
		return nil, repositories.ErrNoRuns
	}
	latest := r.runs[0]
	for _, run := range r.runs[1:] {
		if run.CompletedAt.After(latest.CompletedAt) {
			latest = run
		}
	}
	return &latest, nil
}

// GetProjection returns the cached rows for an item ordered by date
func (r *ResultRepository) GetProjection(ctx context.Context, itemID entities.ItemID) ([]entities.ProjectionRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]entities.ProjectionRow, 0)
	for key, row := range r.rows {
		if key.itemID == itemID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}
