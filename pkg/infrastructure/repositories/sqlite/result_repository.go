package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

const dateLayout = "2006-01-02"

// ResultRepository persists projection rows in SQLite. Rows are upserted per
// (item, date) and only replaced by runs that completed at or after the stored one.
type ResultRepository struct {
	db *sql.DB
}

// Verify interface compliance
var _ repositories.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository wraps an opened, migrated database
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const upsertRow = `
INSERT INTO projection_rows (item_id, date, consumption, incoming, projected, run_id, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (item_id, date) DO UPDATE SET
    consumption  = excluded.consumption,
    incoming     = excluded.incoming,
    projected    = excluded.projected,
    run_id       = excluded.run_id,
    completed_at = excluded.completed_at
WHERE excluded.completed_at >= projection_rows.completed_at`

// SaveRun records the run and upserts its rows in one transaction
func (r *ResultRepository) SaveRun(ctx context.Context, run *entities.RunRecord, results []*entities.ProjectionResult) (err error) {
	if run == nil {
		return fmt.Errorf("run record cannot be nil")
	}
	if run.CompletedAt.IsZero() {
		return fmt.Errorf("run %s has no completion time", run.RunID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run %s: %w", run.RunID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, completed_at, as_of, horizon_days, item_count, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID.String(),
		run.StartedAt.UnixNano(),
		run.CompletedAt.UnixNano(),
		entities.Day(run.AsOf).Format(dateLayout),
		run.HorizonDays,
		run.ItemCount,
		run.Status.String(),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertRow)
	if err != nil {
		return fmt.Errorf("prepare projection upsert: %w", err)
	}
	defer stmt.Close()

	completed := run.CompletedAt.UnixNano()
	for _, result := range results {
		for _, day := range result.Days {
			if _, err = stmt.ExecContext(ctx,
				string(result.ItemID),
				entities.Day(day.Date).Format(dateLayout),
				day.Consumption.String(),
				day.Incoming.String(),
				day.Projected.String(),
				run.RunID.String(),
				completed,
			); err != nil {
				return fmt.Errorf("upsert %s on %s: %w", result.ItemID, day.Date.Format(dateLayout), err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.RunID, err)
	}
	return nil
}

// LatestRun returns the run with the latest completion time
func (r *ResultRepository) LatestRun(ctx context.Context) (*entities.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, completed_at, as_of, horizon_days, item_count, status
		 FROM runs ORDER BY completed_at DESC LIMIT 1`)

	var (
		runID                  string
		startedAt, completedAt int64
		asOf, status           string
		run                    entities.RunRecord
	)
	if err := row.Scan(&runID, &startedAt, &completedAt, &asOf, &run.HorizonDays, &run.ItemCount, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNoRuns
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("stored run id %q is invalid: %w", runID, err)
	}
	day, err := time.Parse(dateLayout, asOf)
	if err != nil {
		return nil, fmt.Errorf("stored as_of %q is invalid: %w", asOf, err)
	}

	run.RunID = id
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.CompletedAt = time.Unix(0, completedAt).UTC()
	run.AsOf = day
	if status == entities.RunFailed.String() {
		run.Status = entities.RunFailed
	}
	return &run, nil
}

// GetProjection returns the cached rows for an item ordered by date
func (r *ResultRepository) GetProjection(ctx context.Context, itemID entities.ItemID) ([]entities.ProjectionRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, consumption, incoming, projected, run_id, completed_at
		 FROM projection_rows WHERE item_id = ? ORDER BY date`, string(itemID))
	if err != nil {
		return nil, fmt.Errorf("query projection for %s: %w", itemID, err)
	}
	defer rows.Close()

	result := make([]entities.ProjectionRow, 0)
	for rows.Next() {
		var (
			date, consumption, incoming, projected, runID string
			completedAt                                   int64
		)
		if err := rows.Scan(&date, &consumption, &incoming, &projected, &runID, &completedAt); err != nil {
			return nil, fmt.Errorf("scan projection row for %s: %w", itemID, err)
		}

		row := entities.ProjectionRow{ItemID: itemID, CompletedAt: time.Unix(0, completedAt).UTC()}
		if row.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("stored date %q is invalid: %w", date, err)
		}
		if row.Consumption, err = decimal.NewFromString(consumption); err != nil {
			return nil, fmt.Errorf("stored consumption %q is invalid: %w", consumption, err)
		}
		if row.Incoming, err = decimal.NewFromString(incoming); err != nil {
			return nil, fmt.Errorf("stored incoming %q is invalid: %w", incoming, err)
		}
		if row.Projected, err = decimal.NewFromString(projected); err != nil {
			return nil, fmt.Errorf("stored projected %q is invalid: %w", projected, err)
		}
		if row.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("stored run id %q is invalid: %w", runID, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projection rows for %s: %w", itemID, err)
	}
	return result, nil
}
