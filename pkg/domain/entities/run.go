package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunStatus is the outcome of a calculation run
type RunStatus int

const (
	RunSucceeded RunStatus = iota
	RunFailed
)

// String method for RunStatus enum
func (s RunStatus) String() string {
	switch s {
	case RunSucceeded:
		return "succeeded"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunRecord identifies one calculation run and its results
type RunRecord struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	CompletedAt time.Time
	AsOf        time.Time
	HorizonDays int
	ItemCount   int
	Status      RunStatus
}

// NewRunRecord starts a run record with a fresh identifier
func NewRunRecord(startedAt, asOf time.Time, horizonDays int) *RunRecord {
	return &RunRecord{
		RunID:       uuid.New(),
		StartedAt:   startedAt,
		AsOf:        Day(asOf),
		HorizonDays: horizonDays,
	}
}

// Duration returns the wall-clock time the run took
func (r *RunRecord) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ProjectionRow is one (item, date) entry of a stored projection
type ProjectionRow struct {
	ItemID      ItemID
	Date        time.Time
	Consumption decimal.Decimal
	Incoming    decimal.Decimal
	Projected   decimal.Decimal
	RunID       uuid.UUID
	CompletedAt time.Time
}
