package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// ErrNoRuns is returned by LatestRun before any run has been saved
var ErrNoRuns = errors.New("no calculation runs recorded")

// ResultRepository caches projection rows keyed by (item, date).
// SaveRun must only overwrite a row when the incoming run completed at or after the stored one.
type ResultRepository interface {
	SaveRun(ctx context.Context, run *entities.RunRecord, results []*entities.ProjectionResult) error
	LatestRun(ctx context.Context) (*entities.RunRecord, error)
	GetProjection(ctx context.Context, itemID entities.ItemID) ([]entities.ProjectionRow, error)
}
