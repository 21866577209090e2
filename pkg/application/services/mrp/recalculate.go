package mrp

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/application/dto"
	"github.com/vsinha/mrpcalc/pkg/application/services/shortage"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/events"
)

// ErrNoResultRepository is returned when cached results are requested from an engine without one
var ErrNoResultRepository = errors.New("no result repository configured")

// Recalculate runs a recorded calculation. At most one recalculation is in flight;
// callers queue on the gate until it frees up or ctx is done. Results are saved to the
// result repository, and run, shortage and diagnostic events are published.
func (e *Engine) Recalculate(ctx context.Context, horizonDays int) (*dto.CalculationResult, error) {
	select {
	case e.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for running calculation: %w", ctx.Err())
	}
	defer func() { <-e.gate }()

	start := e.Today()
	horizon := e.horizon(horizonDays)
	run := entities.NewRunRecord(e.config.Clock(), start, horizon)

	logger := e.logger.With(zap.String("run_id", run.RunID.String()))
	logger.Info("recalculation started", zap.Time("as_of", start), zap.Int("horizon_days", horizon))

	result, err := e.calculateAt(ctx, start, horizon)
	if err == nil {
		run.CompletedAt = e.config.Clock()
		run.ItemCount = len(result.Results)
		if e.results != nil {
			if saveErr := e.results.SaveRun(ctx, run, result.SortedResults()); saveErr != nil {
				err = fmt.Errorf("failed to save run %s: %w", run.RunID, saveErr)
			}
		}
	}

	if err != nil {
		run.CompletedAt = e.config.Clock()
		run.Status = entities.RunFailed
		e.recordRun(run)
		e.publish(logger, events.RunStream(run.RunID), events.RunFailedEvent, events.RunFailed{Run: *run, Error: err.Error()}, run)
		logger.Error("recalculation failed", zap.Error(err))
		return nil, err
	}

	run.Status = entities.RunSucceeded
	result.Run = run
	e.recordRun(run)
	e.recordShortages(result)
	e.publishRunEvents(logger, run, result)

	logger.Info("recalculation complete",
		zap.Duration("duration", run.Duration()),
		zap.Int("items", run.ItemCount),
		zap.Int("shortages", result.ShortageCount()),
	)
	return result, nil
}

// CachedProjection returns the stored projection of item from the result repository.
// When no run has been recorded yet a recalculation over the configured horizon runs first.
func (e *Engine) CachedProjection(ctx context.Context, item entities.Item) (*dto.CachedProjection, error) {
	if e.results == nil {
		return nil, ErrNoResultRepository
	}

	recalculated := false
	run, err := e.results.LatestRun(ctx)
	if errors.Is(err, repositories.ErrNoRuns) {
		e.logger.Info("no recorded run, recalculating", zap.String("item_id", string(item.ID)))
		if _, err := e.Recalculate(ctx, 0); err != nil {
			return nil, err
		}
		recalculated = true
		run, err = e.results.LatestRun(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run: %w", err)
	}

	rows, err := e.results.GetProjection(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read projection for %s: %w", item.ID, err)
	}

	return &dto.CachedProjection{
		Item:         item,
		Run:          *run,
		Rows:         rows,
		Recalculated: recalculated,
	}, nil
}

func (e *Engine) recordRun(run *entities.RunRecord) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordRun(run.Status.String(), run.Duration())
}

func (e *Engine) recordShortages(result *dto.CalculationResult) {
	if e.metrics == nil {
		return
	}
	counts := make(map[string]int)
	for urgency, count := range shortage.CountByUrgency(result.Results) {
		counts[urgency.String()] = count
	}
	e.metrics.SetShortages(counts)
}

// publishRunEvents appends the run's diagnostics, shortages and completion to the run stream
func (e *Engine) publishRunEvents(logger *zap.Logger, run *entities.RunRecord, result *dto.CalculationResult) {
	if e.events == nil {
		return
	}
	stream := events.RunStream(run.RunID)

	for _, d := range result.StructuralDiagnostics() {
		e.publish(logger, stream, events.BOMDiagnosticEvent, events.NewBOMDiagnostic(d), run)
	}

	shortages := 0
	for _, r := range result.SortedResults() {
		if !r.HasShortage() {
			continue
		}
		shortages++
		e.publish(logger, stream, events.ShortageIdentifiedEvent, events.NewShortageIdentified(r), run)
	}

	e.publish(logger, stream, events.RunCompletedEvent, events.RunCompleted{
		Run:         *run,
		Shortages:   shortages,
		Diagnostics: len(result.Diagnostics),
	}, run)
}

func (e *Engine) publish(logger *zap.Logger, stream, eventType string, data interface{}, run *entities.RunRecord) {
	if e.events == nil {
		return
	}
	event := events.NewEvent(eventType, stream, data, run.CompletedAt)
	if err := e.events.AppendEvent(stream, event); err != nil {
		logger.Warn("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}
