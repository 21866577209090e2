package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

const (
	RunCompletedEvent       = "mrp.run.completed"
	RunFailedEvent          = "mrp.run.failed"
	ShortageIdentifiedEvent = "shortage.identified"
	BOMDiagnosticEvent      = "bom.diagnostic"
)

// RunStream names the stream holding every event of one run
func RunStream(runID uuid.UUID) string {
	return "run-" + runID.String()
}

type RunCompleted struct {
	Run         entities.RunRecord `json:"run"`
	Shortages   int                `json:"shortages"`
	Diagnostics int                `json:"diagnostics"`
}

type RunFailed struct {
	Run   entities.RunRecord `json:"run"`
	Error string             `json:"error"`
}

type ShortageIdentified struct {
	ItemID              entities.ItemID `json:"item_id"`
	ShortageDate        time.Time       `json:"shortage_date"`
	OrderByDate         time.Time       `json:"order_by_date"`
	Urgency             string          `json:"urgency"`
	RecommendedOrderQty decimal.Decimal `json:"recommended_order_qty"`
}

type BOMDiagnostic struct {
	Kind    string            `json:"kind"`
	ItemID  entities.ItemID   `json:"item_id"`
	Path    []entities.ItemID `json:"path,omitempty"`
	Message string            `json:"message"`
}

// NewShortageIdentified converts a projection with a shortage into an event payload
func NewShortageIdentified(result *entities.ProjectionResult) ShortageIdentified {
	payload := ShortageIdentified{
		ItemID:              result.ItemID,
		Urgency:             result.Urgency.String(),
		RecommendedOrderQty: result.RecommendedOrderQty,
	}
	if result.ShortageDate != nil {
		payload.ShortageDate = *result.ShortageDate
	}
	if result.OrderByDate != nil {
		payload.OrderByDate = *result.OrderByDate
	}
	return payload
}

// NewBOMDiagnostic converts a diagnostic into an event payload
func NewBOMDiagnostic(d entities.Diagnostic) BOMDiagnostic {
	return BOMDiagnostic{
		Kind:    d.Kind.String(),
		ItemID:  d.ItemID,
		Path:    append([]entities.ItemID(nil), d.Path...),
		Message: d.Message,
	}
}
