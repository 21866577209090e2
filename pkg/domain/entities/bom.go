package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BOMEdge represents a single parent -> component line in the Bill of Materials
type BOMEdge struct {
	ParentID    ItemID
	ComponentID ItemID
	QuantityPer decimal.Decimal
}

// NewBOMEdge creates a validated BOMEdge
func NewBOMEdge(parentID, componentID ItemID, quantityPer decimal.Decimal) (*BOMEdge, error) {
	if string(parentID) == "" {
		return nil, fmt.Errorf("parent item id cannot be empty")
	}
	if string(componentID) == "" {
		return nil, fmt.Errorf("component item id cannot be empty")
	}
	if parentID == componentID {
		return nil, fmt.Errorf("parent and component cannot be the same: %s", parentID)
	}
	if quantityPer.IsNegative() {
		return nil, fmt.Errorf("quantity per cannot be negative, got %s", quantityPer)
	}

	return &BOMEdge{
		ParentID:    parentID,
		ComponentID: componentID,
		QuantityPer: quantityPer,
	}, nil
}

// Key returns the (parent, component) pair that must be unique across the edge set
func (e BOMEdge) Key() string {
	return string(e.ParentID) + "|" + string(e.ComponentID)
}

// Sanitized clamps a negative quantity per to zero and reports it as InvalidInput
func (e BOMEdge) Sanitized() (BOMEdge, []Diagnostic) {
	if !e.QuantityPer.IsNegative() {
		return e, nil
	}
	clean := e
	clean.QuantityPer = decimal.Zero
	return clean, []Diagnostic{{
		Kind:    InvalidInput,
		ItemID:  e.ComponentID,
		Path:    []ItemID{e.ParentID, e.ComponentID},
		Message: fmt.Sprintf("quantity per %s on %s -> %s clamped to 0", e.QuantityPer, e.ParentID, e.ComponentID),
	}}
}
