package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemID represents a unique item identifier
type ItemID string

// ItemKind represents the role an item plays in the bill of materials
type ItemKind int

const (
	FinishedGood ItemKind = iota
	SubAssembly
	Component
	RawMaterial
)

// Default urgency thresholds, in days of inventory
const (
	DefaultCriticalDays = 7
	DefaultWarningDays  = 14
	DefaultCautionDays  = 30
)

// String method for ItemKind enum
func (k ItemKind) String() string {
	switch k {
	case FinishedGood:
		return "FinishedGood"
	case SubAssembly:
		return "SubAssembly"
	case Component:
		return "Component"
	case RawMaterial:
		return "RawMaterial"
	default:
		return "Unknown"
	}
}

// ParseItemKind accepts both the CamelCase names and the snake_case labels used by catalog exports.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "finishedgood":
		return FinishedGood, nil
	case "subassembly":
		return SubAssembly, nil
	case "component":
		return Component, nil
	case "rawmaterial":
		return RawMaterial, nil
	default:
		return Component, fmt.Errorf("invalid item kind: %s (expected: FinishedGood, SubAssembly, Component, or RawMaterial)", s)
	}
}

// UrgencyThresholds holds the ascending day thresholds used to classify shortages
type UrgencyThresholds struct {
	CriticalDays int
	WarningDays  int
	CautionDays  int
}

// DefaultUrgencyThresholds returns the 7/14/30 day defaults
func DefaultUrgencyThresholds() UrgencyThresholds {
	return UrgencyThresholds{
		CriticalDays: DefaultCriticalDays,
		WarningDays:  DefaultWarningDays,
		CautionDays:  DefaultCautionDays,
	}
}

// Valid reports whether the thresholds are non-negative and strictly ascending
func (t UrgencyThresholds) Valid() bool {
	return t.CriticalDays >= 0 && t.CriticalDays < t.WarningDays && t.WarningDays < t.CautionDays
}

// Item represents a catalog item with its planning parameters
type Item struct {
	ID              ItemID
	Name            string
	Kind            ItemKind
	UnitOfMeasure   string
	LeadTimeDays    int
	SafetyStock     decimal.Decimal
	OrderMultiple   decimal.Decimal
	MinimumOrderQty decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQty      decimal.Decimal
	Thresholds      UrgencyThresholds
	Category        string
	Supplier        string
	Active          bool
}

// NewItem creates a validated Item with default lot sizing and urgency thresholds
func NewItem(id ItemID, name string, kind ItemKind, uom string, leadTimeDays int, safetyStock decimal.Decimal) (*Item, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if uom == "" {
		return nil, fmt.Errorf("unit of measure cannot be empty")
	}
	if leadTimeDays < 0 {
		return nil, fmt.Errorf("lead time cannot be negative, got %d", leadTimeDays)
	}
	if safetyStock.IsNegative() {
		return nil, fmt.Errorf("safety stock cannot be negative, got %s", safetyStock)
	}

	return &Item{
		ID:              id,
		Name:            name,
		Kind:            kind,
		UnitOfMeasure:   uom,
		LeadTimeDays:    leadTimeDays,
		SafetyStock:     safetyStock,
		OrderMultiple:   decimal.NewFromInt(1),
		MinimumOrderQty: decimal.Zero,
		ReorderPoint:    decimal.Zero,
		ReorderQty:      decimal.Zero,
		Thresholds:      DefaultUrgencyThresholds(),
		Active:          true,
	}, nil
}

// WithLotSizing sets the supplier order multiple and minimum order quantity
func (i *Item) WithLotSizing(orderMultiple, minimumOrderQty decimal.Decimal) (*Item, error) {
	if orderMultiple.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("order multiple must be at least 1, got %s", orderMultiple)
	}
	if minimumOrderQty.IsNegative() {
		return nil, fmt.Errorf("minimum order quantity cannot be negative, got %s", minimumOrderQty)
	}
	i.OrderMultiple = orderMultiple
	i.MinimumOrderQty = minimumOrderQty
	return i, nil
}

// WithReorder sets the stored reorder point and reorder quantity
func (i *Item) WithReorder(reorderPoint, reorderQty decimal.Decimal) (*Item, error) {
	if reorderPoint.IsNegative() {
		return nil, fmt.Errorf("reorder point cannot be negative, got %s", reorderPoint)
	}
	if reorderQty.IsNegative() {
		return nil, fmt.Errorf("reorder quantity cannot be negative, got %s", reorderQty)
	}
	i.ReorderPoint = reorderPoint
	i.ReorderQty = reorderQty
	return i, nil
}

// WithThresholds sets the urgency thresholds
func (i *Item) WithThresholds(t UrgencyThresholds) (*Item, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("urgency thresholds must ascend (critical < warning < caution), got %d/%d/%d",
			t.CriticalDays, t.WarningDays, t.CautionDays)
	}
	i.Thresholds = t
	return i, nil
}

// Sanitized returns a copy of the item whose planning parameters are clamped to safe floors.
// Each clamp is reported as an InvalidInput diagnostic instead of an error.
func (i Item) Sanitized() (Item, []Diagnostic) {
	var diags []Diagnostic
	flag := func(format string, args ...any) {
		diags = append(diags, Diagnostic{
			Kind:    InvalidInput,
			ItemID:  i.ID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if i.LeadTimeDays < 0 {
		flag("lead time %d clamped to 0", i.LeadTimeDays)
		i.LeadTimeDays = 0
	}
	if i.SafetyStock.IsNegative() {
		flag("safety stock %s clamped to 0", i.SafetyStock)
		i.SafetyStock = decimal.Zero
	}
	if !i.OrderMultiple.IsPositive() {
		flag("order multiple %s clamped to 1", i.OrderMultiple)
		i.OrderMultiple = decimal.NewFromInt(1)
	}
	if i.MinimumOrderQty.IsNegative() {
		flag("minimum order quantity %s clamped to 0", i.MinimumOrderQty)
		i.MinimumOrderQty = decimal.Zero
	}
	if i.ReorderPoint.IsNegative() {
		flag("reorder point %s clamped to 0", i.ReorderPoint)
		i.ReorderPoint = decimal.Zero
	}
	if i.ReorderQty.IsNegative() {
		flag("reorder quantity %s clamped to 0", i.ReorderQty)
		i.ReorderQty = decimal.Zero
	}
	if !i.Thresholds.Valid() {
		flag("urgency thresholds %d/%d/%d reset to defaults",
			i.Thresholds.CriticalDays, i.Thresholds.WarningDays, i.Thresholds.CautionDays)
		i.Thresholds = DefaultUrgencyThresholds()
	}

	return i, diags
}
