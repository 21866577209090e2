package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/memory"
)

const dateLayout = "2006-01-02"

// Scenario file names
const (
	ItemsFile          = "items.csv"
	BOMFile            = "bom.csv"
	InventoryFile      = "inventory.csv"
	WeeklyGoalsFile    = "weekly_goals.csv"
	ShipmentsFile      = "shipments.csv"
	DailyDemandFile    = "daily_demand.csv"
	PurchaseOrdersFile = "purchase_orders.csv"
)

// Expected headers, in column order
var (
	ItemsHeader = []string{
		"id", "name", "kind", "uom", "lead_time_days", "safety_stock",
		"order_multiple", "minimum_order_qty", "reorder_point", "reorder_qty",
		"critical_days", "warning_days", "caution_days", "category", "supplier", "active",
	}
	BOMHeader            = []string{"parent_id", "component_id", "quantity_per"}
	InventoryHeader      = []string{"item_id", "on_hand", "allocated"}
	WeeklyGoalsHeader    = []string{"item_id", "week_start", "goal"}
	ShipmentsHeader      = []string{"item_id", "date", "quantity"}
	DailyDemandHeader    = []string{"item_id", "date", "quantity"}
	PurchaseOrdersHeader = []string{"po_number", "item_id", "order_date", "expected_date", "quantity", "status", "supplier"}
)

// Loader handles loading MRP data from CSV files
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadScenario reads a scenario directory into a fresh memory store.
// items.csv and bom.csv are required, every other file is optional.
func (l *Loader) LoadScenario(dir string) (*memory.Store, error) {
	items, err := l.LoadItems(filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, err
	}
	edges, err := l.LoadBOM(filepath.Join(dir, BOMFile))
	if err != nil {
		return nil, err
	}

	store := memory.NewStore(len(items), len(edges))
	if err := store.Items().LoadItems(items); err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if err := store.BOM().LoadBOMEdges(edges); err != nil {
		return nil, fmt.Errorf("failed to load BOM: %w", err)
	}

	inventory, err := optional(l.LoadInventory, filepath.Join(dir, InventoryFile))
	if err != nil {
		return nil, err
	}
	if err := store.Inventory().LoadSnapshots(inventory); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	goals, err := optional(l.LoadWeeklyGoals, filepath.Join(dir, WeeklyGoalsFile))
	if err != nil {
		return nil, err
	}
	if err := store.Demand().LoadWeeklyGoals(goals); err != nil {
		return nil, fmt.Errorf("failed to load weekly goals: %w", err)
	}

	shipments, err := optional(l.LoadShipments, filepath.Join(dir, ShipmentsFile))
	if err != nil {
		return nil, err
	}
	if err := store.Demand().LoadShipments(shipments); err != nil {
		return nil, fmt.Errorf("failed to load shipments: %w", err)
	}

	daily, err := optional(l.LoadDailyDemand, filepath.Join(dir, DailyDemandFile))
	if err != nil {
		return nil, err
	}
	if err := store.Demand().LoadDailyDemand(daily); err != nil {
		return nil, fmt.Errorf("failed to load daily demand: %w", err)
	}

	receipts, err := optional(l.LoadPurchaseOrders, filepath.Join(dir, PurchaseOrdersFile))
	if err != nil {
		return nil, err
	}
	if err := store.Receipts().LoadReceipts(receipts); err != nil {
		return nil, fmt.Errorf("failed to load purchase orders: %w", err)
	}

	l.logger.Info("scenario loaded",
		zap.String("dir", dir),
		zap.Int("items", len(items)),
		zap.Int("bom_edges", len(edges)),
		zap.Int("inventory", len(inventory)),
		zap.Int("weekly_goals", len(goals)),
		zap.Int("shipments", len(shipments)),
		zap.Int("daily_demand", len(daily)),
		zap.Int("pending_receipts", len(receipts)),
	)

	return store, nil
}

// optional treats a missing file as empty
func optional[T any](load func(string) ([]T, error), filename string) ([]T, error) {
	rows, err := load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// LoadItems loads the item catalog. Planning parameters are taken as written;
// out-of-range values are clamped later during sanitization.
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readRecords(filename, "items", ItemsHeader)
	if err != nil {
		return nil, err
	}

	var items []*entities.Item
	for i, record := range records {
		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadBOM loads BOM edges
func (l *Loader) LoadBOM(filename string) ([]*entities.BOMEdge, error) {
	records, err := readRecords(filename, "BOM", BOMHeader)
	if err != nil {
		return nil, err
	}

	var edges []*entities.BOMEdge
	for i, record := range records {
		parent, err := parseID(record[0])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		component, err := parseID(record[1])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		qty, err := parseDecimal("quantity_per", record[2])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		// self edges and negative quantities load as-is; planning reports them
		edges = append(edges, &entities.BOMEdge{ParentID: parent, ComponentID: component, QuantityPer: qty})
	}

	return edges, nil
}

// LoadInventory loads on-hand balances
func (l *Loader) LoadInventory(filename string) ([]*entities.InventorySnapshot, error) {
	records, err := readRecords(filename, "inventory", InventoryHeader)
	if err != nil {
		return nil, err
	}

	var snapshots []*entities.InventorySnapshot
	for i, record := range records {
		id, err := parseID(record[0])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		onHand, err := parseDecimal("on_hand", record[1])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		allocated, err := parseOptionalDecimal("allocated", record[2], decimal.Zero)
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		snapshots = append(snapshots, &entities.InventorySnapshot{ItemID: id, OnHand: onHand, Allocated: allocated})
	}

	return snapshots, nil
}

// LoadWeeklyGoals loads finished-good weekly shipment goals
func (l *Loader) LoadWeeklyGoals(filename string) ([]*entities.WeeklyGoal, error) {
	records, err := readRecords(filename, "weekly goals", WeeklyGoalsHeader)
	if err != nil {
		return nil, err
	}

	var goals []*entities.WeeklyGoal
	for i, record := range records {
		weekStart, err := parseDate("week_start", record[1])
		if err != nil {
			return nil, fmt.Errorf("weekly goals CSV row %d: %w", i+2, err)
		}
		qty, err := parseDecimal("goal", record[2])
		if err != nil {
			return nil, fmt.Errorf("weekly goals CSV row %d: %w", i+2, err)
		}
		goal, err := entities.NewWeeklyGoal(entities.ItemID(strings.TrimSpace(record[0])), weekStart, qty)
		if err != nil {
			return nil, fmt.Errorf("weekly goals CSV row %d: %w", i+2, err)
		}
		goals = append(goals, goal)
	}

	return goals, nil
}

// LoadShipments loads shipped quantities per finished good and day
func (l *Loader) LoadShipments(filename string) ([]*entities.ShipmentRecord, error) {
	records, err := readRecords(filename, "shipments", ShipmentsHeader)
	if err != nil {
		return nil, err
	}

	var shipments []*entities.ShipmentRecord
	for i, record := range records {
		id, date, qty, err := parseDatedQuantity(record)
		if err != nil {
			return nil, fmt.Errorf("shipments CSV row %d: %w", i+2, err)
		}
		shipments = append(shipments, &entities.ShipmentRecord{ItemID: id, Date: date, Quantity: qty})
	}

	return shipments, nil
}

// LoadDailyDemand loads directly supplied per-day demand
func (l *Loader) LoadDailyDemand(filename string) ([]*entities.DailyDemand, error) {
	records, err := readRecords(filename, "daily demand", DailyDemandHeader)
	if err != nil {
		return nil, err
	}

	var demand []*entities.DailyDemand
	for i, record := range records {
		id, date, qty, err := parseDatedQuantity(record)
		if err != nil {
			return nil, fmt.Errorf("daily demand CSV row %d: %w", i+2, err)
		}
		demand = append(demand, &entities.DailyDemand{ItemID: id, Date: date, Quantity: qty})
	}

	return demand, nil
}

// LoadPurchaseOrders loads open purchase orders as incoming receipts.
// Received and cancelled orders are skipped.
func (l *Loader) LoadPurchaseOrders(filename string) ([]*entities.IncomingReceipt, error) {
	records, err := readRecords(filename, "purchase orders", PurchaseOrdersHeader)
	if err != nil {
		return nil, err
	}

	var receipts []*entities.IncomingReceipt
	skipped := 0
	for i, record := range records {
		status, err := parsePurchaseOrderStatus(record[5])
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		if status != entities.Pending {
			skipped++
			continue
		}

		expected, err := parseDate("expected_date", record[3])
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		qty, err := parseDecimal("quantity", record[4])
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		receipt, err := entities.NewIncomingReceipt(entities.ItemID(strings.TrimSpace(record[1])), strings.TrimSpace(record[0]), expected, qty)
		if err != nil {
			return nil, fmt.Errorf("purchase orders CSV row %d: %w", i+2, err)
		}
		receipt.Supplier = strings.TrimSpace(record[6])
		receipts = append(receipts, receipt)
	}

	if skipped > 0 {
		l.logger.Debug("skipped closed purchase orders", zap.String("file", filename), zap.Int("count", skipped))
	}
	return receipts, nil
}

// Helper functions for parsing CSV records

// readRecords opens filename, checks the header and returns the data rows
func readRecords(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
	}

	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (*entities.Item, error) {
	kind, err := entities.ParseItemKind(record[2])
	if err != nil {
		return nil, err
	}

	item, err := entities.NewItem(entities.ItemID(strings.TrimSpace(record[0])), strings.TrimSpace(record[1]), kind, strings.TrimSpace(record[3]), 0, decimal.Zero)
	if err != nil {
		return nil, err
	}

	if item.LeadTimeDays, err = parseInt("lead_time_days", record[4]); err != nil {
		return nil, err
	}
	if item.SafetyStock, err = parseOptionalDecimal("safety_stock", record[5], decimal.Zero); err != nil {
		return nil, err
	}
	if item.OrderMultiple, err = parseOptionalDecimal("order_multiple", record[6], decimal.NewFromInt(1)); err != nil {
		return nil, err
	}
	if item.MinimumOrderQty, err = parseOptionalDecimal("minimum_order_qty", record[7], decimal.Zero); err != nil {
		return nil, err
	}
	if item.ReorderPoint, err = parseOptionalDecimal("reorder_point", record[8], decimal.Zero); err != nil {
		return nil, err
	}
	if item.ReorderQty, err = parseOptionalDecimal("reorder_qty", record[9], decimal.Zero); err != nil {
		return nil, err
	}

	defaults := entities.DefaultUrgencyThresholds()
	if item.Thresholds.CriticalDays, err = parseOptionalInt("critical_days", record[10], defaults.CriticalDays); err != nil {
		return nil, err
	}
	if item.Thresholds.WarningDays, err = parseOptionalInt("warning_days", record[11], defaults.WarningDays); err != nil {
		return nil, err
	}
	if item.Thresholds.CautionDays, err = parseOptionalInt("caution_days", record[12], defaults.CautionDays); err != nil {
		return nil, err
	}

	item.Category = strings.TrimSpace(record[13])
	item.Supplier = strings.TrimSpace(record[14])

	if active := strings.TrimSpace(record[15]); active != "" {
		if item.Active, err = strconv.ParseBool(active); err != nil {
			return nil, fmt.Errorf("invalid active: %s", record[15])
		}
	}

	return item, nil
}

func parseDatedQuantity(record []string) (entities.ItemID, time.Time, decimal.Decimal, error) {
	id, err := parseID(record[0])
	if err != nil {
		return "", time.Time{}, decimal.Zero, err
	}
	date, err := parseDate("date", record[1])
	if err != nil {
		return "", time.Time{}, decimal.Zero, err
	}
	qty, err := parseDecimal("quantity", record[2])
	if err != nil {
		return "", time.Time{}, decimal.Zero, err
	}
	return id, date, qty, nil
}

func parseID(s string) (entities.ItemID, error) {
	id := strings.TrimSpace(s)
	if id == "" {
		return "", fmt.Errorf("item id cannot be empty")
	}
	return entities.ItemID(id), nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return v, nil
}

func parseOptionalInt(field, s string, fallback int) (int, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return parseInt(field, s)
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	return v, nil
}

func parseOptionalDecimal(field, s string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return parseDecimal(field, s)
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %s (expected YYYY-MM-DD)", field, s)
	}
	return t, nil
}

func parsePurchaseOrderStatus(s string) (entities.PurchaseOrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return entities.Pending, nil
	case "received":
		return entities.Received, nil
	case "cancelled", "canceled":
		return entities.Cancelled, nil
	default:
		return entities.Pending, fmt.Errorf("invalid status: %s (expected: pending, received, or cancelled)", s)
	}
}
