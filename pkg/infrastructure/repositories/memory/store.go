package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

// Store holds every planning input behind a single lock so that a calculation
// run can take a consistent snapshot while writers keep loading data.
type Store struct {
	mu sync.RWMutex

	items    []entities.Item
	itemsMap map[entities.ItemID]int

	edges []entities.BOMEdge

	inventory map[entities.ItemID]entities.InventorySnapshot
	receipts  map[entities.ItemID][]entities.IncomingReceipt

	goals     []entities.WeeklyGoal
	shipments []entities.ShipmentRecord
	daily     []entities.DailyDemand

	now func() time.Time
}

// NewStore creates an empty store sized for the expected catalog
func NewStore(expectedItems, expectedEdges int) *Store {
	return &Store{
		items:     make([]entities.Item, 0, expectedItems),
		itemsMap:  make(map[entities.ItemID]int, expectedItems),
		edges:     make([]entities.BOMEdge, 0, expectedEdges),
		inventory: make(map[entities.ItemID]entities.InventorySnapshot, expectedItems),
		receipts:  make(map[entities.ItemID][]entities.IncomingReceipt),
		now:       time.Now,
	}
}

// Verify interface compliance
var _ repositories.SnapshotProvider = (*Store)(nil)

// Items returns the item repository view of the store
func (s *Store) Items() *ItemRepository { return &ItemRepository{store: s} }

// BOM returns the BOM repository view of the store
func (s *Store) BOM() *BOMRepository { return &BOMRepository{store: s} }

// Inventory returns the inventory repository view of the store
func (s *Store) Inventory() *InventoryRepository { return &InventoryRepository{store: s} }

// Receipts returns the pending receipt repository view of the store
func (s *Store) Receipts() *ReceiptRepository { return &ReceiptRepository{store: s} }

// Demand returns the demand repository view of the store
func (s *Store) Demand() *DemandRepository { return &DemandRepository{store: s} }

// Snapshot copies every input under one read lock. The view helpers it calls expect the lock held.
func (s *Store) Snapshot(ctx context.Context) (*repositories.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	demand := s.Demand()
	return &repositories.Snapshot{
		Items:       s.Items().all(),
		Edges:       s.BOM().all(),
		Inventory:   s.Inventory().balances(),
		WeeklyGoals: demand.goals(),
		Shipments:   demand.shipments(),
		DailyDemand: demand.daily(),
		Receipts:    s.Receipts().pending(),
		TakenAt:     s.now(),
	}, nil
}
