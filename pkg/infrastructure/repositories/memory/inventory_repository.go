package memory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

// InventoryRepository provides in-memory on-hand balances
type InventoryRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)

// LoadSnapshots loads balances, replacing any existing balance for the same item
func (r *InventoryRepository) LoadSnapshots(snapshots []*entities.InventorySnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, snap := range snapshots {
		r.store.inventory[snap.ItemID] = *snap
	}
	return nil
}

// SetOnHand sets the on-hand balance of an item
func (r *InventoryRepository) SetOnHand(id entities.ItemID, onHand decimal.Decimal) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.inventory[id]
	snap.ItemID = id
	snap.OnHand = onHand
	r.store.inventory[id] = snap
}

func (r *InventoryRepository) balances() map[entities.ItemID]entities.InventorySnapshot {
	all := make(map[entities.ItemID]entities.InventorySnapshot, len(r.store.inventory))
	for id, snap := range r.store.inventory {
		all[id] = snap
	}
	return all
}

// ReceiptRepository provides in-memory pending purchase order receipts
type ReceiptRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)

// LoadReceipts appends receipts, keeping each item's list ordered by expected date
func (r *ReceiptRepository) LoadReceipts(receipts []*entities.IncomingReceipt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	touched := make(map[entities.ItemID]bool)
	for _, receipt := range receipts {
		r.store.receipts[receipt.ItemID] = append(r.store.receipts[receipt.ItemID], *receipt)
		touched[receipt.ItemID] = true
	}
	for id := range touched {
		list := r.store.receipts[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].ExpectedDate.Before(list[j].ExpectedDate) })
	}
	return nil
}

func (r *ReceiptRepository) pending() map[entities.ItemID][]entities.IncomingReceipt {
	all := make(map[entities.ItemID][]entities.IncomingReceipt, len(r.store.receipts))
	for id, list := range r.store.receipts {
		all[id] = append([]entities.IncomingReceipt(nil), list...)
	}
	return all
}
