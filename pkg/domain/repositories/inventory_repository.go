package repositories

import "github.com/vsinha/mrpcalc/pkg/domain/entities"

// InventoryRepository accepts on-hand balances
type InventoryRepository interface {
	LoadSnapshots(snapshots []*entities.InventorySnapshot) error
}

// ReceiptRepository accepts pending purchase order receipts
type ReceiptRepository interface {
	LoadReceipts(receipts []*entities.IncomingReceipt) error
}
