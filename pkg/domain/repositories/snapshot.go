package repositories

import (
	"context"
	"time"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// Snapshot is a consistent copy of every input a calculation run reads
type Snapshot struct {
	Items       []entities.Item
	Edges       []entities.BOMEdge
	Inventory   map[entities.ItemID]entities.InventorySnapshot
	WeeklyGoals []entities.WeeklyGoal
	Shipments   []entities.ShipmentRecord
	DailyDemand []entities.DailyDemand
	Receipts    map[entities.ItemID][]entities.IncomingReceipt
	TakenAt     time.Time
}

// SnapshotProvider captures all planning inputs under one read
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
