package memory

import (
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

// DemandRepository provides in-memory weekly goals, shipment history and daily demand
type DemandRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// LoadWeeklyGoals stores goals; a later goal for the same item and week replaces the earlier one
func (r *DemandRepository) LoadWeeklyGoals(goals []*entities.WeeklyGoal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, goal := range goals {
		replaced := false
		for i := range r.store.goals {
			existing := &r.store.goals[i]
			if existing.ItemID == goal.ItemID && existing.WeekStart.Equal(goal.WeekStart) {
				*existing = *goal
				replaced = true
				break
			}
		}
		if !replaced {
			r.store.goals = append(r.store.goals, *goal)
		}
	}
	return nil
}

// LoadShipments appends shipment records
func (r *DemandRepository) LoadShipments(shipments []*entities.ShipmentRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, shipment := range shipments {
		r.store.shipments = append(r.store.shipments, *shipment)
	}
	return nil
}

// LoadDailyDemand appends directly supplied daily demand
func (r *DemandRepository) LoadDailyDemand(demand []*entities.DailyDemand) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, d := range demand {
		r.store.daily = append(r.store.daily, *d)
	}
	return nil
}

func (r *DemandRepository) goals() []entities.WeeklyGoal {
	return append([]entities.WeeklyGoal(nil), r.store.goals...)
}

func (r *DemandRepository) shipments() []entities.ShipmentRecord {
	return append([]entities.ShipmentRecord(nil), r.store.shipments...)
}

func (r *DemandRepository) daily() []entities.DailyDemand {
	return append([]entities.DailyDemand(nil), r.store.daily...)
}
