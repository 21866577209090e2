package repositories

import "github.com/vsinha/mrpcalc/pkg/domain/entities"

// DemandRepository accepts weekly goals, shipment history and directly supplied daily demand
type DemandRepository interface {
	LoadWeeklyGoals(goals []*entities.WeeklyGoal) error
	LoadShipments(shipments []*entities.ShipmentRecord) error
	LoadDailyDemand(demand []*entities.DailyDemand) error
}
