package services

import "github.com/vsinha/mrpcalc/pkg/domain/entities"

// ClassifyUrgency maps days of inventory onto the item's thresholds.
// Items without a shortage in the horizon are always Normal.
func ClassifyUrgency(daysOfInventory int, hasShortage bool, thresholds entities.UrgencyThresholds) entities.Urgency {
	if !hasShortage {
		return entities.Normal
	}
	switch {
	case daysOfInventory <= thresholds.CriticalDays:
		return entities.Critical
	case daysOfInventory <= thresholds.WarningDays:
		return entities.Warning
	case daysOfInventory <= thresholds.CautionDays:
		return entities.Caution
	default:
		return entities.Normal
	}
}
