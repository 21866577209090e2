package services

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

var daysPerWeek = decimal.NewFromInt(7)

// ReorderPoint returns averageWeeklyUsage x (leadTimeDays / 7) + safetyStock.
// Negative lead times and safety stock are treated as zero.
func ReorderPoint(item entities.Item, averageWeeklyUsage decimal.Decimal) decimal.Decimal {
	leadTime := item.LeadTimeDays
	if leadTime < 0 {
		leadTime = 0
	}
	safety := item.SafetyStock
	if safety.IsNegative() {
		safety = decimal.Zero
	}

	// multiply before dividing so whole-week lead times stay exact
	leadTimeUsage := averageWeeklyUsage.Mul(decimal.NewFromInt(int64(leadTime))).Div(daysPerWeek)
	return leadTimeUsage.Add(safety)
}

// AverageWeeklyUsage averages the given weekly periods.
// With no periods the average is zero and a DegenerateAverage diagnostic is returned.
func AverageWeeklyUsage(itemID entities.ItemID, periods []decimal.Decimal) (decimal.Decimal, *entities.Diagnostic) {
	if len(periods) == 0 {
		return decimal.Zero, &entities.Diagnostic{
			Kind:    entities.DegenerateAverage,
			ItemID:  itemID,
			Message: "no usage history; average weekly usage treated as 0",
		}
	}

	total := decimal.Zero
	for _, p := range periods {
		total = total.Add(p)
	}
	return total.Div(decimal.NewFromInt(int64(len(periods)))), nil
}
