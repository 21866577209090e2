package testing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LampScenarioStart is the Monday the lamp scenario's goals begin on
var LampScenarioStart = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// WriteCSV writes header and rows to dir/name
func WriteCSV(dir, name string, header []string, rows [][]string) error {
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return file.Close()
}

func date(days int) string {
	return LampScenarioStart.AddDate(0, 0, days).Format("2006-01-02")
}

// WriteLampScenario writes the two-lamp scenario as a CSV scenario directory.
//
//	LAMP_STD: BASE_ASSY x1, SHADE x1, BULB x1
//	LAMP_PRO: BASE_ASSY x1, SHADE x1, BULB x2, SCREW x2
//	BASE_ASSY: SCREW x4, STEEL x2
//
// Both lamps carry a 500 weekly goal for six weeks, BULB has one pending
// and one received purchase order, and LAMP_STD shipped 80 on the first Monday.
func WriteLampScenario(dir string) error {
	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{
			name: "items.csv",
			header: []string{
				"id", "name", "kind", "uom", "lead_time_days", "safety_stock",
				"order_multiple", "minimum_order_qty", "reorder_point", "reorder_qty",
				"critical_days", "warning_days", "caution_days", "category", "supplier", "active",
			},
			rows: [][]string{
				{"LAMP_STD", "Standard Lamp", "finished_good", "EA", "0", "0", "", "", "", "", "", "", "", "Lamps", "", "true"},
				{"LAMP_PRO", "Pro Lamp", "finished_good", "EA", "0", "0", "", "", "", "", "", "", "", "Lamps", "", "true"},
				{"BASE_ASSY", "Base Assembly", "sub_assembly", "EA", "3", "0", "", "", "", "", "", "", "", "Assemblies", "", ""},
				{"SHADE", "Lamp Shade", "component", "EA", "10", "50", "", "", "", "", "", "", "", "Shades", "Shadeworks", ""},
				{"BULB", "LED Bulb", "component", "EA", "5", "0", "", "", "600", "2000", "", "", "", "Electrical", "Brightco", ""},
				{"SCREW", "M4 Screw", "component", "EA", "14", "500", "1000", "5000", "", "", "", "", "", "Hardware", "Fastenall", ""},
				{"STEEL", "Steel Sheet", "raw_material", "KG", "21", "0", "", "", "", "", "", "", "", "Raw", "", ""},
			},
		},
		{
			name:   "bom.csv",
			header: []string{"parent_id", "component_id", "quantity_per"},
			rows: [][]string{
				{"LAMP_STD", "BASE_ASSY", "1"},
				{"LAMP_STD", "SHADE", "1"},
				{"LAMP_STD", "BULB", "1"},
				{"LAMP_PRO", "BASE_ASSY", "1"},
				{"LAMP_PRO", "SHADE", "1"},
				{"LAMP_PRO", "BULB", "2"},
				{"LAMP_PRO", "SCREW", "2"},
				{"BASE_ASSY", "SCREW", "4"},
				{"BASE_ASSY", "STEEL", "2"},
			},
		},
		{
			name:   "inventory.csv",
			header: []string{"item_id", "on_hand", "allocated"},
			rows: [][]string{
				{"BASE_ASSY", "10000", "0"},
				{"SHADE", "5000", "0"},
				{"BULB", "900", ""},
				{"SCREW", "3000", "0"},
				{"STEEL", "100000", "0"},
			},
		},
		{
			name:   "shipments.csv",
			header: []string{"item_id", "date", "quantity"},
			rows:   [][]string{{"LAMP_STD", date(0), "80"}},
		},
		{
			name:   "purchase_orders.csv",
			header: []string{"po_number", "item_id", "order_date", "expected_date", "quantity", "status", "supplier"},
			rows: [][]string{
				{"PO-100", "BULB", date(-5), date(2), "1000", "pending", "Brightco"},
				{"PO-099", "BULB", date(-20), date(-6), "4000", "received", "Brightco"},
			},
		},
	}

	goals := make([][]string, 0, 12)
	for week := 0; week < 6; week++ {
		goals = append(goals,
			[]string{"LAMP_STD", date(7 * week), "500"},
			[]string{"LAMP_PRO", date(7 * week), "500"},
		)
	}

	for _, f := range files {
		if err := WriteCSV(dir, f.name, f.header, f.rows); err != nil {
			return err
		}
	}
	return WriteCSV(dir, "weekly_goals.csv", []string{"item_id", "week_start", "goal"}, goals)
}
