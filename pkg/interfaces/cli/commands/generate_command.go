package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/logging"
	csvrepo "github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/csv"
)

const dateLayout = "2006-01-02"

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Items     int       // Total number of items to generate
	MaxDepth  int       // Maximum depth of BOM tree
	Products  int       // Number of finished goods carrying weekly goals
	Weeks     int       // Number of weeks of goals to generate
	Inventory float64   // Weeks of usage held on hand (e.g., 0.5 = half a week, 4.0 = four weeks)
	Start     time.Time // First goal week; defaults to the current week
	OutputDir string    // Output directory for generated files
	Seed      int64     // Random seed for reproducible generation
}

// GenerateCommand writes a random but structurally valid scenario directory
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	logger *zap.Logger
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	if config.Weeks <= 0 {
		config.Weeks = 6
	}
	if config.Products <= 0 {
		config.Products = 1
	}
	if config.Start.IsZero() {
		config.Start = time.Now()
	}
	config.Start = entities.WeekStart(config.Start)

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(config.Seed)),
		logger: zap.NewNop(),
	}
}

// BOMNode represents a node in the generated BOM tree
type BOMNode struct {
	ID       string
	Level    int
	Children []BOMLink
	Parents  []*BOMNode
	IsRoot   bool
	IsShared bool
}

// BOMLink is one parent to child edge of the generated tree
type BOMLink struct {
	Child  *BOMNode
	QtyPer int
}

// generatedScenario keeps nodes in creation order so a seed reproduces the same files
type generatedScenario struct {
	nodes []*BOMNode
	roots []*BOMNode
	goals map[string]int
	usage map[string]int
}

// Execute runs the generate command, logging through the logger carried by ctx
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	cmd.logger = logging.FromContext(ctx)
	if err := cmd.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	cmd.logger.Info("generating scenario",
		zap.Int("items", cmd.config.Items),
		zap.Int("max_depth", cmd.config.MaxDepth),
		zap.Int("products", cmd.config.Products),
		zap.Float64("inventory_weeks", cmd.config.Inventory),
		zap.Int64("seed", cmd.config.Seed),
		zap.String("output", cmd.config.OutputDir),
	)

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	scenario := cmd.generateBOMTree()
	scenario.goals = make(map[string]int, len(scenario.roots))
	for _, root := range scenario.roots {
		scenario.goals[root.ID] = 10 * (5 + cmd.rand.Intn(46))
	}
	scenario.usage = weeklyUsage(scenario)

	steps := []struct {
		name     string
		generate func(*generatedScenario) error
	}{
		{csvrepo.ItemsFile, cmd.generateItems},
		{csvrepo.BOMFile, cmd.generateBOM},
		{csvrepo.WeeklyGoalsFile, cmd.generateGoals},
		{csvrepo.InventoryFile, cmd.generateInventory},
		{csvrepo.PurchaseOrdersFile, cmd.generatePurchaseOrders},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.generate(scenario); err != nil {
			return fmt.Errorf("failed to generate %s: %w", step.name, err)
		}
		cmd.logger.Debug("file generated", zap.String("file", step.name))
	}

	cmd.logger.Info("scenario generated", zap.Int("items", len(scenario.nodes)), zap.String("output", cmd.config.OutputDir))
	return nil
}

func (cmd *GenerateCommand) validateInputs() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("--output directory is required")
	case cmd.config.Items < 1:
		return fmt.Errorf("--items must be at least 1, got %d", cmd.config.Items)
	case cmd.config.MaxDepth < 1:
		return fmt.Errorf("--max-depth must be at least 1, got %d", cmd.config.MaxDepth)
	case cmd.config.Products > cmd.config.Items:
		return fmt.Errorf("--products (%d) cannot exceed --items (%d)", cmd.config.Products, cmd.config.Items)
	case cmd.config.Inventory < 0:
		return fmt.Errorf("--inventory cannot be negative, got %g", cmd.config.Inventory)
	}
	return nil
}

// generateBOMTree creates a BOM tree with shared components
func (cmd *GenerateCommand) generateBOMTree() *generatedScenario {
	scenario := &generatedScenario{}

	for i := 0; i < cmd.config.Products; i++ {
		node := &BOMNode{ID: fmt.Sprintf("FG_%03d", i+1), IsRoot: true}
		scenario.nodes = append(scenario.nodes, node)
		scenario.roots = append(scenario.roots, node)
	}

	itemsGenerated := len(scenario.roots)
	currentLevel := scenario.roots
	level := 0

	for level < cmd.config.MaxDepth && itemsGenerated < cmd.config.Items {
		level++
		var nextLevel []*BOMNode

		for _, parent := range currentLevel {
			// Each parent gets 2-8 children
			numChildren := 2 + cmd.rand.Intn(7)

			for child := 0; child < numChildren && itemsGenerated < cmd.config.Items; child++ {
				// 20% chance to reuse an existing part
				var childNode *BOMNode
				if level > 1 && cmd.rand.Float64() < 0.2 {
					candidates := cmd.findShareableParts(scenario.nodes, level, parent)
					if len(candidates) > 0 {
						childNode = candidates[cmd.rand.Intn(len(candidates))]
						childNode.IsShared = true
					}
				}

				if childNode == nil {
					childNode = &BOMNode{ID: fmt.Sprintf("PART_L%d_%04d", level, itemsGenerated), Level: level}
					scenario.nodes = append(scenario.nodes, childNode)
					nextLevel = append(nextLevel, childNode)
					itemsGenerated++
				}

				// Higher quantities for lower levels
				qtyPer := 1 + cmd.rand.Intn(5)
				if level > 2 {
					qtyPer += cmd.rand.Intn(5)
				}
				link(parent, childNode, qtyPer)
			}
		}

		if len(nextLevel) == 0 {
			break
		}
		currentLevel = nextLevel
	}

	// Fill remaining items as leaf components
	for itemsGenerated < cmd.config.Items {
		node := &BOMNode{ID: fmt.Sprintf("COMPONENT_%04d", itemsGenerated), Level: level + 1}
		scenario.nodes = append(scenario.nodes, node)
		parent := currentLevel[cmd.rand.Intn(len(currentLevel))]
		link(parent, node, 1+cmd.rand.Intn(10))
		itemsGenerated++
	}

	return scenario
}

func link(parent, child *BOMNode, qtyPer int) {
	parent.Children = append(parent.Children, BOMLink{Child: child, QtyPer: qtyPer})
	child.Parents = append(child.Parents, parent)
}

// findShareableParts finds existing parts that can be shared without creating a cycle or a repeated edge
func (cmd *GenerateCommand) findShareableParts(nodes []*BOMNode, maxLevel int, parent *BOMNode) []*BOMNode {
	var candidates []*BOMNode
	for _, node := range nodes {
		if node.IsRoot || node == parent || node.Level < maxLevel-1 || len(node.Parents) >= 3 {
			continue
		}
		if hasChild(parent, node) || cmd.isAncestor(node, parent) {
			continue
		}
		candidates = append(candidates, node)
	}
	return candidates
}

func hasChild(parent, child *BOMNode) bool {
	for _, l := range parent.Children {
		if l.Child == child {
			return true
		}
	}
	return false
}

// isAncestor checks if candidate is an ancestor of node (would create circular reference)
func (cmd *GenerateCommand) isAncestor(candidate, node *BOMNode) bool {
	visited := make(map[string]bool)
	return cmd.isAncestorHelper(candidate, node, visited)
}

func (cmd *GenerateCommand) isAncestorHelper(candidate, node *BOMNode, visited map[string]bool) bool {
	if visited[node.ID] {
		return false
	}
	visited[node.ID] = true

	for _, parent := range node.Parents {
		if parent == candidate || cmd.isAncestorHelper(candidate, parent, visited) {
			return true
		}
	}
	return false
}

// kindOf labels a node from its place in the tree
func (cmd *GenerateCommand) kindOf(node *BOMNode) entities.ItemKind {
	switch {
	case node.IsRoot:
		return entities.FinishedGood
	case len(node.Children) > 0:
		return entities.SubAssembly
	case node.Level >= 3 && cmd.rand.Float64() < 0.4:
		return entities.RawMaterial
	default:
		return entities.Component
	}
}

// generateLeadTime creates lead times in days, longer for purchased leaves
func (cmd *GenerateCommand) generateLeadTime(kind entities.ItemKind) int {
	switch kind {
	case entities.FinishedGood:
		return 0
	case entities.SubAssembly:
		return 2 + cmd.rand.Intn(9) // 2-10 days
	case entities.RawMaterial:
		return 14 + cmd.rand.Intn(29) // 14-42 days
	default:
		return 5 + cmd.rand.Intn(26) // 5-30 days
	}
}

// generateLotSizing returns safety stock, order multiple and minimum order quantity columns
func (cmd *GenerateCommand) generateLotSizing(kind entities.ItemKind) (string, string, string) {
	if kind == entities.FinishedGood || kind == entities.SubAssembly {
		return "0", "", ""
	}

	roll := cmd.rand.Float64()
	switch {
	case roll < 0.6:
		return strconv.Itoa(10 * cmd.rand.Intn(10)), "", ""
	case roll < 0.8:
		minQty := 100 * (1 + cmd.rand.Intn(20))
		return strconv.Itoa(10 * cmd.rand.Intn(20)), "", strconv.Itoa(minQty)
	default:
		packSize := 10 * (1 + cmd.rand.Intn(50))
		return strconv.Itoa(packSize), strconv.Itoa(packSize), ""
	}
}

func (cmd *GenerateCommand) generateItems(scenario *generatedScenario) error {
	rows := make([][]string, 0, len(scenario.nodes))
	for _, node := range scenario.nodes {
		kind := cmd.kindOf(node)
		safety, multiple, minimum := cmd.generateLotSizing(kind)
		supplier := ""
		if kind == entities.Component || kind == entities.RawMaterial {
			supplier = fmt.Sprintf("SUPPLIER_%02d", 1+cmd.rand.Intn(12))
		}

		rows = append(rows, []string{
			node.ID,
			describe(node, kind),
			kindColumn(kind),
			"EA",
			strconv.Itoa(cmd.generateLeadTime(kind)),
			safety,
			multiple,
			minimum,
			"", "", "", "", "",
			kind.String(),
			supplier,
			"true",
		})
	}
	return cmd.writeFile(csvrepo.ItemsFile, csvrepo.ItemsHeader, rows)
}

func (cmd *GenerateCommand) generateBOM(scenario *generatedScenario) error {
	var rows [][]string
	for _, parent := range scenario.nodes {
		for _, l := range parent.Children {
			rows = append(rows, []string{parent.ID, l.Child.ID, strconv.Itoa(l.QtyPer)})
		}
	}
	return cmd.writeFile(csvrepo.BOMFile, csvrepo.BOMHeader, rows)
}

// generateGoals writes each finished good's goal, varied by up to 20% week to week
func (cmd *GenerateCommand) generateGoals(scenario *generatedScenario) error {
	var rows [][]string
	for week := 0; week < cmd.config.Weeks; week++ {
		monday := cmd.config.Start.AddDate(0, 0, 7*week)
		for _, root := range scenario.roots {
			base := scenario.goals[root.ID]
			goal := base + (base*(cmd.rand.Intn(41)-20))/100
			rows = append(rows, []string{root.ID, monday.Format(dateLayout), strconv.Itoa(goal)})
		}
	}
	return cmd.writeFile(csvrepo.WeeklyGoalsFile, csvrepo.WeeklyGoalsHeader, rows)
}

// generateInventory stocks every non-finished item with config.Inventory weeks of usage
func (cmd *GenerateCommand) generateInventory(scenario *generatedScenario) error {
	var rows [][]string
	for _, node := range scenario.nodes {
		if node.IsRoot {
			continue
		}
		onHand := int(float64(scenario.usage[node.ID]) * cmd.config.Inventory)
		allocated := 0
		if onHand > 0 && cmd.rand.Float64() < 0.1 {
			allocated = onHand / 10
		}
		rows = append(rows, []string{node.ID, strconv.Itoa(onHand), strconv.Itoa(allocated)})
	}
	return cmd.writeFile(csvrepo.InventoryFile, csvrepo.InventoryHeader, rows)
}

// generatePurchaseOrders places a week of usage on order for some purchased leaves
func (cmd *GenerateCommand) generatePurchaseOrders(scenario *generatedScenario) error {
	var rows [][]string
	poNumber := 1000
	for _, node := range scenario.nodes {
		if len(node.Children) > 0 || node.IsRoot || scenario.usage[node.ID] == 0 || cmd.rand.Float64() >= 0.15 {
			continue
		}

		status := "pending"
		if cmd.rand.Float64() < 0.2 {
			status = "received"
		}
		ordered := cmd.config.Start.AddDate(0, 0, -cmd.rand.Intn(14))
		expected := cmd.config.Start.AddDate(0, 0, 1+cmd.rand.Intn(21))

		rows = append(rows, []string{
			fmt.Sprintf("PO-%d", poNumber),
			node.ID,
			ordered.Format(dateLayout),
			expected.Format(dateLayout),
			strconv.Itoa(scenario.usage[node.ID]),
			status,
			fmt.Sprintf("SUPPLIER_%02d", 1+cmd.rand.Intn(12)),
		})
		poNumber++
	}
	return cmd.writeFile(csvrepo.PurchaseOrdersFile, csvrepo.PurchaseOrdersHeader, rows)
}

// weeklyUsage explodes every finished good's base weekly goal through the tree
func weeklyUsage(scenario *generatedScenario) map[string]int {
	usage := make(map[string]int)
	var explode func(node *BOMNode, qty int)
	explode = func(node *BOMNode, qty int) {
		for _, l := range node.Children {
			childQty := qty * l.QtyPer
			usage[l.Child.ID] += childQty
			explode(l.Child, childQty)
		}
	}
	for _, root := range scenario.roots {
		explode(root, scenario.goals[root.ID])
	}
	return usage
}

func (cmd *GenerateCommand) writeFile(name string, header []string, rows [][]string) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func describe(node *BOMNode, kind entities.ItemKind) string {
	switch kind {
	case entities.FinishedGood:
		return node.ID + " Complete Assembly"
	case entities.SubAssembly:
		return node.ID + " Subassembly"
	case entities.RawMaterial:
		return node.ID + " Stock"
	default:
		return node.ID + " Component"
	}
}

// kindColumn renders a kind the way items.csv spells it
func kindColumn(kind entities.ItemKind) string {
	switch kind {
	case entities.FinishedGood:
		return "finished_good"
	case entities.SubAssembly:
		return "sub_assembly"
	case entities.RawMaterial:
		return "raw_material"
	default:
		return "component"
	}
}
