package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// BOMValidator provides validation for BOM structure integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]entities.ItemID
	DuplicateEdges []entities.BOMEdge
	DanglingEdges  []entities.BOMEdge
	DuplicateItems []entities.ItemID
	Diagnostics    []entities.Diagnostic
}

// Valid reports whether no structural problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Diagnostics) == 0
}

// ValidateBOM checks the whole edge set against the catalog for cycles, duplicate pairs and dangling ids
func (v *BOMValidator) ValidateBOM(items []entities.Item, edges []entities.BOMEdge) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.ItemID, 0),
		DuplicateEdges: make([]entities.BOMEdge, 0),
		DanglingEdges:  make([]entities.BOMEdge, 0),
	}

	catalog := make(map[entities.ItemID]bool, len(items))
	for _, item := range items {
		if catalog[item.ID] {
			result.DuplicateItems = append(result.DuplicateItems, item.ID)
			result.Diagnostics = append(result.Diagnostics, entities.Diagnostic{
				Kind:    entities.InvalidInput,
				ItemID:  item.ID,
				Message: "duplicate item id in catalog",
			})
			continue
		}
		catalog[item.ID] = true
	}

	for _, edge := range v.detectDuplicateEdges(edges) {
		result.DuplicateEdges = append(result.DuplicateEdges, edge)
		result.Diagnostics = append(result.Diagnostics, entities.Diagnostic{
			Kind:    entities.InvalidInput,
			ItemID:  edge.ParentID,
			Path:    []entities.ItemID{edge.ParentID, edge.ComponentID},
			Message: fmt.Sprintf("duplicate BOM edge %s -> %s ignored", edge.ParentID, edge.ComponentID),
		})
	}

	for _, edge := range edges {
		if !catalog[edge.ComponentID] || !catalog[edge.ParentID] {
			missing := edge.ComponentID
			if !catalog[edge.ParentID] {
				missing = edge.ParentID
			}
			result.DanglingEdges = append(result.DanglingEdges, edge)
			result.Diagnostics = append(result.Diagnostics, entities.Diagnostic{
				Kind:    entities.DanglingReference,
				ItemID:  missing,
				Path:    []entities.ItemID{edge.ParentID, edge.ComponentID},
				Message: fmt.Sprintf("BOM edge references unknown item %s", missing),
			})
		}
	}

	cycles := v.detectCycles(v.buildAdjacencyMap(edges))
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles
	for _, cycle := range cycles {
		result.Diagnostics = append(result.Diagnostics, entities.Diagnostic{
			Kind:    entities.CycleDetected,
			ItemID:  cycle[0],
			Path:    cycle,
			Message: "BOM cycle detected",
		})
	}

	return result
}

// buildAdjacencyMap creates a map of parent -> children relationships
func (v *BOMValidator) buildAdjacencyMap(edges []entities.BOMEdge) map[entities.ItemID][]entities.ItemID {
	adjacencyMap := make(map[entities.ItemID][]entities.ItemID)
	seen := make(map[string]bool, len(edges))

	for _, edge := range edges {
		if seen[edge.Key()] {
			continue
		}
		seen[edge.Key()] = true
		adjacencyMap[edge.ParentID] = append(adjacencyMap[edge.ParentID], edge.ComponentID)
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the BOM structure
func (v *BOMValidator) detectCycles(adjacencyMap map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	visited := make(map[entities.ItemID]bool)
	recursionStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	parents := make([]entities.ItemID, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	for _, parent := range parents {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func (v *BOMValidator) dfsDetectCycle(
	current entities.ItemID,
	adjacencyMap map[entities.ItemID][]entities.ItemID,
	visited map[entities.ItemID]bool,
	recursionStack map[entities.ItemID]bool,
	path []entities.ItemID,
	cycles *[][]entities.ItemID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, id := range path {
				if id == child {
					cycle := make([]entities.ItemID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child) // close the cycle
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateEdges finds repeated (parent, component) pairs; the first occurrence is kept
func (v *BOMValidator) detectDuplicateEdges(edges []entities.BOMEdge) []entities.BOMEdge {
	seen := make(map[string]bool, len(edges))
	duplicates := make([]entities.BOMEdge, 0)

	for _, edge := range edges {
		if seen[edge.Key()] {
			duplicates = append(duplicates, edge)
			continue
		}
		seen[edge.Key()] = true
	}

	return duplicates
}
