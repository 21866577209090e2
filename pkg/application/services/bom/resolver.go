package bom

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

// DefaultMaxDepth bounds recursion below the root item
const DefaultMaxDepth = 10

// Status tags the outcome of an explosion
type Status int

const (
	Ok Status = iota
	PartialWithCycle
	Truncated
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case PartialWithCycle:
		return "PartialWithCycle"
	case Truncated:
		return "Truncated"
	default:
		return "Unknown"
	}
}

// ExplodeResult is the flattened requirement for one root item.
// Requirements includes intermediate sub-assemblies as well as leaves.
type ExplodeResult struct {
	Status       Status
	Requirements map[entities.ItemID]decimal.Decimal
	CyclePaths   [][]entities.ItemID
	Diagnostics  []entities.Diagnostic
}

// Scale returns a deep copy of the result with every requirement multiplied by qty
func (r *ExplodeResult) Scale(qty decimal.Decimal) *ExplodeResult {
	scaled := &ExplodeResult{
		Status:       r.Status,
		Requirements: make(map[entities.ItemID]decimal.Decimal, len(r.Requirements)),
	}
	for id, unitQty := range r.Requirements {
		scaled.Requirements[id] = unitQty.Mul(qty)
	}
	for _, cycle := range r.CyclePaths {
		scaled.CyclePaths = append(scaled.CyclePaths, copyPath(cycle))
	}
	for _, d := range r.Diagnostics {
		d.Path = copyPath(d.Path)
		scaled.Diagnostics = append(scaled.Diagnostics, d)
	}
	return scaled
}

func copyPath(path []entities.ItemID) []entities.ItemID {
	if path == nil {
		return nil
	}
	return append([]entities.ItemID(nil), path...)
}

// Config holds resolver limits
type Config struct {
	// MaxDepth is the deepest BOM level whose requirements are accumulated
	MaxDepth int
}

// CacheStats reports memoization effectiveness for a resolver instance
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Resolver explodes items through an immutable BOM graph.
// One resolver is built per calculation run; unit explosions are memoized per root item.
type Resolver struct {
	config   Config
	logger   *zap.Logger
	items    map[entities.ItemID]entities.Item
	children map[entities.ItemID][]entities.BOMEdge
	parents  map[entities.ItemID][]entities.ItemID
	// clamped holds the InvalidInput diagnostic of every edge whose quantity per was negative
	clamped  map[string]entities.Diagnostic

	// Memoization cache of unit (qty 1) explosions
	cache      map[entities.ItemID]*ExplodeResult
	cacheMutex sync.RWMutex
	hits       int
	misses     int
}

// NewResolver builds the adjacency index. Repeated (parent, component) pairs keep their first edge
// and negative quantities per are clamped to zero.
func NewResolver(items []entities.Item, edges []entities.BOMEdge, config Config, logger *zap.Logger) *Resolver {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resolver{
		config:   config,
		logger:   logger,
		items:    make(map[entities.ItemID]entities.Item, len(items)),
		children: make(map[entities.ItemID][]entities.BOMEdge),
		parents:  make(map[entities.ItemID][]entities.ItemID),
		clamped:  make(map[string]entities.Diagnostic),
		cache:    make(map[entities.ItemID]*ExplodeResult),
	}

	for _, item := range items {
		r.items[item.ID] = item
	}

	seen := make(map[string]bool, len(edges))
	for _, edge := range edges {
		if seen[edge.Key()] {
			continue
		}
		seen[edge.Key()] = true
		edge, diags := edge.Sanitized()
		if len(diags) > 0 {
			r.clamped[edge.Key()] = diags[0]
		}
		r.children[edge.ParentID] = append(r.children[edge.ParentID], edge)
		r.parents[edge.ComponentID] = append(r.parents[edge.ComponentID], edge.ParentID)
	}
	for id := range r.parents {
		sort.Slice(r.parents[id], func(i, j int) bool { return r.parents[id][i] < r.parents[id][j] })
	}

	return r
}

// Explode flattens the requirement for qty units of itemID.
// Only an unknown root is an error; structural problems are reported in the result.
func (r *Resolver) Explode(itemID entities.ItemID, qty decimal.Decimal) (*ExplodeResult, error) {
	if _, exists := r.items[itemID]; !exists {
		return nil, fmt.Errorf("failed to explode %s: %w", itemID, repositories.ErrItemNotFound)
	}

	var clampDiag *entities.Diagnostic
	if qty.IsNegative() {
		clampDiag = &entities.Diagnostic{
			Kind:    entities.InvalidInput,
			ItemID:  itemID,
			Message: fmt.Sprintf("requested quantity %s clamped to 0", qty),
		}
		qty = decimal.Zero
	}

	result := r.unitExplosion(itemID).Scale(qty)
	if clampDiag != nil {
		result.Diagnostics = append(result.Diagnostics, *clampDiag)
	}
	return result, nil
}

// unitExplosion returns the cached explosion of one unit of itemID, computing it on a miss
func (r *Resolver) unitExplosion(itemID entities.ItemID) *ExplodeResult {
	r.cacheMutex.RLock()
	cached, exists := r.cache[itemID]
	r.cacheMutex.RUnlock()
	if exists {
		r.cacheMutex.Lock()
		r.hits++
		r.cacheMutex.Unlock()
		return cached
	}

	t := &traversal{
		resolver: r,
		result: &ExplodeResult{
			Status:       Ok,
			Requirements: make(map[entities.ItemID]decimal.Decimal),
		},
		seenDiags: make(map[string]bool),
		onPath:    map[entities.ItemID]bool{itemID: true},
	}
	t.walk(itemID, decimal.NewFromInt(1), 0, []entities.ItemID{itemID})

	for _, d := range t.result.Diagnostics {
		r.logger.Warn("BOM diagnostic",
			zap.String("root", string(itemID)),
			zap.String("item_id", string(d.ItemID)),
			zap.String("kind", d.Kind.String()),
			zap.String("path", entities.FormatPath(d.Path)),
			zap.String("message", d.Message),
		)
	}

	r.cacheMutex.Lock()
	r.misses++
	r.cache[itemID] = t.result
	r.cacheMutex.Unlock()

	return t.result
}

// Stats returns cache hit and miss counters
func (r *Resolver) Stats() CacheStats {
	r.cacheMutex.RLock()
	defer r.cacheMutex.RUnlock()
	return CacheStats{Hits: r.hits, Misses: r.misses, Entries: len(r.cache)}
}

// HasComponents reports whether the item has outgoing BOM edges
func (r *Resolver) HasComponents(itemID entities.ItemID) bool {
	return len(r.children[itemID]) > 0
}

// WhereUsed returns the direct parents of an item, sorted
func (r *Resolver) WhereUsed(itemID entities.ItemID) []entities.ItemID {
	return append([]entities.ItemID(nil), r.parents[itemID]...)
}

// ComponentIDs returns every item that appears as a component on some edge, sorted
func (r *Resolver) ComponentIDs() []entities.ItemID {
	ids := make([]entities.ItemID, 0, len(r.parents))
	for id := range r.parents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Item returns the catalog entry for an id
func (r *Resolver) Item(itemID entities.ItemID) (entities.Item, bool) {
	item, ok := r.items[itemID]
	return item, ok
}

type traversal struct {
	resolver  *Resolver
	result    *ExplodeResult
	seenDiags map[string]bool
	onPath    map[entities.ItemID]bool
}

// walk accumulates the children of id (at level depth+1) and descends into those that have components
func (t *traversal) walk(id entities.ItemID, qty decimal.Decimal, depth int, path []entities.ItemID) {
	r := t.resolver

	for _, edge := range r.children[id] {
		child := edge.ComponentID
		childItem, known := r.items[child]
		if !known {
			t.report(entities.Diagnostic{
				Kind:    entities.DanglingReference,
				ItemID:  child,
				Path:    []entities.ItemID{id, child},
				Message: fmt.Sprintf("component %s of %s is not in the catalog; edge skipped", child, id),
			})
			continue
		}
		if d, wasClamped := r.clamped[edge.Key()]; wasClamped {
			t.report(d)
		}

		if t.onPath[child] {
			cycle := make([]entities.ItemID, 0, len(path)+1)
			cycle = append(cycle, path...)
			cycle = append(cycle, child)
			t.result.CyclePaths = append(t.result.CyclePaths, cycle)
			t.result.Status = PartialWithCycle
			t.report(entities.Diagnostic{
				Kind:    entities.CycleDetected,
				ItemID:  child,
				Path:    cycle,
				Message: fmt.Sprintf("cycle back to %s; branch omitted", child),
			})
			continue
		}

		childQty := qty.Mul(edge.QuantityPer)
		t.result.Requirements[child] = t.result.Requirements[child].Add(childQty)

		hasChildren := r.HasComponents(child)
		t.checkKind(childItem, hasChildren, path)
		if !hasChildren {
			continue
		}

		if depth+1 >= r.config.MaxDepth {
			if t.result.Status == Ok {
				t.result.Status = Truncated
			}
			t.report(entities.Diagnostic{
				Kind:    entities.DepthExceeded,
				ItemID:  child,
				Path:    append(append([]entities.ItemID(nil), path...), child),
				Message: fmt.Sprintf("maximum BOM depth %d reached; components of %s omitted", r.config.MaxDepth, child),
			})
			continue
		}

		t.onPath[child] = true
		t.walk(child, childQty, depth+1, append(path, child))
		delete(t.onPath, child)
	}
}

// checkKind flags items whose kind label disagrees with the edge set
func (t *traversal) checkKind(item entities.Item, hasChildren bool, path []entities.ItemID) {
	var msg string
	switch {
	case hasChildren && (item.Kind == entities.Component || item.Kind == entities.RawMaterial):
		msg = fmt.Sprintf("%s is labelled %s but has components; exploded anyway", item.ID, item.Kind)
	case !hasChildren && item.Kind == entities.SubAssembly:
		msg = fmt.Sprintf("%s is labelled %s but has no components", item.ID, item.Kind)
	case item.Kind == entities.FinishedGood:
		msg = fmt.Sprintf("%s is labelled %s but is used as a component", item.ID, item.Kind)
	default:
		return
	}
	t.report(entities.Diagnostic{
		Kind:    entities.KindMismatch,
		ItemID:  item.ID,
		Path:    append(append([]entities.ItemID(nil), path...), item.ID),
		Message: msg,
	})
}

// report records a diagnostic once per (kind, item, path)
func (t *traversal) report(d entities.Diagnostic) {
	key := d.Kind.String() + "|" + string(d.ItemID) + "|" + entities.FormatPath(d.Path)
	if t.seenDiags[key] {
		return
	}
	t.seenDiags[key] = true
	t.result.Diagnostics = append(t.result.Diagnostics, d)
}
