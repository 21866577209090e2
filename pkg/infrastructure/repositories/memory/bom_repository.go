package memory

import (
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

// BOMRepository provides in-memory BOM edge storage
type BOMRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// LoadBOMEdges loads BOM edges into the repository
func (r *BOMRepository) LoadBOMEdges(edges []*entities.BOMEdge) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, edge := range edges {
		r.addEdge(*edge)
	}
	return nil
}

// AddBOMEdge adds a BOM edge to the repository
func (r *BOMRepository) AddBOMEdge(edge entities.BOMEdge) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.addEdge(edge)
}

func (r *BOMRepository) addEdge(edge entities.BOMEdge) {
	r.store.edges = append(r.store.edges, edge)
}

func (r *BOMRepository) all() []entities.BOMEdge {
	return append([]entities.BOMEdge(nil), r.store.edges...)
}
