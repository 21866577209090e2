package repositories

import "github.com/vsinha/mrpcalc/pkg/domain/entities"

// BOMRepository accepts Bill of Materials data; edges are read back through a Snapshot
type BOMRepository interface {
	LoadBOMEdges(edges []*entities.BOMEdge) error
}
