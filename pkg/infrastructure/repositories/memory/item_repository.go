package memory

import (
	"fmt"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

// ItemRepository provides in-memory item storage
type ItemRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// LoadItems loads items into the repository
func (r *ItemRepository) LoadItems(items []*entities.Item) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		r.addItem(*item)
	}
	return nil
}

// AddItem adds an item to the repository, replacing any item with the same id
func (r *ItemRepository) AddItem(item entities.Item) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.addItem(item)
}

func (r *ItemRepository) addItem(item entities.Item) {
	s := r.store
	if index, exists := s.itemsMap[item.ID]; exists {
		s.items[index] = item
		return
	}
	s.itemsMap[item.ID] = len(s.items)
	s.items = append(s.items, item)
}

// GetItem returns item master data for an id
func (r *ItemRepository) GetItem(id entities.ItemID) (*entities.Item, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	index, exists := r.store.itemsMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrItemNotFound, id)
	}
	item := r.store.items[index]
	return &item, nil
}

func (r *ItemRepository) all() []entities.Item {
	return append([]entities.Item(nil), r.store.items...)
}

// SaveItem saves an item to the repository
func (r *ItemRepository) SaveItem(item *entities.Item) error {
	r.AddItem(*item)
	return nil
}
