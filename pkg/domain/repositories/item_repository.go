package repositories

import (
	"errors"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// ErrItemNotFound is returned when an item id is absent from the catalog
var ErrItemNotFound = errors.New("item not found")

// ItemRepository provides access to item master data
type ItemRepository interface {
	GetItem(id entities.ItemID) (*entities.Item, error)
	LoadItems(items []*entities.Item) error
}
