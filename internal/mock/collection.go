package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/exogenesis/timevault/pkg/models"
)

// CollectionRepository is on memory CollectionRepository
type CollectionRepository struct {
	mutex  sync.Mutex
	data   map[string]map[int64]*models.CollectionItem
	errors map[string]error
}

// NewCollectionRepository is constructor of CollectionRepository
func NewCollectionRepository() *CollectionRepository {
	return &CollectionRepository{
		data:   map[string]map[int64]*models.CollectionItem{},
		errors: map[string]error{},
	}
}

// PutCollectionItem of mock saves a copy of the item
func (x *CollectionRepository) PutCollectionItem(ctx context.Context, item *models.CollectionItem) error {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	if err := x.errors[item.KeyName]; err != nil {
		return err
	}

	year, ok := x.data[item.Year]
	if !ok {
		year = map[int64]*models.CollectionItem{}
		x.data[item.Year] = year
	}

	copied := *item
	year[item.UnixTime] = &copied
	return nil
}

// GetCollectionItems of mock returns items of the year ordered by unix time
func (x *CollectionRepository) GetCollectionItems(ctx context.Context, year string) ([]*models.CollectionItem, error) {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	items := []*models.CollectionItem{}
	for _, item := range x.data[year] {
		copied := *item
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UnixTime < items[j].UnixTime })

	return items, nil
}

// SetError makes write of the object key fail with err
func (x *CollectionRepository) SetError(keyName string, err error) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	x.errors[keyName] = err
}
