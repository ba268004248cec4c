package repository

import (
	"context"
	"fmt"

	"github.com/exogenesis/timevault/pkg/models"
)

var (
	// ErrLookupConflict means the stored lookup item was changed after it was read
	ErrLookupConflict = fmt.Errorf("Lookup item is updated by other writer")
	// ErrInvalidLookupItem means the stored members are not a list of strings
	ErrInvalidLookupItem = fmt.Errorf("Invalid lookup item in the store")
)

// LookupRepository stores members of composite keys of the lookup index.
type LookupRepository interface {
	// GetLookup returns nil without error if the key is not found.
	GetLookup(ctx context.Context, key string) (*models.LookupItem, error)
	PutLookup(ctx context.Context, item *models.LookupItem) error
}

// ConditionalLookupRepository can write a lookup item only if the stored item is
// still prev. Members only grow, so comparing number of members is enough.
// nil prev means the key must not exist.
type ConditionalLookupRepository interface {
	LookupRepository
	PutLookupIf(ctx context.Context, item *models.LookupItem, prev *models.LookupItem) error
}

// CollectionRepository stores a record per ingested object.
type CollectionRepository interface {
	PutCollectionItem(ctx context.Context, item *models.CollectionItem) error
	// GetCollectionItems returns items of the year ordered by unix time.
	GetCollectionItems(ctx context.Context, year string) ([]*models.CollectionItem, error)
}
