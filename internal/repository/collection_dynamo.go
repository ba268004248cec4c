package repository

import (
	"context"

	"github.com/guregu/dynamo"
	"github.com/pkg/errors"

	"github.com/exogenesis/timevault/pkg/models"
)

// CollectionDynamoDB is implementation of CollectionRepository for DynamoDB.
type CollectionDynamoDB struct {
	table dynamo.Table
}

// NewCollectionDynamoDB is constructor of CollectionDynamoDB. endpoint can be empty.
func NewCollectionDynamoDB(region, tableName, endpoint string) *CollectionDynamoDB {
	return &CollectionDynamoDB{
		table: newDynamoTable(region, tableName, endpoint),
	}
}

// PutCollectionItem writes attributes of the item. An item of same year and unix
// time is replaced. Other attributes, e.g. SavedDate of the lookup item at epoch 0
// in a shared table, are kept.
func (x *CollectionDynamoDB) PutCollectionItem(ctx context.Context, item *models.CollectionItem) error {
	query := x.table.Update(dynamoHashKey, item.Year).
		Range(dynamoRangeKey, item.UnixTime).
		Set("IsUnzipped", item.IsUnzipped).
		Set("Vault", item.Vault).
		Set("KeyName", item.KeyName)

	if err := query.RunWithContext(ctx); err != nil {
		return errors.Wrapf(err, "Failed to put collection item: %s", item.KeyName)
	}
	return nil
}

// GetCollectionItems returns items of the year. Lookup items sharing the table are filtered out.
func (x *CollectionDynamoDB) GetCollectionItems(ctx context.Context, year string) ([]*models.CollectionItem, error) {
	var items []*models.CollectionItem
	query := x.table.Get(dynamoHashKey, year).
		Filter("attribute_exists($)", "KeyName").
		Order(dynamo.Ascending)

	if err := query.AllWithContext(ctx, &items); err != nil {
		if err == dynamo.ErrNotFound {
			return []*models.CollectionItem{}, nil
		}
		return nil, errors.Wrapf(err, "Failed to get collection items: %s", year)
	}

	if items == nil {
		items = []*models.CollectionItem{}
	}
	return items, nil
}
