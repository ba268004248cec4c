package repository

import (
	"context"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
	"github.com/pkg/errors"

	"github.com/exogenesis/timevault/pkg/models"
)

const (
	lookupRangeKey   = 0
	lookupMembersKey = "SavedDate"
)

// LookupDynamoDB is implementation of ConditionalLookupRepository for DynamoDB.
// A lookup item is stored as PK = composite key, SK = 0 and members in SavedDate.
// Only SavedDate is written, so a collection record at epoch 0 can share the
// item of the year key in one table.
type LookupDynamoDB struct {
	table dynamo.Table
}

// NewLookupDynamoDB is constructor of LookupDynamoDB. endpoint can be empty.
func NewLookupDynamoDB(region, tableName, endpoint string) *LookupDynamoDB {
	return &LookupDynamoDB{
		table: newDynamoTable(region, tableName, endpoint),
	}
}

// GetLookup reads members of the key.
func (x *LookupDynamoDB) GetLookup(ctx context.Context, key string) (*models.LookupItem, error) {
	var raw map[string]*dynamodb.AttributeValue
	query := x.table.Get(dynamoHashKey, key).Range(dynamoRangeKey, dynamo.Equal, lookupRangeKey)
	if err := query.OneWithContext(ctx, &raw); err != nil {
		if err == dynamo.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "Failed to get lookup item: %s", key)
	}

	attr, ok := raw[lookupMembersKey]
	if !ok {
		// only a collection record is there
		return nil, nil
	}
	members, err := decodeMembers(attr)
	if err != nil {
		return nil, errors.Wrapf(err, "key: %s", key)
	}

	return &models.LookupItem{Key: key, Members: members}, nil
}

func decodeMembers(attr *dynamodb.AttributeValue) ([]string, error) {
	if attr == nil || (attr.NULL != nil && *attr.NULL) {
		return []string{}, nil
	}
	if attr.L == nil {
		if attr.SS != nil {
			members := make([]string, 0, len(attr.SS))
			for _, v := range attr.SS {
				members = append(members, *v)
			}
			return members, nil
		}
		return nil, ErrInvalidLookupItem
	}

	members := make([]string, 0, len(attr.L))
	for _, v := range attr.L {
		if v == nil || v.S == nil {
			return nil, ErrInvalidLookupItem
		}
		members = append(members, *v.S)
	}
	return members, nil
}

func (x *LookupDynamoDB) update(item *models.LookupItem) *dynamo.Update {
	return x.table.Update(dynamoHashKey, item.Key).
		Range(dynamoRangeKey, lookupRangeKey).
		Set(lookupMembersKey, item.Members)
}

// PutLookup overwrites members of the lookup item.
func (x *LookupDynamoDB) PutLookup(ctx context.Context, item *models.LookupItem) error {
	if err := x.update(item).RunWithContext(ctx); err != nil {
		return errors.Wrapf(err, "Failed to put lookup item: %s", item.Key)
	}
	return nil
}

// PutLookupIf overwrites members of the lookup item if number of stored members is still same as prev.
func (x *LookupDynamoDB) PutLookupIf(ctx context.Context, item *models.LookupItem, prev *models.LookupItem) error {
	query := x.update(item)
	if prev == nil {
		query = query.If("attribute_not_exists($)", lookupMembersKey)
	} else {
		query = query.If("size($) = ?", lookupMembersKey, prev.Size())
	}

	if err := query.RunWithContext(ctx); err != nil {
		if isConditionalCheckErr(err) {
			return ErrLookupConflict
		}
		return errors.Wrapf(err, "Failed to put lookup item: %s", item.Key)
	}
	return nil
}
