package models

import (
	"sort"
	"strconv"
)

// CollectionItem is a record of one ingested object.
type CollectionItem struct {
	Year       string `dynamo:"PK" json:"year"`
	UnixTime   int64  `dynamo:"SK" json:"unix_time"`
	IsUnzipped bool   `dynamo:"IsUnzipped" json:"is_unzipped"`
	Vault      string `dynamo:"Vault" json:"vault"`
	// KeyName is the object key in the bucket. It identifies the item on every index level.
	KeyName string `dynamo:"KeyName" json:"key_name"`
}

// NewCollectionItem creates a new item from a canonical path shaped object key.
func NewCollectionItem(keyName, vault string) (*CollectionItem, error) {
	dt, err := DecodePath(keyName)
	if err != nil {
		return nil, err
	}

	return &CollectionItem{
		Year:     strconv.Itoa(dt.Year),
		UnixTime: dt.UnixMilli,
		Vault:    vault,
		KeyName:  keyName,
	}, nil
}

// LookupItem is a composite key and its members in the lookup index.
type LookupItem struct {
	Key     string
	Members []string
}

// Size returns number of members. nil item has no member.
func (x *LookupItem) Size() int {
	if x == nil {
		return 0
	}
	return len(x.Members)
}

// MemberSet is a set of members under a composite key
type MemberSet map[string]struct{}

func (x MemberSet) add(v string) { x[v] = struct{}{} }

// Sorted returns members in ascending order.
func (x MemberSet) Sorted() []string {
	out := make([]string, 0, len(x))
	for v := range x {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// LookupItems is members of each index level that a batch of items introduces.
type LookupItems struct {
	Years MemberSet
	// year key -> months
	Months map[string]MemberSet
	// year-month key -> days
	Days map[string]MemberSet
	// year-month-day key -> object keys
	Objects map[string]MemberSet
}

func addMember(m map[string]MemberSet, key, member string) {
	set, ok := m[key]
	if !ok {
		set = MemberSet{}
		m[key] = set
	}
	set.add(member)
}

// NewLookupItems groups items by year, year-month and year-month-day.
func NewLookupItems(items []*CollectionItem) (*LookupItems, error) {
	output := &LookupItems{
		Years:   MemberSet{},
		Months:  map[string]MemberSet{},
		Days:    map[string]MemberSet{},
		Objects: map[string]MemberSet{},
	}

	for _, item := range items {
		dt, err := DecodePath(item.KeyName)
		if err != nil {
			return nil, err
		}
		keys := dt.Keys()

		output.Years.add(keys.Year)
		addMember(output.Months, keys.Year, strconv.Itoa(dt.Month))
		addMember(output.Days, keys.YearMonth, strconv.Itoa(dt.Day))
		addMember(output.Objects, keys.YearMonthDay, item.KeyName)
	}

	return output, nil
}
