package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/exogenesis/timevault/internal/repository"
	"github.com/exogenesis/timevault/pkg/models"
)

// Enumerator lists years, months, days and objects of stored media.
// Missing levels are returned as empty list, not an error.
type Enumerator interface {
	GetYears(ctx context.Context) ([]string, error)
	GetMonths(ctx context.Context, year int) ([]string, error)
	GetDays(ctx context.Context, year, month int) ([]string, error)
	GetObjects(ctx context.Context, year, month, day int) ([]string, error)
}

type numberRange struct {
	name     string
	min, max int
}

var (
	yearRange  = numberRange{"year", 0, 1<<31 - 1}
	monthRange = numberRange{"month", 1, 12}
	dayRange   = numberRange{"day", 1, 31}
)

// sortNumbers validates values as integers in the range and returns them
// deduplicated, sorted numerically and rendered without padding.
func sortNumbers(values []string, r numberRange, scope string) ([]string, error) {
	set := map[int]struct{}{}
	for _, v := range values {
		n, ok := models.ParseDigits(v)
		if !ok || n < r.min || r.max < n {
			return nil, models.NewStorageError(nil, "invalid %s %q in %s", r.name, v, scope)
		}
		set[n] = struct{}{}
	}

	numbers := make([]int, 0, len(set))
	for n := range set {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	output := make([]string, len(numbers))
	for i, n := range numbers {
		output[i] = strconv.Itoa(n)
	}
	return output, nil
}

// sortObjects validates that every key is a canonical path of the date.
func sortObjects(keys []string, year, month, day int, scope string) ([]string, error) {
	set := map[string]struct{}{}
	for _, key := range keys {
		dt, err := models.DecodePath(key)
		if err != nil {
			return nil, models.NewStorageError(err, "invalid object key %q in %s", key, scope)
		}
		if dt.Year != year || dt.Month != month || dt.Day != day {
			return nil, models.NewStorageError(nil, "object key %q is not in %s", key, scope)
		}
		set[key] = struct{}{}
	}

	output := make([]string, 0, len(set))
	for key := range set {
		output = append(output, key)
	}
	sort.Strings(output)
	return output, nil
}

// IndexEnumerator reads the lookup index built by LookupService
type IndexEnumerator struct {
	repo repository.LookupRepository
}

// NewIndexEnumerator is constructor of IndexEnumerator
func NewIndexEnumerator(repo repository.LookupRepository) *IndexEnumerator {
	return &IndexEnumerator{repo: repo}
}

func (x *IndexEnumerator) members(ctx context.Context, key string) ([]string, error) {
	item, err := x.repo.GetLookup(ctx, key)
	if err != nil {
		return nil, models.NewStorageError(err, "get lookup %s", key)
	}
	if item == nil {
		return []string{}, nil
	}
	return item.Members, nil
}

// GetYears returns years in the index
func (x *IndexEnumerator) GetYears(ctx context.Context) ([]string, error) {
	members, err := x.members(ctx, models.RootKey)
	if err != nil {
		return nil, err
	}
	return sortNumbers(members, yearRange, models.RootKey)
}

// GetMonths returns months of the year
func (x *IndexEnumerator) GetMonths(ctx context.Context, year int) ([]string, error) {
	key := models.YearKey(year)
	members, err := x.members(ctx, key)
	if err != nil {
		return nil, err
	}
	return sortNumbers(members, monthRange, key)
}

// GetDays returns days of the month
func (x *IndexEnumerator) GetDays(ctx context.Context, year, month int) ([]string, error) {
	key := models.YearMonthKey(year, month)
	members, err := x.members(ctx, key)
	if err != nil {
		return nil, err
	}
	return sortNumbers(members, dayRange, key)
}

// GetObjects returns object keys of the day
func (x *IndexEnumerator) GetObjects(ctx context.Context, year, month, day int) ([]string, error) {
	key := models.YearMonthDayKey(year, month, day)
	members, err := x.members(ctx, key)
	if err != nil {
		return nil, err
	}
	return sortObjects(members, year, month, day, key)
}

// BucketEnumerator derives the same lists from key prefixes in a S3 bucket
type BucketEnumerator struct {
	s3     *S3Service
	bucket models.Bucket
	codec  models.PathCodec
}

// NewBucketEnumerator is constructor of BucketEnumerator. codec must be same
// as the one used to generate keys in the bucket.
func NewBucketEnumerator(s3 *S3Service, bucket models.Bucket, codec models.PathCodec) *BucketEnumerator {
	return &BucketEnumerator{
		s3:     s3,
		bucket: bucket,
		codec:  codec,
	}
}

// segments returns last path segments of common prefixes under prefix
func (x *BucketEnumerator) segments(ctx context.Context, prefix string) ([]string, error) {
	prefixes, err := x.s3.ListCommonPrefixes(ctx, x.bucket.Region, x.bucket.Name, prefix)
	if err != nil {
		return nil, models.NewStorageError(err, "list s3://%s/%s", x.bucket.Name, prefix)
	}

	output := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		output = append(output, strings.TrimSuffix(strings.TrimPrefix(p, prefix), "/"))
	}
	return output, nil
}

func (x *BucketEnumerator) scope(prefix string) string {
	return fmt.Sprintf("s3://%s/%s", x.bucket.Name, prefix)
}

// GetYears returns years in the bucket
func (x *BucketEnumerator) GetYears(ctx context.Context) ([]string, error) {
	prefix := x.bucket.BasePrefix()
	segments, err := x.segments(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return sortNumbers(segments, yearRange, x.scope(prefix))
}

// GetMonths returns months of the year
func (x *BucketEnumerator) GetMonths(ctx context.Context, year int) ([]string, error) {
	prefix := x.bucket.BasePrefix() + models.YearKey(year) + "/"
	segments, err := x.segments(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return sortNumbers(segments, monthRange, x.scope(prefix))
}

// GetDays returns days of the month
func (x *BucketEnumerator) GetDays(ctx context.Context, year, month int) ([]string, error) {
	prefix := x.bucket.BasePrefix() + x.codec.YearMonthSegments(year, month) + "/"
	segments, err := x.segments(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return sortNumbers(segments, dayRange, x.scope(prefix))
}

// GetObjects returns object keys of the day, relative to the bucket prefix
func (x *BucketEnumerator) GetObjects(ctx context.Context, year, month, day int) ([]string, error) {
	base := x.bucket.BasePrefix()
	prefix := base + x.codec.DirSegments(year, month, day) + "/"
	keys, err := x.s3.ListKeys(ctx, x.bucket.Region, x.bucket.Name, prefix)
	if err != nil {
		return nil, models.NewStorageError(err, "list s3://%s/%s", x.bucket.Name, prefix)
	}

	for i := range keys {
		keys[i] = strings.TrimPrefix(keys[i], base)
	}
	return sortObjects(keys, year, month, day, x.scope(prefix))
}
