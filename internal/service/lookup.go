package service

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/exogenesis/timevault/internal/repository"
	"github.com/exogenesis/timevault/internal/util"
	"github.com/exogenesis/timevault/pkg/models"
)

const (
	// DefaultConflictRetryLimit is number of re-merges after a conditional write conflict
	DefaultConflictRetryLimit = 8
	// DefaultMaxConcurrency is number of merges or writes running at once in a batch
	DefaultMaxConcurrency = 16
)

// Names of index levels, in write order
const (
	LevelRoot         = "root"
	LevelYear         = "year"
	LevelYearMonth    = "year-month"
	LevelYearMonthDay = "year-month-day"
)

// LookupServiceArguments is optional parameters of LookupService
type LookupServiceArguments struct {
	ConflictRetryLimit int
	MaxConcurrency     int
	NewRetryTimer      util.RetryTimerFactory
}

// LookupService maintains the lookup index and collection records.
type LookupService struct {
	lookupRepo     repository.LookupRepository
	collectionRepo repository.CollectionRepository
	args           LookupServiceArguments
	locks          *keyLock
}

// NewLookupService is constructor of LookupService. args can be nil.
func NewLookupService(lookupRepo repository.LookupRepository, collectionRepo repository.CollectionRepository, args *LookupServiceArguments) *LookupService {
	svc := &LookupService{
		lookupRepo:     lookupRepo,
		collectionRepo: collectionRepo,
		locks:          newKeyLock(),
	}

	if args != nil {
		svc.args = *args
	}
	if svc.args.ConflictRetryLimit <= 0 {
		svc.args.ConflictRetryLimit = DefaultConflictRetryLimit
	}
	if svc.args.MaxConcurrency <= 0 {
		svc.args.MaxConcurrency = DefaultMaxConcurrency
	}
	if svc.args.NewRetryTimer == nil {
		svc.args.NewRetryTimer = util.NewExpRetryTimer
	}

	return svc
}

type keyLock struct {
	mutex   sync.Mutex
	entries map[string]*keyLockEntry
}

type keyLockEntry struct {
	mutex sync.Mutex
	refs  int
}

func newKeyLock() *keyLock {
	return &keyLock{entries: map[string]*keyLockEntry{}}
}

func (x *keyLock) lock(key string) (unlock func()) {
	x.mutex.Lock()
	entry, ok := x.entries[key]
	if !ok {
		entry = &keyLockEntry{}
		x.entries[key] = entry
	}
	entry.refs++
	x.mutex.Unlock()

	entry.mutex.Lock()
	return func() {
		entry.mutex.Unlock()

		x.mutex.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(x.entries, key)
		}
		x.mutex.Unlock()
	}
}

// union returns current members followed by new members not in current.
func union(current *models.LookupItem, members []string) (merged []string, grew bool) {
	set := map[string]struct{}{}
	if current != nil {
		merged = append(merged, current.Members...)
		for _, m := range current.Members {
			set[m] = struct{}{}
		}
	}

	added := []string{}
	for _, m := range members {
		if _, ok := set[m]; ok {
			continue
		}
		set[m] = struct{}{}
		added = append(added, m)
	}
	sort.Strings(added)

	return append(merged, added...), len(added) > 0
}

// MergeAndMaybeWrite adds members to the key and writes only if the set grew.
// It returns true if a write happened.
func (x *LookupService) MergeAndMaybeWrite(ctx context.Context, key string, members []string) (bool, error) {
	unlock := x.locks.lock(key)
	defer unlock()

	cond, ok := x.lookupRepo.(repository.ConditionalLookupRepository)
	if !ok {
		return x.mergeOnce(ctx, key, members, nil)
	}

	var wrote bool
	timer := x.args.NewRetryTimer(x.args.ConflictRetryLimit + 1)
	err := timer.Run(ctx, func(seq int) (bool, error) {
		w, err := x.mergeOnce(ctx, key, members, cond)
		if errors.Is(err, repository.ErrLookupConflict) {
			logger.WithFields(logrus.Fields{"key": key, "seq": seq}).Debug("Lookup conflict, merge again")
			return false, nil
		}
		if err != nil {
			return false, err
		}

		wrote = w
		return true, nil
	})

	switch {
	case err == nil:
		return wrote, nil
	case err == util.ErrRetryLimitExceeded:
		return false, models.NewStorageError(repository.ErrLookupConflict,
			"merge of %s exceeded conflict retry limit %d", key, x.args.ConflictRetryLimit)
	default:
		var storageErr *models.StorageError
		if errors.As(err, &storageErr) {
			return false, err
		}
		return false, models.NewStorageError(err, "merge of %s is interrupted", key)
	}
}

func (x *LookupService) mergeOnce(ctx context.Context, key string, members []string, cond repository.ConditionalLookupRepository) (bool, error) {
	current, err := x.lookupRepo.GetLookup(ctx, key)
	if err != nil {
		return false, models.NewStorageError(err, "get lookup %s", key)
	}

	merged, grew := union(current, members)
	if !grew {
		return false, nil
	}

	item := &models.LookupItem{Key: key, Members: merged}
	if cond != nil {
		err = cond.PutLookupIf(ctx, item, current)
		if errors.Is(err, repository.ErrLookupConflict) {
			return false, err
		}
	} else {
		err = x.lookupRepo.PutLookup(ctx, item)
	}
	if err != nil {
		return false, models.NewStorageError(err, "put lookup %s", key)
	}

	logger.WithFields(logrus.Fields{
		"key":    key,
		"before": current.Size(),
		"after":  len(merged),
	}).Debug("Wrote lookup item")

	return true, nil
}

// IngestReport is result of IngestBatch
type IngestReport struct {
	Items int `json:"items"`
	// Writes is number of written lookup items
	Writes int `json:"writes"`
	// Skipped is number of lookup items that already had all members
	Skipped int `json:"skipped"`
}

type indexLevel struct {
	name    string
	entries map[string]models.MemberSet
}

// IngestBatch merges members of all index levels of items, root first and
// days last, then puts collection records of items.
func (x *LookupService) IngestBatch(ctx context.Context, items []*models.CollectionItem) (*IngestReport, error) {
	lookups, err := models.NewLookupItems(items)
	if err != nil {
		return nil, err
	}

	report := &IngestReport{Items: len(items)}
	if len(items) == 0 {
		return report, nil
	}

	levels := []indexLevel{
		{LevelRoot, map[string]models.MemberSet{models.RootKey: lookups.Years}},
		{LevelYear, lookups.Months},
		{LevelYearMonth, lookups.Days},
		{LevelYearMonthDay, lookups.Objects},
	}

	var succeeded []string
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrapf(err, "Ingestion is canceled before %s level", level.name)
		}

		if err := x.mergeLevel(ctx, level, report); err != nil {
			logger.WithFields(logrus.Fields{
				"level":     level.name,
				"succeeded": succeeded,
			}).WithError(err).Error("Failed to merge index level")
			return report, err
		}
		succeeded = append(succeeded, level.name)
	}

	if err := x.putCollectionItems(ctx, items); err != nil {
		err.SucceededLevels = succeeded
		return report, err
	}

	logger.WithFields(logrus.Fields{
		"items":   report.Items,
		"writes":  report.Writes,
		"skipped": report.Skipped,
	}).Info("Ingested batch")

	return report, nil
}

// mergeLevel runs merges of all keys in the level concurrently and waits all of them.
// A failure does not cancel other merges. Error of the smallest key is returned.
func (x *LookupService) mergeLevel(ctx context.Context, level indexLevel, report *IngestReport) error {
	keys := make([]string, 0, len(level.entries))
	for key := range level.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var mutex sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(x.args.MaxConcurrency)
	errs := make([]error, len(keys))

	for i, key := range keys {
		i, key := i, key
		eg.Go(func() error {
			wrote, err := x.MergeAndMaybeWrite(ctx, key, level.entries[key].Sorted())
			if err != nil {
				errs[i] = err
				return err
			}

			mutex.Lock()
			if wrote {
				report.Writes++
			} else {
				report.Skipped++
			}
			mutex.Unlock()
			return nil
		})
	}
	// errs keeps key order, Wait only reports the first finished failure
	_ = eg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (x *LookupService) putCollectionItems(ctx context.Context, items []*models.CollectionItem) *models.PartialIngestionError {
	var eg errgroup.Group
	eg.SetLimit(x.args.MaxConcurrency)
	errs := make([]error, len(items))

	for i, item := range items {
		i, item := i, item
		eg.Go(func() error {
			errs[i] = x.collectionRepo.PutCollectionItem(ctx, item)
			return errs[i]
		})
	}
	_ = eg.Wait()

	var partial *models.PartialIngestionError
	for i, err := range errs {
		if err == nil {
			continue
		}

		if partial == nil {
			partial = &models.PartialIngestionError{
				FailedItem: items[i].KeyName,
				Err:        models.NewStorageError(err, "put collection item %s", items[i].KeyName),
			}
		}
		partial.FailedItems = append(partial.FailedItems, items[i].KeyName)
	}

	return partial
}

// GetCollectionItems returns collection records of the year
func (x *LookupService) GetCollectionItems(ctx context.Context, year int) ([]*models.CollectionItem, error) {
	items, err := x.collectionRepo.GetCollectionItems(ctx, models.YearKey(year))
	if err != nil {
		return nil, models.NewStorageError(err, "get collection items of %d", year)
	}
	return items, nil
}
