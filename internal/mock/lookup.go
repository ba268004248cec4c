package mock

import (
	"context"
	"sync"

	"github.com/exogenesis/timevault/internal/repository"
	"github.com/exogenesis/timevault/pkg/models"
)

// LookupRepository is on memory ConditionalLookupRepository. It counts writes and
// can inject failures and concurrent writes.
type LookupRepository struct {
	mutex      sync.Mutex
	data       map[string][]string
	writeCount int
	errors     map[string]error
	injected   map[string][]string
	GetError   error
}

// NewLookupRepository is constructor of LookupRepository
func NewLookupRepository() *LookupRepository {
	return &LookupRepository{
		data:     map[string][]string{},
		errors:   map[string]error{},
		injected: map[string][]string{},
	}
}

// GetLookup of mock returns a copy of stored members
func (x *LookupRepository) GetLookup(ctx context.Context, key string) (*models.LookupItem, error) {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	if x.GetError != nil {
		return nil, x.GetError
	}

	members, ok := x.data[key]
	if !ok {
		return nil, nil
	}

	return &models.LookupItem{Key: key, Members: append([]string{}, members...)}, nil
}

// PutLookup of mock overwrites members of the key
func (x *LookupRepository) PutLookup(ctx context.Context, item *models.LookupItem) error {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	if err := x.errors[item.Key]; err != nil {
		return err
	}

	x.data[item.Key] = append([]string{}, item.Members...)
	x.writeCount++
	return nil
}

// PutLookupIf of mock writes only if number of stored members equals prev.
// Members set by InjectWrite are stored before the condition is checked.
func (x *LookupRepository) PutLookupIf(ctx context.Context, item *models.LookupItem, prev *models.LookupItem) error {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	if err := x.errors[item.Key]; err != nil {
		return err
	}

	if members, ok := x.injected[item.Key]; ok {
		x.data[item.Key] = append(x.data[item.Key], members...)
		delete(x.injected, item.Key)
	}

	current, ok := x.data[item.Key]
	if prev == nil && ok {
		return repository.ErrLookupConflict
	}
	if prev != nil && (!ok || len(current) != prev.Size()) {
		return repository.ErrLookupConflict
	}

	x.data[item.Key] = append([]string{}, item.Members...)
	x.writeCount++
	return nil
}

// WriteCount returns number of successful writes
func (x *LookupRepository) WriteCount() int {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	return x.writeCount
}

// SetError makes writes to the key fail with err. nil err clears it.
func (x *LookupRepository) SetError(key string, err error) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	if err == nil {
		delete(x.errors, key)
		return
	}
	x.errors[key] = err
}

// InjectWrite emulates other writer that adds members to the key right before
// next conditional write of the key.
func (x *LookupRepository) InjectWrite(key string, members ...string) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	x.injected[key] = append(x.injected[key], members...)
}

// SetMembers stores members as is, without counting a write.
func (x *LookupRepository) SetMembers(key string, members ...string) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	x.data[key] = append([]string{}, members...)
}

// WithoutCondition returns a view of the repository that does not support conditional write.
func (x *LookupRepository) WithoutCondition() repository.LookupRepository {
	return &plainLookupRepository{repo: x}
}

type plainLookupRepository struct {
	repo *LookupRepository
}

func (x *plainLookupRepository) GetLookup(ctx context.Context, key string) (*models.LookupItem, error) {
	return x.repo.GetLookup(ctx, key)
}

func (x *plainLookupRepository) PutLookup(ctx context.Context, item *models.LookupItem) error {
	return x.repo.PutLookup(ctx, item)
}
