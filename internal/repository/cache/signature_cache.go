package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"esign/internal/model"
	"esign/internal/repository"
)

// DefaultSize is used when a non-positive size is requested.
var DefaultSize = 1024

// SignatureCache wraps a repository.SignatureRepository with an LRU of records by id.
// Records are immutable once appended, so cached entries never go stale.
type SignatureCache struct {
	next repository.SignatureRepository
	data *lru.Cache[int64, model.SignatureRecord]
}

var _ repository.SignatureRepository = (*SignatureCache)(nil)

// New creates a read-through cache in front of next. Pass a value less than 1
// to use DefaultSize.
func New(next repository.SignatureRepository, size int) (*SignatureCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	data, err := lru.New[int64, model.SignatureRecord](size)
	if err != nil {
		return nil, fmt.Errorf("creating record LRU: %w", err)
	}
	return &SignatureCache{next: next, data: data}, nil
}

// Append writes through and caches the stored record.
func (c *SignatureCache) Append(ctx context.Context, rec *model.SignatureRecord) (*model.SignatureRecord, error) {
	stored, err := c.next.Append(ctx, rec)
	if err != nil {
		return nil, err
	}
	c.data.Add(stored.ID, *stored)
	return stored, nil
}

// FindByID serves from the cache when possible. Misses are not cached.
func (c *SignatureCache) FindByID(ctx context.Context, id int64) (*model.SignatureRecord, error) {
	if rec, ok := c.data.Get(id); ok {
		return &rec, nil
	}
	rec, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.data.Add(rec.ID, *rec)
	return rec, nil
}

// FindLatest always consults the backing store; a newer record may have been appended.
func (c *SignatureCache) FindLatest(ctx context.Context, q repository.RecordQuery) (*model.SignatureRecord, error) {
	return c.next.FindLatest(ctx, q)
}

// List always consults the backing store.
func (c *SignatureCache) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.SignatureRecord], error) {
	return c.next.List(ctx, q)
}

// Len reports the number of cached records.
func (c *SignatureCache) Len() int {
	return c.data.Len()
}
