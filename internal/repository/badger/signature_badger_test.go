package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign/internal/model"
	"esign/internal/repository"
)

const (
	fpA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	fpB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newStore(t *testing.T) *SignatureBadger {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(claimant, filename, fp string) *model.SignatureRecord {
	return &model.SignatureRecord{
		Claimant:    claimant,
		Filename:    filename,
		Fingerprint: fp,
		Signature:   "c2ln",
		Status:      model.StatusValid,
	}
}

func TestSignatureBadger_AppendAndFind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first, err := s.Append(ctx, record("Alice", "a.pdf", fpA))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.Append(ctx, record("Bob", "b.pdf", fpB))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	got, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Claimant)
	assert.Equal(t, fpA, got.Fingerprint)
	assert.Equal(t, model.StatusValid, got.Status)

	_, err = s.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.FindByID(ctx, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSignatureBadger_ConcurrentAppendUniqueIDs(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	const n = 64

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := s.Append(ctx, record(fmt.Sprintf("c%d", i), "doc.pdf", fpA))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids = append(ids, rec.ID)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, ids, n)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}

	page, err := s.List(ctx, repository.ListQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, n, page.Total)
}

func TestSignatureBadger_FindLatest(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, record("Alice", "contract.pdf", fpA))
	require.NoError(t, err)
	_, err = s.Append(ctx, record("Bob", "contract.pdf", fpB))
	require.NoError(t, err)
	third, err := s.Append(ctx, record("Carol", "other.pdf", fpA))
	require.NoError(t, err)

	t.Run("fingerprint latest wins", func(t *testing.T) {
		got, err := s.FindLatest(ctx, repository.RecordQuery{Fingerprint: fpA})
		require.NoError(t, err)
		assert.Equal(t, third.ID, got.ID)
	})

	t.Run("fingerprint and filename", func(t *testing.T) {
		got, err := s.FindLatest(ctx, repository.RecordQuery{Fingerprint: fpA, Filename: "contract.pdf"})
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Claimant)
	})

	t.Run("filename only", func(t *testing.T) {
		got, err := s.FindLatest(ctx, repository.RecordQuery{Filename: "contract.pdf"})
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.Claimant)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := s.FindLatest(ctx, repository.RecordQuery{Fingerprint: fpB, Filename: "other.pdf"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("filename prefix does not alias", func(t *testing.T) {
		_, err := s.FindLatest(ctx, repository.RecordQuery{Filename: "contract"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := s.FindLatest(ctx, repository.RecordQuery{})
		assert.ErrorIs(t, err, repository.ErrInvalidQuery)
	})
}

func TestSignatureBadger_CreationTimeNeverDecreases(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first, err := s.Append(ctx, record("Alice", "a.pdf", fpA))
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(-time.Hour) }
	second, err := s.Append(ctx, record("Bob", "a.pdf", fpA))
	require.NoError(t, err)

	assert.False(t, second.CreatedAt.Before(first.CreatedAt))

	got, err := s.FindLatest(ctx, repository.RecordQuery{Fingerprint: fpA})
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestSignatureBadger_List(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, record(fmt.Sprintf("c%d", i), "doc.pdf", fpA))
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query repository.ListQuery
		want  []int64
	}{
		{name: "newest first", query: repository.ListQuery{Limit: 2, Order: repository.OrderDesc}, want: []int64{5, 4}},
		{name: "default order is newest first", query: repository.ListQuery{Limit: 1}, want: []int64{5}},
		{name: "offset", query: repository.ListQuery{Limit: 2, Offset: 3, Order: repository.OrderDesc}, want: []int64{2, 1}},
		{name: "oldest first", query: repository.ListQuery{Limit: 3, Offset: 1, Order: repository.OrderAsc}, want: []int64{2, 3, 4}},
		{name: "past the end", query: repository.ListQuery{Limit: 3, Offset: 10}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, 5, page.Total)
			var ids []int64
			for _, rec := range page.Items {
				ids = append(ids, rec.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSignatureBadger_Durability(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Options{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	rec, err := s.Append(ctx, record("Alice", "a.pdf", fpA))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.PingContext(ctx), ErrClosed)

	reopened, err := Open(Options{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Claimant)

	next, err := reopened.Append(ctx, record("Bob", "b.pdf", fpB))
	require.NoError(t, err)
	assert.Equal(t, rec.ID+1, next.ID)
}

func TestSignatureBadger_CanceledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, record("Alice", "a.pdf", fpA))
	assert.ErrorIs(t, err, context.Canceled)

	page, err := s.List(context.Background(), repository.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}
