package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esign/internal/model"
	"esign/internal/repository"
	repoMocks "esign/internal/repository/mocks"
)

func TestSignatureCache_FindByID(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockSignatureRepository)
	c, err := New(mRepo, 2)
	require.NoError(t, err)

	mRepo.On("FindByID", ctx, int64(1)).Return(&model.SignatureRecord{ID: 1, Claimant: "Alice"}, nil).Once()

	for i := 0; i < 3; i++ {
		rec, err := c.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Alice", rec.Claimant)
	}

	t.Run("misses are not cached", func(t *testing.T) {
		mRepo.On("FindByID", ctx, int64(9)).Return(nil, repository.ErrNotFound).Twice()

		_, err := c.FindByID(ctx, 9)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = c.FindByID(ctx, 9)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	mRepo.AssertExpectations(t)
}

func TestSignatureCache_AppendPopulates(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockSignatureRepository)
	c, err := New(mRepo, 0)
	require.NoError(t, err)

	in := &model.SignatureRecord{Claimant: "Alice"}
	mRepo.On("Append", ctx, in).Return(&model.SignatureRecord{ID: 5, Claimant: "Alice"}, nil).Once()

	stored, err := c.Append(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.ID)
	assert.Equal(t, 1, c.Len())

	rec, err := c.FindByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Alice", rec.Claimant)

	mRepo.AssertExpectations(t)
	mRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestSignatureCache_AppendError(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockSignatureRepository)
	c, err := New(mRepo, 4)
	require.NoError(t, err)

	mRepo.On("Append", ctx, mock.Anything).Return(nil, errors.New("disk full")).Once()

	_, err = c.Append(ctx, &model.SignatureRecord{})
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 0, c.Len())
}

func TestSignatureCache_PassThrough(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockSignatureRepository)
	c, err := New(mRepo, 4)
	require.NoError(t, err)

	q := repository.RecordQuery{Fingerprint: "ab"}
	mRepo.On("FindLatest", ctx, q).Return(&model.SignatureRecord{ID: 3}, nil).Twice()
	lq := repository.ListQuery{Limit: 10}
	mRepo.On("List", ctx, lq).Return(&repository.PageResult[model.SignatureRecord]{Total: 3}, nil).Once()

	for i := 0; i < 2; i++ {
		rec, err := c.FindLatest(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(3), rec.ID)
	}
	page, err := c.List(ctx, lq)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	mRepo.AssertExpectations(t)
}
