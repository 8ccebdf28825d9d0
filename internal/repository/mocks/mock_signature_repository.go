package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esign/internal/model"
	"esign/internal/repository"
)

type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) Append(ctx context.Context, rec *model.SignatureRecord) (*model.SignatureRecord, error) {
	args := m.Called(ctx, rec)
	if f, ok := args.Get(0).(func(context.Context, *model.SignatureRecord) *model.SignatureRecord); ok {
		return f(ctx, rec), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRecord), args.Error(1)
}

func (m *MockSignatureRepository) FindByID(ctx context.Context, id int64) (*model.SignatureRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRecord), args.Error(1)
}

func (m *MockSignatureRepository) FindLatest(ctx context.Context, q repository.RecordQuery) (*model.SignatureRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRecord), args.Error(1)
}

func (m *MockSignatureRepository) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.SignatureRecord], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.SignatureRecord]), args.Error(1)
}
