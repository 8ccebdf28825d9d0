package mocks

import (
	"context"

	"esign/internal/model"
	"esign/internal/reconcile"
	"esign/internal/repository"
	"esign/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockSignatureService struct {
	mock.Mock
}

func (m *MockSignatureService) Sign(ctx context.Context, req service.SignRequest) (*service.SignResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignResult), args.Error(1)
}

func (m *MockSignatureService) Verify(ctx context.Context, req service.VerifyRequest) (*reconcile.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Result), args.Error(1)
}

func (m *MockSignatureService) Get(ctx context.Context, id int64) (*model.SignatureRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRecord), args.Error(1)
}

func (m *MockSignatureService) List(ctx context.Context, limit, offset int, order repository.Order) (*service.ListResult, error) {
	args := m.Called(ctx, limit, offset, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult), args.Error(1)
}

func (m *MockSignatureService) Proof(ctx context.Context, id int64) (*service.ProofResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProofResult), args.Error(1)
}

func (m *MockSignatureService) ProofQR(ctx context.Context, id int64) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSignatureService) DocumentURL(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
