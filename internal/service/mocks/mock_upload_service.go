package mocks

import (
	"context"

	"uploadapi/internal/model"
	"uploadapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Ingest(ctx context.Context, env *service.Envelope) (*model.UploadOutcome, error) {
	args := m.Called(ctx, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadOutcome), args.Error(1)
}
