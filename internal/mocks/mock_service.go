package mocks

import (
	"context"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockParameterDirectory struct {
	mock.Mock
}

func (m *MockParameterDirectory) GetAll(ctx context.Context) ([]domain.Parameter, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Parameter), args.Error(1)
}

func (m *MockParameterDirectory) GetByName(ctx context.Context, name string) (*domain.Parameter, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Parameter), args.Error(1)
}

func (m *MockParameterDirectory) GetByType(ctx context.Context, typ string) ([]domain.Parameter, error) {
	args := m.Called(ctx, typ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Parameter), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, envelope domain.Envelope) error {
	args := m.Called(ctx, routingKey, envelope)
	return args.Error(0)
}

type MockEventDispatcher struct {
	mock.Mock
}

func (m *MockEventDispatcher) Dispatch(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
