// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/creditmeter/internal/domain"
)

// MockModelDirectory is a mock of domain.ModelDirectory.
type MockModelDirectory struct {
	mock.Mock
}

// NewMockModelDirectory creates a mock that asserts its expectations on cleanup.
func NewMockModelDirectory(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockModelDirectory {
	m := &MockModelDirectory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockModelDirectory) Get(ctx context.Context, ref domain.ModelRef) (domain.ModelInfo, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.ModelInfo), args.Error(1)
}

func (m *MockModelDirectory) List(ctx context.Context) ([]domain.ModelInfo, error) {
	args := m.Called(ctx)
	models, _ := args.Get(0).([]domain.ModelInfo)
	return models, args.Error(1)
}

// MockCostCalculator is a mock of domain.CostCalculator.
type MockCostCalculator struct {
	mock.Mock
}

// NewMockCostCalculator creates a mock that asserts its expectations on cleanup.
func NewMockCostCalculator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCostCalculator {
	m := &MockCostCalculator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCostCalculator) Calculate(info domain.ModelInfo, details domain.GenerationDetails) (domain.Cost, error) {
	args := m.Called(info, details)
	return args.Get(0).(domain.Cost), args.Error(1)
}

// MockCostEstimator is a mock of domain.CostEstimator.
type MockCostEstimator struct {
	mock.Mock
}

// NewMockCostEstimator creates a mock that asserts its expectations on cleanup.
func NewMockCostEstimator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCostEstimator {
	m := &MockCostEstimator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCostEstimator) Estimate(info domain.ModelInfo, opts domain.ModelCallOptions) (domain.Estimate, error) {
	args := m.Called(info, opts)
	return args.Get(0).(domain.Estimate), args.Error(1)
}

// MockEventPublisher is a mock of domain.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

// NewMockEventPublisher creates a mock that asserts its expectations on cleanup.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	m.Called(ctx, eventType, data)
}
