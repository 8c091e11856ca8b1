package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWebSocketHub is a mock for WebSocketHub interface
type MockWebSocketHub struct {
	mock.Mock
}

func (m *MockWebSocketHub) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}

// MockPinger is a mock for Pinger interface
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
