package callsession

import (
	"context"

	"github.com/npezzotti/study-rooms/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SessionFor(ctx context.Context, roomId, identity string) (*types.CallSession, error) {
	args := m.Called(ctx, roomId, identity)
	session, _ := args.Get(0).(*types.CallSession)
	return session, args.Error(1)
}
