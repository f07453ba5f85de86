package callsession

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"github.com/npezzotti/study-rooms/internal/types"
)

// LiveKitGateway issues room-join access tokens for a LiveKit deployment.
// LiveKit creates rooms on first join so no API call is needed.
type LiveKitGateway struct {
	url       string
	apiKey    string
	apiSecret string
}

func NewLiveKitGateway(url, apiKey, apiSecret string) *LiveKitGateway {
	return &LiveKitGateway{
		url:       url,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

func (g *LiveKitGateway) SessionFor(_ context.Context, roomId, identity string) (*types.CallSession, error) {
	if identity == "" {
		identity = "guest-" + uuid.NewString()
	}

	at := auth.NewAccessToken(g.apiKey, g.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     Slug(roomId),
	}
	at.AddGrant(grant).
		SetIdentity(identity).
		SetValidFor(sessionTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("sign livekit token: %w", err)
	}

	return &types.CallSession{
		CallSessionUrl: g.url,
		Token:          token,
	}, nil
}
