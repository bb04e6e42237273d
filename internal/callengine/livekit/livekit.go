package livekit

import (
	"context"
	"errors"
	"fmt"

	"github.com/livekit/protocol/auth"
	"github.com/vovakirdan/calltoken-server/internal/callengine"
)

// RoleBroadcaster is the only role allowed to publish media.
const RoleBroadcaster = "broadcaster"

// LiveKitEngine implements callengine.Engine using LiveKit as the media backend.
type LiveKitEngine struct {
	apiKey    string
	apiSecret string
}

// New creates a new LiveKitEngine.
func New(apiKey, apiSecret string) *LiveKitEngine {
	return &LiveKitEngine{
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// UpsertUser is a no-op: LiveKit has no user directory, participant
// attributes travel in the access token instead.
func (e *LiveKitEngine) UpsertUser(_ context.Context, user callengine.User) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}
	return nil
}

// CallToken creates an access token for the room named after the call ID.
func (e *LiveKitEngine) CallToken(_ context.Context, req callengine.TokenRequest) (string, error) {
	if req.UserID == "" {
		return "", errors.New("user id is required")
	}

	canPublish := req.Role == RoleBroadcaster
	canSubscribe := true

	at := auth.NewAccessToken(e.apiKey, e.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin:       true,
		Room:           req.CallID,
		CanPublish:     &canPublish,
		CanPublishData: &canPublish,
		CanSubscribe:   &canSubscribe,
	}
	at.SetVideoGrant(grant).
		SetIdentity(req.UserID).
		SetValidFor(req.ValidFor)
	if req.Name != "" {
		at.SetName(req.Name)
	}

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Ensure LiveKitEngine implements callengine.Engine
var _ callengine.Engine = (*LiveKitEngine)(nil)
