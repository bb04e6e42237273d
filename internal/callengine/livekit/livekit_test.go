package livekit

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/calltoken-server/internal/callengine"
)

const (
	testKey    = "APItestkey"
	testSecret = "livekit-test-secret-0123456789abcdef"
	testCallID = "livestream_17475406-dedb-46db-b14b-854dd9254ee9"
)

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return claims
}

func videoGrant(t *testing.T, claims jwt.MapClaims) map[string]any {
	t.Helper()

	video, ok := claims["video"].(map[string]any)
	if !ok {
		t.Fatalf("video grant missing: %v", claims)
	}
	return video
}

func TestCallToken_BroadcasterCanPublish(t *testing.T) {
	engine := New(testKey, testSecret)

	token, err := engine.CallToken(context.Background(), callengine.TokenRequest{
		UserID:   "u1",
		CallID:   testCallID,
		Role:     RoleBroadcaster,
		Name:     "Alice",
		ValidFor: time.Hour,
	})
	if err != nil {
		t.Fatalf("call token: %v", err)
	}

	claims := parseClaims(t, token)
	if claims["sub"] != "u1" || claims["iss"] != testKey || claims["name"] != "Alice" {
		t.Fatalf("unexpected claims: %v", claims)
	}

	video := videoGrant(t, claims)
	if video["room"] != testCallID || video["roomJoin"] != true {
		t.Fatalf("unexpected room grant: %v", video)
	}
	if video["canPublish"] != true || video["canSubscribe"] != true {
		t.Fatalf("broadcaster should publish and subscribe: %v", video)
	}
}

func TestCallToken_ViewerIsSubscribeOnly(t *testing.T) {
	engine := New(testKey, testSecret)

	for _, role := range []string{"viewer", "user"} {
		token, err := engine.CallToken(context.Background(), callengine.TokenRequest{
			UserID:   "viewer-" + role,
			CallID:   testCallID,
			Role:     role,
			ValidFor: time.Hour,
		})
		if err != nil {
			t.Fatalf("call token: %v", err)
		}

		video := videoGrant(t, parseClaims(t, token))
		if video["canPublish"] != false || video["canSubscribe"] != true {
			t.Fatalf("%s should be subscribe-only: %v", role, video)
		}
	}
}

func TestCallToken_RequiresUserID(t *testing.T) {
	engine := New(testKey, testSecret)
	if _, err := engine.CallToken(context.Background(), callengine.TokenRequest{CallID: testCallID, ValidFor: time.Hour}); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestUpsertUser_NoDirectory(t *testing.T) {
	engine := New(testKey, testSecret)

	if err := engine.UpsertUser(context.Background(), callengine.User{ID: "u1", Role: "viewer"}); err != nil {
		t.Fatalf("expected no-op upsert, got %v", err)
	}
	if err := engine.UpsertUser(context.Background(), callengine.User{}); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
