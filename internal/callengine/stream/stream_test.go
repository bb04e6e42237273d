package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/calltoken-server/internal/callengine"
)

const (
	testKey    = "test-api-key"
	testSecret = "test-secret-change-me"
	testCallID = "livestream_17475406-dedb-46db-b14b-854dd9254ee9"
)

func TestCallToken_Claims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	engine := New(testKey, testSecret, WithClock(func() time.Time { return now }))

	token, err := engine.CallToken(context.Background(), callengine.TokenRequest{
		UserID:   "u1",
		CallID:   testCallID,
		Role:     "viewer",
		ValidFor: time.Hour,
	})
	if err != nil {
		t.Fatalf("call token: %v", err)
	}

	claims, err := ParseCallToken([]byte(testSecret), token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "viewer" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(claims.CallCIDs) != 1 || claims.CallCIDs[0] != testCallID {
		t.Fatalf("unexpected call_cids: %v", claims.CallCIDs)
	}
	if !claims.IssuedAt.Time.Equal(now) || !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected validity window: iat=%v exp=%v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestCallToken_WrongSecretRejected(t *testing.T) {
	engine := New(testKey, testSecret)

	token, err := engine.CallToken(context.Background(), callengine.TokenRequest{
		UserID:   "!anon",
		CallID:   testCallID,
		Role:     "user",
		ValidFor: time.Minute,
	})
	if err != nil {
		t.Fatalf("call token: %v", err)
	}
	if _, err := ParseCallToken([]byte("other-secret"), token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestCallToken_RequiresUserID(t *testing.T) {
	engine := New(testKey, testSecret)
	if _, err := engine.CallToken(context.Background(), callengine.TokenRequest{CallID: testCallID}); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestUpsertUser_SendsAuthenticatedRequest(t *testing.T) {
	var (
		gotPath    string
		gotKey     string
		gotAuth    string
		gotAuthTyp string
		gotBody    upsertUsersRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotAuth = r.Header.Get("Authorization")
		gotAuthTyp = r.Header.Get("Stream-Auth-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":{},"duration":"1ms"}`))
	}))
	defer srv.Close()

	engine := New(testKey, testSecret, WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))

	err := engine.UpsertUser(context.Background(), callengine.User{
		ID:     "u1",
		Role:   "broadcaster",
		Name:   "Alice",
		Custom: map[string]any{"team": "red"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if gotPath != "POST /api/v2/users" {
		t.Fatalf("unexpected request %q", gotPath)
	}
	if gotKey != testKey {
		t.Fatalf("unexpected api key %q", gotKey)
	}
	if gotAuthTyp != "jwt" {
		t.Fatalf("unexpected auth type %q", gotAuthTyp)
	}

	parsed, err := jwt.Parse(gotAuth, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	if err != nil {
		t.Fatalf("parse server token: %v", err)
	}
	if claims, ok := parsed.Claims.(jwt.MapClaims); !ok || claims["server"] != true {
		t.Fatalf("expected server claim, got %v", parsed.Claims)
	}

	user, ok := gotBody.Users["u1"]
	if !ok {
		t.Fatalf("user u1 missing from body: %+v", gotBody)
	}
	if user.ID != "u1" || user.Role != "broadcaster" || user.Name != "Alice" || user.Custom["team"] != "red" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestUpsertUser_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":5,"message":"api key not valid","StatusCode":401}`))
	}))
	defer srv.Close()

	engine := New(testKey, testSecret, WithBaseURL(srv.URL))

	err := engine.UpsertUser(context.Background(), callengine.User{ID: "u1", Role: "viewer"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Code != 5 || apiErr.Message != "api key not valid" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestUpsertUser_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	engine := New(testKey, testSecret, WithBaseURL(srv.URL))

	err := engine.UpsertUser(context.Background(), callengine.User{ID: "u1", Role: "viewer"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestUpsertUser_RequiresID(t *testing.T) {
	engine := New(testKey, testSecret)
	if err := engine.UpsertUser(context.Background(), callengine.User{Role: "viewer"}); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
