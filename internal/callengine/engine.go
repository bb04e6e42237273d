package callengine

import (
	"context"
	"time"
)

// User is the identity registered with the provider's user directory.
type User struct {
	ID     string         `json:"id"`
	Role   string         `json:"role"`
	Name   string         `json:"name,omitempty"`
	Image  string         `json:"image,omitempty"`
	Custom map[string]any `json:"custom,omitempty"`
}

// TokenRequest describes the call token to mint.
type TokenRequest struct {
	UserID   string
	CallID   string
	Role     string
	Name     string // optional display name, used by providers that embed it
	ValidFor time.Duration
}

// Engine abstracts the streaming provider.
type Engine interface {
	// UpsertUser inserts or updates the user in the provider's directory.
	UpsertUser(ctx context.Context, user User) error

	// CallToken mints a signed token letting the user join the call with the given role.
	CallToken(ctx context.Context, req TokenRequest) (string, error)
}
