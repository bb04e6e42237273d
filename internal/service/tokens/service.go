package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/calltoken-server/internal/callengine"
	"github.com/vovakirdan/calltoken-server/internal/utils"
)

// Roles with special handling.
const (
	RoleUser        = "user"
	RoleBroadcaster = "broadcaster"
	RoleViewer      = "viewer"
)

// AnonymousUserID is the identity given to users joining without an ID.
// It is never registered with the provider.
const AnonymousUserID = "!anon"

// Validation errors.
var (
	ErrRoleRequired  = errors.New("role is required")
	ErrInvalidCallID = errors.New("invalid or missing call id")
	ErrNameRequired  = errors.New("name is required for broadcasters")
)

// Request is a token issuance request.
type Request struct {
	UserID string
	Role   string
	Name   string
	Image  string
	CallID string
	Custom map[string]any
}

// Result is what the caller gets back on success.
type Result struct {
	UserID string
	Token  string
	CallID string
}

// Service validates requests and issues call tokens through the engine.
type Service struct {
	engine   callengine.Engine
	allowed  *AllowList
	validFor time.Duration
	newID    func() string
	log      *zerolog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithIDGenerator replaces the generator used for users without an ID.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// New creates a new token Service.
func New(engine callengine.Engine, allowed *AllowList, validFor time.Duration, opts ...Option) *Service {
	nop := zerolog.Nop()
	s := &Service{
		engine:   engine,
		allowed:  allowed,
		validFor: validFor,
		newID:    utils.NewID,
		log:      &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue validates req, registers the user unless anonymous, and mints a call token.
// Validation errors are returned before any provider call is made.
func (s *Service) Issue(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Role) == "" {
		return nil, ErrRoleRequired
	}
	if !s.allowed.Contains(req.CallID) {
		return nil, ErrInvalidCallID
	}
	if req.Role == RoleBroadcaster && strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}

	userID := s.deriveUserID(req)
	if userID == AnonymousUserID {
		s.log.Debug().Str("call_id", req.CallID).Msg("processing anonymous user")
	} else {
		s.log.Debug().Str("user_id", userID).Str("role", req.Role).Str("call_id", req.CallID).Msg("processing user")

		user := callengine.User{
			ID:     userID,
			Role:   req.Role,
			Name:   req.Name,
			Image:  req.Image,
			Custom: req.Custom,
		}
		if err := s.engine.UpsertUser(ctx, user); err != nil {
			return nil, fmt.Errorf("upsert user: %w", err)
		}
	}

	token, err := s.engine.CallToken(ctx, callengine.TokenRequest{
		UserID:   userID,
		CallID:   req.CallID,
		Role:     req.Role,
		Name:     req.Name,
		ValidFor: s.validFor,
	})
	if err != nil {
		return nil, fmt.Errorf("generate call token: %w", err)
	}

	return &Result{
		UserID: userID,
		Token:  token,
		CallID: req.CallID,
	}, nil
}

func (s *Service) deriveUserID(req Request) string {
	switch {
	case req.Role == RoleUser && req.UserID == "":
		return AnonymousUserID
	case req.UserID != "":
		return req.UserID
	default:
		return s.newID()
	}
}

// IsValidationError reports whether err is one of the client-facing validation errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrRoleRequired) ||
		errors.Is(err, ErrInvalidCallID) ||
		errors.Is(err, ErrNameRequired)
}
