package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/calltoken-server/internal/metrics"
	"github.com/vovakirdan/calltoken-server/internal/service/tokens"
)

// Client-facing messages.
const (
	msgInvalidBody     = "Invalid request body."
	msgRoleRequired    = "Role is required (user or broadcaster)."
	msgInvalidCallID   = "Invalid or missing call ID."
	msgNameRequired    = "Name is required for broadcasters."
	msgErrCreatingUser = "Error creating user"
)

// TokenHandlers provides HTTP handlers for call token issuance.
type TokenHandlers struct {
	service *tokens.Service
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

// NewTokenHandlers creates a new token handlers instance.
func NewTokenHandlers(svc *tokens.Service, m *metrics.Metrics, logger *zerolog.Logger) *TokenHandlers {
	return &TokenHandlers{
		service: svc,
		metrics: m,
		log:     logger,
	}
}

// CreateUserRequest represents the request body for issuing a call token.
type CreateUserRequest struct {
	UserID string         `json:"userId"`
	Role   string         `json:"role"`
	Name   string         `json:"name"`
	Image  string         `json:"image"`
	CallID string         `json:"callId"`
	Custom map[string]any `json:"custom"`
}

// CreateUserResponse represents the issued identity and token.
type CreateUserResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
	CallID string `json:"callId"`
}

// MessageResponse represents an error response body.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// CreateUser validates the request, registers the user and returns a call token.
// POST /api/createUser
func (h *TokenHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	// An empty body is an empty request and fails validation below.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug().Err(err).Msg("invalid create user request")
		h.metrics.RequestRejected("invalid_body")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: msgInvalidBody})
		return
	}

	result, err := h.service.Issue(c.Request.Context(), tokens.Request{
		UserID: req.UserID,
		Role:   req.Role,
		Name:   req.Name,
		Image:  req.Image,
		CallID: req.CallID,
		Custom: req.Custom,
	})
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrRoleRequired):
			h.reject(c, "role_required", msgRoleRequired)
		case errors.Is(err, tokens.ErrInvalidCallID):
			h.reject(c, "invalid_call_id", msgInvalidCallID)
		case errors.Is(err, tokens.ErrNameRequired):
			h.reject(c, "name_required", msgNameRequired)
		default:
			h.log.Error().Err(err).Str("role", req.Role).Str("call_id", req.CallID).Msg("failed to create user")
			c.JSON(http.StatusInternalServerError, MessageResponse{
				Message: msgErrCreatingUser,
				Error:   err.Error(),
			})
		}
		return
	}

	h.metrics.TokenIssued(req.Role)
	h.log.Info().Str("user_id", result.UserID).Str("role", req.Role).Str("call_id", result.CallID).Msg("call token issued")
	c.JSON(http.StatusOK, CreateUserResponse{
		UserID: result.UserID,
		Token:  result.Token,
		CallID: result.CallID,
	})
}

func (h *TokenHandlers) reject(c *gin.Context, reason, message string) {
	h.metrics.RequestRejected(reason)
	c.JSON(http.StatusBadRequest, MessageResponse{Message: message})
}
