package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vovakirdan/calltoken-server/internal/callengine"
)

// DefaultBaseURL is the Stream video API endpoint.
const DefaultBaseURL = "https://video.stream-io-api.com"

// APIError is returned when the Stream API answers with a non-2xx status.
type APIError struct {
	StatusCode int    `json:"StatusCode"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("stream api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("stream api: status %d: %s", e.StatusCode, e.Message)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(e *Engine) {
		if baseURL != "" {
			e.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the client used for API requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithClock sets the time source for token timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine implements callengine.Engine against the Stream video API.
type Engine struct {
	apiKey     string
	secret     []byte
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// New creates a new Stream Engine.
func New(apiKey, secret string, opts ...Option) *Engine {
	e := &Engine{
		apiKey:     apiKey,
		secret:     []byte(secret),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type upsertUsersRequest struct {
	Users map[string]callengine.User `json:"users"`
}

// UpsertUser creates or updates the user in the Stream user directory.
// POST /api/v2/users
func (e *Engine) UpsertUser(ctx context.Context, user callengine.User) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}

	body, err := json.Marshal(upsertUsersRequest{
		Users: map[string]callengine.User{user.ID: user},
	})
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	authToken, err := generateServerToken(e.secret, e.now())
	if err != nil {
		return fmt.Errorf("generate server token: %w", err)
	}

	endpoint := e.baseURL + "/api/v2/users?" + url.Values{"api_key": {e.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CallToken mints a call token scoped to the single requested call.
func (e *Engine) CallToken(_ context.Context, req callengine.TokenRequest) (string, error) {
	if req.UserID == "" {
		return "", errors.New("user id is required")
	}

	token, err := GenerateCallToken(e.secret, req.UserID, []string{req.CallID}, req.Role, req.ValidFor, e.now())
	if err != nil {
		return "", fmt.Errorf("sign call token: %w", err)
	}
	return token, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	apiErr.StatusCode = resp.StatusCode
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// Ensure Engine implements callengine.Engine
var _ callengine.Engine = (*Engine)(nil)
