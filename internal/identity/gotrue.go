package identity

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

	"github.com/rs/zerolog"
)

// GoTrueConfig configures the Supabase Auth (GoTrue) client.
type GoTrueConfig struct {
	// BaseURL is the project URL, e.g. https://<ref>.supabase.co.
	BaseURL string
	// ServiceRoleKey authorises admin account operations. Server-side only.
	ServiceRoleKey string
	// AnonKey is sent as the apikey header when verifying user tokens.
	// The service role key is used when empty.
	AnonKey string
	Timeout time.Duration
}

// GoTrueClient implements Provider against the Supabase Auth REST API.
type GoTrueClient struct {
	baseURL    string
	serviceKey string
	publicKey  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGoTrueClient creates a client for the Supabase Auth REST API.
// httpClient may be nil, in which case a client with cfg.Timeout is used.
func NewGoTrueClient(cfg GoTrueConfig, httpClient *http.Client, logger zerolog.Logger) (*GoTrueClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("identity base url must not be empty")
	}
	if strings.TrimSpace(cfg.ServiceRoleKey) == "" {
		return nil, fmt.Errorf("identity service role key must not be empty")
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	publicKey := cfg.AnonKey
	if publicKey == "" {
		publicKey = cfg.ServiceRoleKey
	}

	return &GoTrueClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/auth/v1",
		serviceKey: cfg.ServiceRoleKey,
		publicKey:  publicKey,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "gotrue_client").Logger(),
	}, nil
}

// VerifyToken resolves a user access token to its account.
func (c *GoTrueClient) VerifyToken(ctx context.Context, token string) (User, error) {
	if strings.TrimSpace(token) == "" {
		return User{}, ErrInvalidToken
	}

	resp, err := c.do(ctx, http.MethodGet, "/user", token, c.publicKey, nil)
	if err != nil {
		return User{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr := readAPIError(resp)
		return User{}, fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Message)
	}

	var user User
	if err := decodeResponse(resp, &user); err != nil {
		return User{}, fmt.Errorf("verify token: %w", err)
	}
	if user.ID == "" {
		return User{}, ErrInvalidToken
	}

	return user, nil
}

// CreateUser creates an account through the admin API.
func (c *GoTrueClient) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	body := map[string]interface{}{
		"email":         params.Email,
		"password":      params.Password,
		"email_confirm": params.EmailConfirm,
	}

	resp, err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, c.serviceKey, body)
	if err != nil {
		return User{}, err
	}

	var user User
	if err := decodeResponse(resp, &user); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	c.logger.Debug().Str("user_id", user.ID).Msg("identity account created")
	return user, nil
}

// DeleteUser removes an account through the admin API. A missing account
// yields ErrUserNotFound.
func (c *GoTrueClient) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.serviceKey, c.serviceKey, nil)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		apiErr := readAPIError(resp)
		return fmt.Errorf("%w: %s", ErrUserNotFound, apiErr.Message)
	}

	if err := decodeResponse(resp, nil); err != nil {
		if isUserNotFound(err) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, err.Error())
		}
		return fmt.Errorf("delete user: %w", err)
	}

	c.logger.Debug().Str("user_id", id).Msg("identity account deleted")
	return nil
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer, apiKey string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode identity request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request %s %s: %w", method, path, err)
	}

	return resp, nil
}

// errorPayload covers the error shapes GoTrue has used across versions.
type errorPayload struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}

	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Code = payload.ErrorCode
		if apiErr.Code == "" {
			if code, ok := payload.Code.(string); ok {
				apiErr.Code = code
			}
		}
		for _, candidate := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
			if strings.TrimSpace(candidate) != "" {
				apiErr.Message = candidate
				break
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

func decodeResponse(resp *http.Response, target interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	defer resp.Body.Close()

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}

	return nil
}

func isUserNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "user_not_found" || apiErr.Message == "User not found"
}
