package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chirp/models"
)

const DEFAULT_TIMEOUT = 10 * time.Second

// apiError - тело ответа API с ошибкой
type apiError struct {
	Error       string              `json:"error"`
	Code        string              `json:"code"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
}

// HTTP talks to the JSON API of a chirp server.
type HTTP struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTP(baseURL string, httpClient *http.Client) *HTTP {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DEFAULT_TIMEOUT}
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (h *HTTP) WithToken(token string) *HTTP {
	cp := *h
	cp.token = token
	return &cp
}

func (h *HTTP) GetAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	var posts []models.PostWithAuthor
	if err := h.do(ctx, http.MethodGet, "/api/v1/posts.getAll", nil, http.StatusOK, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		return nil, ErrNoData
	}
	return posts, nil
}

func (h *HTTP) Create(ctx context.Context, content string) error {
	return h.do(ctx, http.MethodPost, "/api/v1/posts.create", map[string]string{"content": content}, http.StatusCreated, nil)
}

// Login exchanges credentials for an API token.
func (h *HTTP) Login(ctx context.Context, username, password string) (string, error) {
	return h.authenticate(ctx, "/api/v1/auth/login", username, password, http.StatusOK)
}

// Register creates an account and returns its API token.
func (h *HTTP) Register(ctx context.Context, username, password string) (string, error) {
	return h.authenticate(ctx, "/api/v1/auth/register", username, password, http.StatusCreated)
}

func (h *HTTP) authenticate(ctx context.Context, path, username, password string, want int) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := h.do(ctx, http.MethodPost, path, body, want, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (h *HTTP) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body apiError
	if err := json.Unmarshal(data, &body); err != nil || (body.Error == "" && body.Code == "") {
		return &Error{
			Code:       http.StatusText(status),
			Message:    strings.TrimSpace(string(data)),
			HTTPStatus: status,
		}
	}
	return &Error{
		Code:        body.Code,
		Message:     body.Error,
		HTTPStatus:  status,
		FieldErrors: body.FieldErrors,
	}
}
