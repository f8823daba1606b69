package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Response types matching backend

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type QueryResponse struct {
	Answer *string `json:"answer"`
	ID     uint64  `json:"id"`
}

type HistoryItem struct {
	ID       uint64  `json:"id"`
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Detail)
}

// Signup creates an account and returns its access token
func (c *APIClient) Signup(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/signup", email, password)
}

// Login exchanges credentials for an access token
func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/login", email, password)
}

func (c *APIClient) authenticate(ctx context.Context, path, email, password string) (string, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result TokenResponse
	if err := c.do(ctx, http.MethodPost, path, body, "", &result); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return result.AccessToken, nil
}

// Ask submits a question. An upstream failure surfaces as an *APIError with status 502.
func (c *APIClient) Ask(ctx context.Context, token, question, model string) (*QueryResponse, error) {
	body := map[string]string{"query": question}
	if model != "" {
		body["model"] = model
	}

	var result QueryResponse
	if err := c.do(ctx, http.MethodPost, "/query", body, token, &result); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &result, nil
}

// History returns the caller's recent queries, newest first
func (c *APIClient) History(ctx context.Context, token string) ([]HistoryItem, error) {
	var items []HistoryItem
	if err := c.do(ctx, http.MethodGet, "/history", nil, token, &items); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return items, nil
}

// Health reports the backend status
func (c *APIClient) Health(ctx context.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, "", &result); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if result.Status != "ok" {
		return fmt.Errorf("health: status %q", result.Status)
	}
	return nil
}

// HTTP helpers

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}, token string, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Detail string `json:"detail"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &errBody) != nil || errBody.Detail == "" {
			errBody.Detail = string(bodyBytes)
		}
		return &APIError{Status: resp.StatusCode, Detail: errBody.Detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
