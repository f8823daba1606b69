package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// ClientError is returned by the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnavailable
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeInvalidResponse
)

var (
	ErrUnavailable   = &ClientError{Type: ErrTypeUnavailable, Message: "orchestrator unavailable"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "orchestrator timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// ClientConfig configures the Ollama client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:11434.
	BaseURL string

	// Timeout for a whole chat request. Zero leaves it to the caller's context.
	Timeout time.Duration

	// DefaultModel is used when a request names none.
	DefaultModel string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Ollama answers questions through the /api/chat endpoint of an
// Ollama-compatible server. It is safe for concurrent use.
type Ollama struct {
	config     ClientConfig
	httpClient *http.Client
}

func NewOllama(config *ClientConfig) *Ollama {
	cfg := ClientConfig{}
	if config != nil {
		cfg = *config
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:11434"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Ollama{config: cfg, httpClient: httpClient}
}

func (c *Ollama) Name() string { return "ollama" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type apiError struct {
	Error string `json:"error"`
}

// Answer sends question as a single user message and returns the reply.
func (c *Ollama) Answer(ctx context.Context, question, model string) (string, error) {
	if model == "" {
		model = c.config.DefaultModel
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: question}},
		Stream:   false,
	})
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeUnavailable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		return "", &ClientError{Type: ErrTypeUnavailable, Message: ErrUnavailable.Message, Cause: err}
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return "", &ClientError{Type: ErrTypeModelNotFound, Message: ErrModelNotFound.Message + ": " + model}
	}

	if resp.StatusCode != http.StatusOK {
		var upstream apiError
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&upstream); err == nil && upstream.Error != "" {
			return "", &ClientError{Type: ErrTypeInvalidResponse, Message: upstream.Error}
		}
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "chat request failed: " + resp.Status}
	}

	var result chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Message.Content, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxResponseBytes))
	_ = r.Close()
}
