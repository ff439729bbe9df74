package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inference-gateway/instruct-agent/logger"
)

// DefaultBaseURL is the GitHub Models inference endpoint
const DefaultBaseURL = "https://models.github.ai/inference"

// ErrUpstream marks a failed model backend call
var ErrUpstream = errors.New("model backend error")

// maxErrorBody bounds how much of an error response is kept
const maxErrorBody = 4096

// Client talks to an OpenAI-compatible chat completion endpoint
//
//go:generate mockgen -source=client.go -destination=../mocks/provider_client.go -package=mocks
type Client interface {
	ChatCompletions(ctx context.Context, req CreateChatCompletionRequest) (CreateChatCompletionResponse, error)
}

// ClientConfig configures the model backend client
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type clientImpl struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a model backend client
func NewClient(cfg ClientConfig, log logger.Logger) Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &clientImpl{
		baseURL: baseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

func (c *clientImpl) ChatCompletions(ctx context.Context, r CreateChatCompletionRequest) (CreateChatCompletionResponse, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return CreateChatCompletionResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return CreateChatCompletionResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("Provider: sending chat completion", "model", r.Model, "messages", len(r.Messages), "tools", len(r.Tools))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CreateChatCompletionResponse{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return CreateChatCompletionResponse{}, fmt.Errorf("%w: unexpected status code %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response CreateChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return CreateChatCompletionResponse{}, fmt.Errorf("%w: failed to decode response: %w", ErrUpstream, err)
	}

	return response, nil
}
