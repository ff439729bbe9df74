package profiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inference-gateway/instruct-agent/logger"
)

// maxPromptSize bounds a downloaded system prompt
const maxPromptSize = 1 << 20

// PromptLoader fetches system prompts by URL through a TTL cache
//
//go:generate mockgen -source=prompts.go -destination=../mocks/prompts.go -package=mocks
type PromptLoader interface {
	Load(ctx context.Context, url string, skipCache bool) (string, error)
	// Clear drops one cached prompt, or every cached prompt when url is empty
	Clear(ctx context.Context, url string) error
}

type promptLoader struct {
	cache      Cache
	ttl        time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// NewPromptLoader creates a PromptLoader backed by the given cache
func NewPromptLoader(cache Cache, ttl time.Duration, log logger.Logger) PromptLoader {
	return &promptLoader{
		cache:      cache,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
}

func (l *promptLoader) Load(ctx context.Context, url string, skipCache bool) (string, error) {
	if url == "" {
		return "", errors.New("system prompt URL is not defined")
	}

	if !skipCache {
		value, ok, err := l.cache.Get(ctx, url)
		if err != nil {
			l.logger.Warn("Profiles: prompt cache read failed", err, "url", url)
		} else if ok {
			return value, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create system prompt request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch system prompt from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch system prompt from %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPromptSize))
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt from %s: %w", url, err)
	}

	text := strings.TrimSpace(string(body))
	if err := l.cache.Set(ctx, url, text, l.ttl); err != nil {
		l.logger.Warn("Profiles: prompt cache write failed", err, "url", url)
	}
	return text, nil
}

func (l *promptLoader) Clear(ctx context.Context, url string) error {
	if url == "" {
		return l.cache.Clear(ctx)
	}
	return l.cache.Delete(ctx, url)
}
