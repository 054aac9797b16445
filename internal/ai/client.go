// Package ai talks to the chat completion and text-to-image HTTP APIs.
//
// Every failure is reported through package apperror: a reply that is empty
// or non-2xx is ErrUpstream, a request that ran out of time is
// ErrUpstreamTimeout. A cancelled context is returned as is, since it means
// the caller gave up rather than the service failing.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/game-idea-generator/internal/apperror"
)

const (
	chatService  = "chat completion"
	imageService = "image generation"

	maxChatBytes  = 1 << 20
	maxImageBytes = 20 << 20
)

// Config holds the endpoints and credentials of both APIs.
type Config struct {
	ChatURL     string
	ChatAPIKey  string
	ChatModel   string
	ImageURL    string
	ImageAPIKey string
	Timeout     time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-3.5-turbo"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Inputs string `json:"inputs"`
}

// CompleteChat sends prompt as a single user message and returns the content
// of the first choice.
func (c *Client) CompleteChat(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload := chatRequest{
		Model:       c.cfg.ChatModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}

	start := time.Now()
	body, _, err := c.post(ctx, chatService, c.cfg.ChatURL, c.cfg.ChatAPIKey, payload, maxChatBytes)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", apperror.Upstream(chatService, "invalid JSON response"), err)
	}
	if len(resp.Choices) == 0 {
		return "", apperror.Upstream(chatService, "no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", apperror.Upstream(chatService, "empty response")
	}

	c.logger.Debug("chat completion finished",
		slog.Float64("temperature", temperature),
		slog.Int("chars", len(content)),
		slog.Duration("duration", time.Since(start)),
	)
	return content, nil
}

// GenerateImage returns the raw image bytes produced for prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()
	body, contentType, err := c.post(ctx, imageService, c.cfg.ImageURL, c.cfg.ImageAPIKey, imageRequest{Inputs: prompt}, maxImageBytes)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, apperror.Upstream(imageService, "no image received")
	}
	// Some providers answer 200 with a JSON error while the model warms up.
	if strings.HasPrefix(contentType, "application/json") {
		return nil, apperror.Upstream(imageService, "unexpected JSON response: "+truncateBody(body))
	}

	c.logger.Debug("image generation finished",
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)
	return body, nil
}

// post sends payload as JSON and returns the response body and content type
// of a 2xx reply.
func (c *Client) post(ctx context.Context, service, url, apiKey string, payload any, limit int64) ([]byte, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("ai: marshal %s request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("ai: new %s request: %w", service, err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", classifyTransportError(service, err)
	}
	defer resp.Body.Close()

	// One byte past the limit tells a full body apart from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", classifyTransportError(service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upstream returned error status",
			slog.String("service", service),
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncateBody(body)),
		)
		return nil, "", apperror.Upstream(service, fmt.Sprintf("status %d: %s", resp.StatusCode, truncateBody(body)))
	}
	if int64(len(body)) > limit {
		c.logger.Warn("upstream response too large",
			slog.String("service", service),
			slog.Int64("limit", limit),
		)
		return nil, "", apperror.Upstream(service, "response too large")
	}

	return body, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

func classifyTransportError(service string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("ai: %s: %w", service, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", apperror.UpstreamTimeout(service), err)
	}
	return fmt.Errorf("%w: %w", apperror.Upstream(service, "request failed"), err)
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
