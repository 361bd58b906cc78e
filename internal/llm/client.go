// Package llm talks to the text-generation backend that writes concierge
// replies.  The backend is any endpoint accepting an OpenAI style chat
// payload; replies in the chat-completions, responses and Gemini shapes
// are understood.
package llm

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
)

var (
	// ErrBackendUnavailable means no endpoint or API key is configured.
	ErrBackendUnavailable = errors.New("llm: backend not configured")
	// ErrEmptyResponse means the backend answered without any text.
	ErrEmptyResponse = errors.New("llm: response had no text content")
)

// BackendError is a non-2xx answer from the backend.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("llm: backend returned %d: %s", e.Status, e.Body)
}

// retryable reports whether another attempt might succeed.
func (e *BackendError) retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Generator produces a reply for a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Config holds the backend connection settings.
type Config struct {
	EndpointURL string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

// Client is an HTTP Generator.  Retries are bounded by MaxRetries and
// only happen on transport errors, 5xx and 429.
type Client struct {
	cfg     Config
	http    *http.Client
	log     *slog.Logger
	backoff time.Duration
}

const maxRetries = 3

// NewClient returns a client for cfg.  An empty endpoint or key gives a
// client whose Generate always returns ErrBackendUnavailable.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries > maxRetries {
		cfg.MaxRetries = maxRetries
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		log:     logger,
		backoff: 250 * time.Millisecond,
	}
}

// Configured reports whether the client has somewhere to send requests.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.EndpointURL != "" && c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type inputPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type request struct {
	Model       string         `json:"model"`
	Messages    []message      `json:"messages"`
	Input       []inputMessage `json:"input"`
	Temperature float64        `json:"temperature"`
}

// Generate sends one prompt pair and returns the trimmed reply text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	if !c.Configured() {
		return "", ErrBackendUnavailable
	}
	payload, err := json.Marshal(request{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Input: []inputMessage{
			{Role: "system", Content: []inputPart{{Type: "text", Text: system}}},
			{Role: "user", Content: []inputPart{{Type: "text", Text: user}}},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.log.Debug("llm: retrying", "attempt", attempt, "wait", wait, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
		text, err := c.do(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !shouldRetry(ctx, err) {
			break
		}
	}
	return "", lastErr
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.retryable()
	}
	// empty or undecodable bodies will not improve on retry
	return !errors.Is(err, ErrEmptyResponse) && !errors.Is(err, errDecode)
}

var errDecode = errors.New("llm: decode response")

func (c *Client) do(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", &BackendError{Status: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("%w: %v", errDecode, err)
	}
	text := ExtractText(data)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ExtractText pulls the first text part out of a decoded response.  It
// understands output[].content[].text, choices[0].message.content (string
// or parts), choices[0].text and candidates[].content.parts[].text.
func ExtractText(data map[string]any) string {
	for _, item := range list(data["output"]) {
		for _, part := range list(obj(item)["content"]) {
			if t := str(obj(part)["text"]); t != "" {
				return strings.TrimSpace(t)
			}
		}
	}

	if choices := list(data["choices"]); len(choices) > 0 {
		first := obj(choices[0])
		if msg := obj(first["message"]); msg != nil {
			switch content := msg["content"].(type) {
			case string:
				if t := strings.TrimSpace(content); t != "" {
					return t
				}
			case []any:
				for _, part := range content {
					p := obj(part)
					if str(p["type"]) == "text" && str(p["text"]) != "" {
						return strings.TrimSpace(str(p["text"]))
					}
				}
			}
		}
		if t := str(first["text"]); t != "" {
			return strings.TrimSpace(t)
		}
	}

	for _, cand := range list(data["candidates"]) {
		for _, part := range list(obj(obj(cand)["content"])["parts"]) {
			if t := str(obj(part)["text"]); t != "" {
				return strings.TrimSpace(t)
			}
		}
	}
	return ""
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
