// Package llm is a client for an OpenAI-compatible chat-completions endpoint
// (llama-server, Ollama's /v1 surface, vLLM). The refinement and QA stages
// share one client so the local model never sees concurrent requests.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Config selects the endpoint and sampling parameters for every completion.
type Config struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxRetries is the total attempts per completion including the first
	// (1 = no retries). Transport errors, 429 and 5xx responses are retried
	// with exponential backoff; other statuses fail immediately.
	MaxRetries int
}

type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the raw reply
// text. Callers clean the reply themselves; the model's answer is data, not
// a schema.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return "", err
			}
		}

		text, retryable, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (text string, retryable bool, err error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("llm returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", true, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if chatResp.Error != nil {
		return "", false, fmt.Errorf("llm error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", false, fmt.Errorf("llm returned no choices")
	}

	return chatResp.Choices[0].Message.Content, false, nil
}

// IsAvailable probes the models listing so a run can fail fast when the
// local server is not up.
func (c *Client) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET",
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("llm endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// backoff returns 2^attempt seconds, capped at one minute.
func backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if d > time.Minute {
		d = time.Minute
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
