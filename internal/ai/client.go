package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultTemperature = 0.8
	defaultTimeout     = 90 * time.Second
)

// ErrUnavailable is returned while the circuit breaker is shedding
// traffic after repeated upstream failures.
var ErrUnavailable = errors.New("ai: suggestion service temporarily unavailable")

// Config describes how the OpenAI client should be initialised.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client offers a thin wrapper around the OpenAI Chat Completions API.
// Calls flow through a circuit breaker so a failing upstream sheds load
// instead of stacking timeouts.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[string]
}

// NewClient builds a Client that can query OpenAI for recipe ideas.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("ai: api key must not be empty")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	temp := cfg.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "openai",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temp,
		httpClient:  httpClient,
		breaker:     breaker,
	}, nil
}

func (c *Client) chatCompletion(ctx context.Context, payload map[string]any) (string, error) {
	content, err := c.breaker.Execute(func() (string, error) {
		return c.performChatCompletion(ctx, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	return content, err
}

func (c *Client) performChatCompletion(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("ai: openai returned status %s", resp.Status)
	}

	var responseData struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&responseData); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}

	if len(responseData.Choices) == 0 {
		return "", errors.New("ai: openai returned no choices")
	}

	content := strings.TrimSpace(responseData.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "`")
	return strings.TrimSpace(content), nil
}
