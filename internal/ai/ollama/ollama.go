package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KirkDiggler/impostor/internal/ai"
)

// DefaultHost is the address of a local Ollama daemon
const DefaultHost = "http://localhost:11434"

// Config holds configuration for the Ollama client
type Config struct {
	// Host is the daemon address, defaults to DefaultHost
	Host string

	// Optional HTTP client
	HTTPClient *http.Client
}

// Client talks to the Ollama /api/chat endpoint
type Client struct {
	host string
	http *http.Client
}

// New creates a new Ollama client
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &Client{
		host: strings.TrimRight(host, "/"),
		http: httpClient,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *options  `json:"options,omitempty"`
}

// Complete sends a non-streaming chat request
func (c *Client) Complete(ctx context.Context, req *ai.Request) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	messages := make([]message, 0, 2)
	if req.System != "" {
		messages = append(messages, message{Role: "system", Content: req.System})
	}
	messages = append(messages, message{Role: "user", Content: req.Prompt})

	payload := chatRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		payload.Options = &options{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("ollama status %d", resp.StatusCode)
	}

	var out struct {
		Message message `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		return "", ai.ErrEmptyCompletion
	}
	return content, nil
}
