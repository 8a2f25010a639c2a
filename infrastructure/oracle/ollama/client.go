// ABOUTME: Ollama-backed config oracle and author field assist
// ABOUTME: Posts JSON-mode prompts to /api/chat and falls back to /api/generate on an empty answer

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsfeed-canon/core/config"
	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/interfaces"
	htmlutil "newsfeed-canon/pkg/utils/html"
)

const (
	DefaultURL     = "http://localhost:11434"
	DefaultModel   = "gemma3:1b"
	DefaultTimeout = 90 * time.Second

	temperature = 0.1
	numPredict  = 800

	// Page HTML in author prompts is clipped to this many bytes.
	authorHTMLLimit = 12000
	// Largest response body read from the server.
	maxResponseBytes = 1 << 20
)

// Config configures the client.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// Client talks to an Ollama server through the shared HTTPClient.
type Client struct {
	http    interfaces.HTTPClient
	baseURL string
	model   string
	timeout time.Duration
	logger  interfaces.Logger
}

// NewClient creates a client. Empty config values take the defaults.
func NewClient(httpClient interfaces.HTTPClient, cfg Config, logger interfaces.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Format   string        `json:"format"`
	Stream   bool          `json:"stream"`
	Options  modelOptions  `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type generateRequest struct {
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	Format  string       `json:"format"`
	Stream  bool         `json:"stream"`
	Options modelOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

const systemPrompt = "Reply with a single valid JSON object. Do not add commentary or markdown."

// GenerateConfig asks the model for an extraction config and returns its raw text.
// The text is untrusted; callers parse and validate it.
func (c *Client) GenerateConfig(ctx context.Context, sourceCode string, hints *domain.SourceConfig, samples interfaces.HTMLSamples) (string, error) {
	prompt, err := configPrompt(sourceCode, hints, samples)
	if err != nil {
		return "", err
	}
	c.logger.Info("Requesting config from oracle", map[string]interface{}{
		"source": sourceCode,
		"model":  c.model,
	})
	return c.complete(ctx, prompt)
}

// ExtractAuthor asks the model for the byline of an article page.
func (c *Client) ExtractAuthor(ctx context.Context, pageURL, html string) (string, error) {
	text, err := c.complete(ctx, authorPrompt(pageURL, htmlutil.Clip(html, authorHTMLLimit)))
	if err != nil {
		return "", err
	}
	var answer struct {
		Author interface{} `json:"author"`
	}
	if err := json.Unmarshal([]byte(config.StripFences(text)), &answer); err != nil {
		return "", fmt.Errorf("decode author answer: %w", err)
	}
	switch a := answer.Author.(type) {
	case string:
		return strings.TrimSpace(a), nil
	case []interface{}:
		var names []string
		for _, v := range a {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				names = append(names, strings.TrimSpace(s))
			}
		}
		return strings.Join(names, ", "), nil
	}
	return "", nil
}

// complete sends prompt to /api/chat, then /api/generate when the chat answer is empty.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := modelOptions{Temperature: temperature, NumPredict: numPredict}

	var chat chatResponse
	err := c.post(ctx, "/api/chat", chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Format:  "json",
		Options: opts,
	}, &chat)
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(chat.Message.Content); text != "" {
		return text, nil
	}

	c.logger.Debug("Empty chat answer, retrying with generate", map[string]interface{}{"model": c.model})
	var gen generateResponse
	if err := c.post(ctx, "/api/generate", generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Format:  "json",
		Options: opts,
	}, &gen); err != nil {
		return "", err
	}
	text := strings.TrimSpace(gen.Response)
	if text == "" {
		return "", &errors.ExternalAPIError{API: "ollama", StatusCode: http.StatusOK, Message: "empty response"}
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(ctx, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama %s: %w", path, err)
	}
	rc := resp.Body()
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("ollama %s: read body: %w", path, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &errors.ExternalAPIError{
			API:        "ollama",
			StatusCode: resp.StatusCode(),
			Message:    htmlutil.Clip(strings.TrimSpace(string(data)), 200),
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ollama %s: decode: %w", path, err)
	}
	return nil
}

// SentimentOf asks the model for a sentiment label and a score in [-1, 1].
func (c *Client) SentimentOf(ctx context.Context, text string) (float64, string, error) {
	out, err := c.complete(ctx, sentimentPrompt(htmlutil.Clip(text, authorHTMLLimit)))
	if err != nil {
		return 0, "", err
	}
	var answer struct {
		Score float64 `json:"score"`
		Label string  `json:"label"`
	}
	if err := json.Unmarshal([]byte(config.StripFences(out)), &answer); err != nil {
		return 0, "", fmt.Errorf("decode sentiment answer: %w", err)
	}
	label := strings.ToLower(strings.TrimSpace(answer.Label))
	switch label {
	case "positive", "negative", "neutral":
	default:
		label = "neutral"
	}
	score := answer.Score
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, label, nil
}
