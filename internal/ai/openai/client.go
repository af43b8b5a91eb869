package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"
	defaultTimeout = 90 * time.Second
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// Generator talks to an OpenAI-compatible chat completions API.
type Generator struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewGenerator returns a Generator for an OpenAI-compatible chat completions endpoint.
func NewGenerator(cfg Config, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Generator{http: client, model: model, logger: logger}, nil
}

// GenerateContent returns the content of the first choice.
func (g *Generator) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	req := chatRequest{
		Model:          g.model,
		Temperature:    0,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	if system = strings.TrimSpace(system); system != "" {
		req.Messages = append(req.Messages, message{Role: "system", Content: system})
	}
	req.Messages = append(req.Messages, message{Role: "user", Content: prompt})

	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	body := resp.Body()
	if resp.IsError() {
		return "", fmt.Errorf("chat completion: bad status: %s: %s", resp.Status(), gjson.GetBytes(body, "error.message").String())
	}

	g.logger.Debug("chat completion finished",
		zap.String("finish_reason", gjson.GetBytes(body, "choices.0.finish_reason").String()),
		zap.Int64("total_tokens", gjson.GetBytes(body, "usage.total_tokens").Int()),
	)

	output := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
