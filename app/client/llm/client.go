package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eduagent/app/config"

	"github.com/sashabaranov/go-openai"
)

const (
	callTimeout = 30 * time.Second
	maxTokens   = 2000
)

// Completer is the narrow surface the agent needs from a language model:
// one prompt in, one text reply out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewClient(cfg config.ModelConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: callTimeout,
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Complete sends a single-message chat completion and returns the trimmed
// reply text. One retry on transient failure; the caller never waits longer
// than two call timeouts.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reply, err := c.complete(ctx, prompt)
	if err == nil {
		return reply, nil
	}

	if ctx.Err() != nil {
		return "", err
	}

	slog.Warn("LLM call failed, retrying once", "error", err)

	reply, retryErr := c.complete(ctx, prompt)
	if retryErr != nil {
		return "", errors.Join(err, retryErr)
	}

	return reply, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxCompletionTokens: maxTokens,
			Temperature:         c.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), nil
}

// Render substitutes {key} placeholders in a prompt template.
func Render(template string, values map[string]any) string {
	prompt := template
	for key, value := range values {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	return prompt
}
