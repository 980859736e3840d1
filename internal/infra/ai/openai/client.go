package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/ai"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/ai/prompt"
)

const maxTokens = 2048

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Client answers fast policy analysis with a chat completion. It implements
// analysis.FastAnalyzer.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithBaseURL targets an OpenAI compatible endpoint.
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) request(policy string) openai.ChatCompletionRequest {
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(policy)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

func (c *Client) FastAnalyze(ctx context.Context, policy string) (analysis.Outcome[analysis.FastAnalysis], error) {
	resp, err := c.CreateChatCompletion(ctx, c.request(policy))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return analysis.Outcome[analysis.FastAnalysis]{}, fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
		}
		return analysis.Outcome[analysis.FastAnalysis]{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return analysis.Outcome[analysis.FastAnalysis]{}, ai.ErrEmptyCompletion
	}
	return analysis.DecodeOutcome[analysis.FastAnalysis]([]byte(resp.Choices[0].Message.Content)), nil
}
