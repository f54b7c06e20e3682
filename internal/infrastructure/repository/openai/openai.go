package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailsift/mailsift/internal/domain/classification"
	openai "github.com/sashabaranov/go-openai"
)

const (
	systemPrompt = "You are an AI assistant helping with email classification."

	promptTemplate = `Please analyze the following email and classify it into one of these categories:
- "reply": Email requires a response or contains the word reply anywhere in the email
- "read": Email should be read but doesn't need immediate response
- "archive": Email can be archived without reading in detail

Email content:
%s

Respond with a JSON object containing:
{
  "category": "reply" or "read" or "archive",
  "confidence": <number between 0 and 1>,
  "reasoning": <short explanation>
}`
)

// chatClient is the slice of the OpenAI client the oracle needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Oracle classifies email content with a single chat completion per call.
type Oracle struct {
	client chatClient
	model  string
}

var _ classification.Oracle = (*Oracle)(nil)

// NewOracle creates an oracle backed by the OpenAI chat completions API.
func NewOracle(apiKey, model string) (*Oracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Oracle{client: openai.NewClient(apiKey), model: model}, nil
}

// Classify never fails: a failed call or an unusable response collapses to
// the conservative default (read, 0.5) so one flaky classification cannot
// break a batch.
func (o *Oracle) Classify(ctx context.Context, content string) classification.Result {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, content)},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		slog.Error("classification call failed", "error", err)
		return errorFallback()
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		slog.Error("classification call returned no content")
		return errorFallback()
	}

	return parseResponse(resp.Choices[0].Message.Content)
}
