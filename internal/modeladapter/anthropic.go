package modeladapter

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 8192

// AnthropicAdapter implements Adapter for the Claude models, grounded on the
// reference's Messages.New call shape. Each Translate is a single call with
// no retry of its own. Claude has no audio modality, so Transcribe is
// unsupported; Translate works over plain text.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAdapter is the Registry constructor for provider id
// "anthropic".
func NewAnthropicAdapter(cfg Config) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("modeladapter: anthropic: api key required")
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicAdapter{client: client, model: cfg.Model}, nil
}

// Transcribe implements Adapter. Claude takes no audio input, so a caller
// routing a transcription job here is a configuration error, not a
// retryable failure.
func (a *AnthropicAdapter) Transcribe(ctx context.Context, mediaPath, prompt string) (TranscriptionResult, error) {
	return TranscriptionResult{}, fmt.Errorf("modeladapter: anthropic: transcription is not supported, use google or openai")
}

// Translate implements Adapter.
func (a *AnthropicAdapter) Translate(ctx context.Context, text, prompt string) (TranslationResult, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt + "\n\n" + text)),
		},
	})
	if err != nil {
		return TranslationResult{}, fmt.Errorf("modeladapter: anthropic: translate: %w", err)
	}

	result := TranslationResult{
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}
	result.TotalTokens = result.InputTokens + result.OutputTokens

	if message.StopReason == anthropic.StopReasonRefusal {
		result.Success = false
		result.Text = "blocked by provider safety filter"
		return result, nil
	}

	result.Success = true
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.Text += tb.Text
		}
	}
	return result, nil
}

// Release is a no-op: Anthropic's API has no server-side blob handles to
// clean up.
func (a *AnthropicAdapter) Release(ctx context.Context) error {
	return nil
}
